package labelme2yolo

import (
	"errors"
	"fmt"
	"log"
)

// LabelRegistry maps label names to dense, zero based class IDs. It is immutable once built and
// safe for concurrent use.
type LabelRegistry struct {
	ids   map[string]int
	names []string // Indexed by ID.
}

// NewLabelRegistry creates a registry from names, assigning IDs in order of first occurrence.
func NewLabelRegistry(names ...string) *LabelRegistry {
	r := &LabelRegistry{ids: make(map[string]int, len(names))}
	for _, n := range names {
		r.add(n)
	}
	return r
}

func (r *LabelRegistry) add(label string) {
	if _, ok := r.ids[label]; ok {
		return
	}
	r.ids[label] = len(r.names)
	r.names = append(r.names, label)
}

// BuildLabelRegistry assigns IDs to the labels of all shapes in files, in file order and then
// shape order.
func BuildLabelRegistry(files []*LabelMeFile) *LabelRegistry {
	r := NewLabelRegistry()
	for _, f := range files {
		for _, s := range f.Shapes {
			r.add(s.Label)
		}
	}
	return r
}

// LoadLabelRegistry scans all LabelMe files in labelDir, in file name order, and builds the
// registry from their labels.
//
// Files without shapes are skipped with a warning. Any other read or parse failure is returned,
// as label IDs must cover the whole corpus.
func LoadLabelRegistry(labelDir string) (*LabelRegistry, error) {
	paths, err := filesByExtInDir(labelDir, labelMeFileExt)
	if err != nil {
		return nil, err
	}

	files := make([]*LabelMeFile, 0, len(paths))
	for _, path := range paths {
		f, err := FromLabelMe(path)
		if errors.Is(err, ErrMissingShapes) {
			log.Printf("Warning: no shapes in %q, skipping", path)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("failed to build the label registry: %w", err)
		}
		files = append(files, f)
	}

	r := BuildLabelRegistry(files)
	log.Printf("Found %d labels in %d files", r.Len(), len(files))
	return r, nil
}

// Lookup returns the ID for label.
func (r *LabelRegistry) Lookup(label string) (int, error) {
	id, ok := r.ids[label]
	if !ok {
		return 0, &UnknownLabelError{Label: label}
	}
	return id, nil
}

// Name returns the label with the given ID, or "" if there is none.
func (r *LabelRegistry) Name(id int) string {
	if id < 0 || id >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// Names returns the labels ordered by ID.
func (r *LabelRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len is the number of labels.
func (r *LabelRegistry) Len() int {
	return len(r.names)
}
