package labelme2yolo

// LabelMe specific functionality.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
)

// ShapeCircle is the LabelMe shape type of circles. All other shape types are point lists.
const ShapeCircle = "circle"

const labelMeFileExt = ".json"

// LabelMeShape is a single labelled region of a LabelMe file.
type LabelMeShape struct {
	Label     string
	ShapeType string
	// The ordered region points in pixels. For circles, the center followed by a point on the
	// circumference.
	Points []r2.Vec
	// The number of points without exactly two coordinates. These are left out of Points and
	// make the shape unconvertible.
	MalformedPoints int
}

// IsCircle reports whether s is a circle.
func (s LabelMeShape) IsCircle() bool {
	return s.ShapeType == ShapeCircle
}

// LabelMeFile is the parsed content of a single LabelMe annotation file.
type LabelMeFile struct {
	FilePath    string // The annotation file.
	ImagePath   string // The image path as written in the file.
	ImageWidth  int    // Zero if the file does not record it.
	ImageHeight int    // Zero if the file does not record it.
	Shapes      []LabelMeShape
}

// labelMeShapeJSON is the on-disk structure of a shape.
type labelMeShapeJSON struct {
	Label     string      `json:"label"`
	Points    [][]float64 `json:"points"`
	ShapeType string      `json:"shape_type"`
}

// labelMeFileJSON is the on-disk structure of a LabelMe file. Shapes is decoded separately
// since some tools write a single object instead of a list.
type labelMeFileJSON struct {
	Shapes      json.RawMessage `json:"shapes"`
	ImagePath   string          `json:"imagePath"`
	ImageHeight int             `json:"imageHeight"`
	ImageWidth  int             `json:"imageWidth"`
}

// FromLabelMe reads and parses the LabelMe annotations from the file at path.
//
// Returns an error wrapping ErrMissingShapes if the file has no shapes field.
func FromLabelMe(path string) (*LabelMeFile, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := ParseLabelMe(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LabelMe input from %q: %w", path, err)
	}
	f.FilePath = path

	return f, nil
}

// ParseLabelMe parses a LabelMe document. The FilePath of the result is left empty.
func ParseLabelMe(enc []byte) (*LabelMeFile, error) {
	var doc labelMeFileJSON
	if err := json.Unmarshal(enc, &doc); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(doc.Shapes)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrMissingShapes
	}

	var shapes []labelMeShapeJSON
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &shapes); err != nil {
			return nil, fmt.Errorf("invalid shapes: %w", err)
		}
	} else {
		var s labelMeShapeJSON
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid shapes: %w", err)
		}
		shapes = []labelMeShapeJSON{s}
	}

	f := &LabelMeFile{
		ImagePath:   doc.ImagePath,
		ImageWidth:  doc.ImageWidth,
		ImageHeight: doc.ImageHeight,
		Shapes:      make([]LabelMeShape, len(shapes)),
	}
	for i, s := range shapes {
		shape := LabelMeShape{Label: s.Label, ShapeType: s.ShapeType,
			Points: make([]r2.Vec, 0, len(s.Points))}
		for _, p := range s.Points {
			if len(p) != 2 {
				shape.MalformedPoints++
				continue
			}
			shape.Points = append(shape.Points, r2.Vec{X: p[0], Y: p[1]})
		}
		f.Shapes[i] = shape
	}

	return f, nil
}
