package labelme2yolo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures a Converter.
type Options struct {
	LabelDir  string // The directory with the LabelMe files.
	OutputDir string // The directory for the YOLO label files. Created if missing.
	// The directory the image paths in the LabelMe files are relative to. If empty, image paths
	// are relative to the directory of the LabelMe file, as written by LabelMe.
	ImageDir string
	Mode     Mode
	Workers  int        // The number of files converted concurrently. Defaults to 2*NumCPU.
	Sizer    ImageSizer // Defaults to OrientedSizer.

	// Optional TFRecord export of all converted files (box mode only).
	TFRecordPath         string
	TFRecordLabelMapPath string // Required with TFRecordPath.
	NumShards            int    // The number of TFRecord shard files.
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	switch {
	case o.LabelDir == "":
		return errors.New("missing label directory")
	case o.OutputDir == "":
		return errors.New("missing output directory")
	case o.Mode != ModeBox && o.Mode != ModePolygon:
		return fmt.Errorf("invalid mode %v", o.Mode)
	case o.Workers < 0:
		return fmt.Errorf("invalid number of workers %d", o.Workers)
	case o.TFRecordPath != "" && o.Mode != ModeBox:
		return errors.New("the TFRecord export requires box mode")
	case o.TFRecordPath != "" && o.TFRecordLabelMapPath == "":
		return errors.New("missing TFRecord label map path")
	}
	return nil
}

// ConvertedFile describes the conversion result for a single LabelMe file.
type ConvertedFile struct {
	Source    string // The LabelMe file.
	Output    string // The YOLO label file.
	ImagePath string
	Width     int
	Height    int
	Records   []Record
}

// Report summarises a conversion run. Converted and Skipped are sorted by LabelMe file path.
type Report struct {
	Converted []ConvertedFile
	Skipped   []string         // LabelMe files without shapes.
	Failed    map[string]error // LabelMe files that could not be converted.

	mu sync.Mutex
}

// add records the outcome of converting the file at path. It returns err if the error must end
// the run.
func (r *Report) add(path string, f *ConvertedFile, err error) error {
	var writeErr *WriteError
	switch {
	case err == nil:
		log.Printf("Converted %s", path)
	case errors.Is(err, ErrMissingShapes):
		log.Printf("Warning: no shapes in %q, skipping", path)
	case errors.As(err, &writeErr):
		return err
	default:
		log.Printf("Failed to convert %q: %v", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err == nil:
		r.Converted = append(r.Converted, *f)
	case errors.Is(err, ErrMissingShapes):
		r.Skipped = append(r.Skipped, path)
	default:
		if r.Failed == nil {
			r.Failed = make(map[string]error)
		}
		r.Failed[path] = err
	}
	return nil
}

func (r *Report) sort() {
	sort.Slice(r.Converted, func(i, j int) bool {
		return r.Converted[i].Source < r.Converted[j].Source
	})
	sort.Strings(r.Skipped)
}

// Converter converts a directory of LabelMe files to YOLO label files.
type Converter struct {
	opts       Options
	labels     *LabelRegistry
	normalizer Normalizer
}

// NewConverter validates opts, creates the output directory and builds the label registry from
// all files in opts.LabelDir.
func NewConverter(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = 2 * runtime.NumCPU()
	}
	if opts.Sizer == nil {
		opts.Sizer = OrientedSizer{}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %q: %w", opts.OutputDir, err)
	}

	labels, err := LoadLabelRegistry(opts.LabelDir)
	if err != nil {
		return nil, err
	}

	return &Converter{
		opts:       opts,
		labels:     labels,
		normalizer: Normalizer{Labels: labels, Mode: opts.Mode},
	}, nil
}

// Labels returns the label registry used for all files.
func (c *Converter) Labels() *LabelRegistry {
	return c.labels
}

// Convert converts all LabelMe files in the label directory.
//
// Files are converted independently and concurrently. A file without shapes is skipped and a
// file that cannot be converted is reported as failed; neither stops the run. An error is only
// returned if the label directory cannot be read or an output file cannot be written.
func (c *Converter) Convert(ctx context.Context) (*Report, error) {
	paths, err := filesByExtInDir(c.opts.LabelDir, labelMeFileExt)
	if err != nil {
		return nil, err
	}
	log.Printf("Converting %d files", len(paths))

	return c.run(ctx, paths)
}

// ConvertOne converts the single LabelMe file name in the label directory.
func (c *Converter) ConvertOne(ctx context.Context, name string) (*Report, error) {
	return c.run(ctx, []string{filepath.Join(c.opts.LabelDir, name)})
}

// run converts the files at paths and writes the TFRecord export if configured.
func (c *Converter) run(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			f, err := c.convertFile(path)
			return report.add(path, f, err)
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.sort()

	if c.opts.TFRecordPath != "" {
		err := WriteTFRecord(c.opts.TFRecordPath, c.opts.TFRecordLabelMapPath, report.Converted,
			c.labels, c.opts.NumShards)
		if err != nil {
			return report, fmt.Errorf("TFRecord export failed: %w", err)
		}
	}

	return report, nil
}

// convertFile converts the LabelMe file at path and writes the YOLO label file.
func (c *Converter) convertFile(path string) (*ConvertedFile, error) {
	lm, err := FromLabelMe(path)
	if err != nil {
		return nil, err
	}

	imagePath := c.imagePath(lm)
	width, height, err := c.opts.Sizer.ImageSize(imagePath)
	if err != nil {
		return nil, err
	}
	if lm.ImageWidth > 0 && lm.ImageHeight > 0 && (lm.ImageWidth != width || lm.ImageHeight != height) {
		log.Printf("Warning: %q records image size %dx%d, but %q is %dx%d", path,
			lm.ImageWidth, lm.ImageHeight, imagePath, width, height)
	}

	records := make([]Record, len(lm.Shapes))
	for i, s := range lm.Shapes {
		if records[i], err = c.normalizer.Normalize(s, width, height); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}

	outPath, err := yoloLabelPath(c.opts.OutputDir, path)
	if err != nil {
		return nil, err
	}
	if err := WriteYOLO(outPath, records); err != nil {
		return nil, err
	}

	return &ConvertedFile{
		Source:    path,
		Output:    outPath,
		ImagePath: imagePath,
		Width:     width,
		Height:    height,
		Records:   records,
	}, nil
}

// imagePath resolves the image path recorded in lm.
func (c *Converter) imagePath(lm *LabelMeFile) string {
	p := filepath.FromSlash(strings.ReplaceAll(lm.ImagePath, `\`, "/"))
	if filepath.IsAbs(p) {
		return p
	}

	dir := c.opts.ImageDir
	if dir == "" {
		dir = filepath.Dir(lm.FilePath)
	}
	return filepath.Join(dir, p)
}

// WriteDataset writes the dataset descriptor for the label registry to the output directory and
// returns its path.
func (c *Converter) WriteDataset() (string, error) {
	path := filepath.Join(c.opts.OutputDir, DatasetFileName)
	return path, WriteDatasetYAML(path, NewDataset(c.opts.OutputDir, c.labels))
}
