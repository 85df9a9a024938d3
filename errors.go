package labelme2yolo

import (
	"errors"
	"fmt"
)

// ErrMissingShapes is returned for annotation documents without a shapes field. Such documents
// are skipped, not failed.
var ErrMissingShapes = errors.New("no shapes field")

// UnknownLabelError reports a label that is not part of the label registry.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q", e.Label)
}

// DegenerateShapeError reports a shape with too few or malformed points to be converted.
type DegenerateShapeError struct {
	Label     string
	ShapeType string
	Points    int // The number of points in the shape.
	Required  int // The minimum number of points for the shape type.
	Malformed int // The number of points without exactly two coordinates.
}

func (e *DegenerateShapeError) Error() string {
	if e.Malformed > 0 {
		return fmt.Sprintf("%s shape %q has %d points without exactly two coordinates",
			e.ShapeType, e.Label, e.Malformed)
	}
	return fmt.Sprintf("%s shape %q has %d points, need at least %d",
		e.ShapeType, e.Label, e.Points, e.Required)
}

// ImageNotFoundError reports that the image referenced by an annotation document is absent.
type ImageNotFoundError struct {
	Path string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image not found: %s", e.Path)
}

// WriteError reports an output file that could not be written. It aborts a conversion run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write file %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
