package labelme2yolo

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Mode selects the output record layout.
type Mode int

// The output modes.
const (
	ModeBox     Mode = iota // One axis-aligned bounding box per shape.
	ModePolygon             // The point outline per shape, for segmentation.
)

func (m Mode) String() string {
	switch m {
	case ModeBox:
		return "box"
	case ModePolygon:
		return "polygon"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Record is a single YOLO label line.
//
// In box mode Coords is center x, center y, width, height. In polygon mode it is the flattened
// x1, y1, ..., xk, yk. All coordinates are fractions of the image size, rounded to 6 decimals.
type Record struct {
	LabelID int
	Coords  []float64
}

// Normalizer converts LabelMe shapes to records.
type Normalizer struct {
	Labels *LabelRegistry
	Mode   Mode
}

// Normalize converts the shape s of an image with the given pixel size to a Record.
func (n Normalizer) Normalize(s LabelMeShape, width, height int) (Record, error) {
	id, err := n.Labels.Lookup(s.Label)
	if err != nil {
		return Record{}, err
	}
	if width <= 0 || height <= 0 {
		return Record{}, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(s.Points) < 2 || s.MalformedPoints > 0 {
		return Record{}, &DegenerateShapeError{Label: s.Label, ShapeType: s.ShapeType,
			Points: len(s.Points), Required: 2, Malformed: s.MalformedPoints}
	}

	w, h := float64(width), float64(height)
	rec := Record{LabelID: id}

	switch {
	case s.IsCircle() && n.Mode == ModePolygon:
		center := s.Points[0]
		rec.Coords = normalizePoints(approximateCircle(center, circleRadius(s.Points)), w, h)
	case s.IsCircle():
		center := s.Points[0]
		d := 2 * circleRadius(s.Points)
		rec.Coords = []float64{
			round6(center.X / w),
			round6(center.Y / h),
			round6(d / w),
			round6(d / h),
		}
	case n.Mode == ModePolygon:
		rec.Coords = normalizePoints(s.Points, w, h)
	default:
		rec.Coords = boundingBox(s.Points, w, h)
	}

	return rec, nil
}

// circleRadius is the distance between the first two points, the center and a point on the
// circumference.
func circleRadius(points []r2.Vec) float64 {
	d := r2.Sub(points[1], points[0])
	return math.Sqrt(d.X*d.X + d.Y*d.Y)
}

// boundingBox returns the normalised center x, center y, width and height of the tight
// axis-aligned box around points.
func boundingBox(points []r2.Vec, w, h float64) []float64 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	xMin, yMin := floats.Min(xs), floats.Min(ys)
	dx := floats.Max(xs) - xMin
	dy := floats.Max(ys) - yMin

	return []float64{
		round6((xMin + dx/2) / w),
		round6((yMin + dy/2) / h),
		round6(dx / w),
		round6(dy / h),
	}
}

// normalizePoints flattens points into x1, y1, x2, y2, ... as fractions of w and h.
func normalizePoints(points []r2.Vec, w, h float64) []float64 {
	coords := make([]float64, 0, 2*len(points))
	for _, p := range points {
		coords = append(coords, round6(p.X/w), round6(p.Y/h))
	}
	return coords
}

// round6 rounds v to 6 decimal places. The decimal conversion is exact, so ties are resolved on
// the binary value and round half to even.
func round6(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 6, 64), 64)
	if err != nil {
		return v
	}
	return r
}
