package labelme2yolo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// minCircleParts is the minimum number of segments per quarter circle.
const minCircleParts = 4

// circleParts returns the number of segments per quarter circle: one per 10 pixels of radius,
// but at least minCircleParts.
func circleParts(radius float64) int {
	n := radius / 10
	if n > minCircleParts {
		return int(n)
	}
	return minCircleParts
}

// circlePointCount is the number of polygon points approximateCircle returns for radius.
func circlePointCount(radius float64) int {
	return 4 * circleParts(radius)
}

// approximateCircle returns a polygon of 4*circleParts(radius) points on the circle, in image
// coordinates (y grows downwards).
//
// The outline starts just above the rightmost point and runs through the top, left, bottom and
// right points, in that order, without repeating a point. Each quadrant ends on its cardinal
// point.
func approximateCircle(center r2.Vec, radius float64) []r2.Vec {
	n := circleParts(radius)
	n2 := 2 * n
	cx, cy := center.X, center.Y

	// The arc from the right towards the top, excluding both cardinal points.
	arc := make([]r2.Vec, n-1)
	for i := 1; i < n; i++ {
		theta := float64(i) * math.Pi / float64(n2)
		arc[i-1] = r2.Vec{X: cx + math.Cos(theta)*radius, Y: cy - math.Sin(theta)*radius}
	}

	mirrorX := func(p r2.Vec) r2.Vec { return r2.Vec{X: cx*2 - p.X, Y: p.Y} }
	mirrorY := func(p r2.Vec) r2.Vec { return r2.Vec{X: p.X, Y: cy*2 - p.Y} }

	// mirrored maps each point of pts and returns the results in reverse order.
	mirrored := func(pts []r2.Vec, mirror func(r2.Vec) r2.Vec) []r2.Vec {
		out := make([]r2.Vec, len(pts))
		for i, p := range pts {
			out[len(pts)-1-i] = mirror(p)
		}
		return out
	}

	q1 := arc                   // right -> top
	q2 := mirrored(q1, mirrorX) // top -> left
	q4 := mirrored(q1, mirrorY) // bottom -> right
	q3 := mirrored(q4, mirrorX) // left -> bottom

	polygon := make([]r2.Vec, 0, 4*n)
	polygon = append(polygon, q1...)
	polygon = append(polygon, r2.Vec{X: cx, Y: cy - radius})
	polygon = append(polygon, q2...)
	polygon = append(polygon, r2.Vec{X: cx - radius, Y: cy})
	polygon = append(polygon, q3...)
	polygon = append(polygon, r2.Vec{X: cx, Y: cy + radius})
	polygon = append(polygon, q4...)
	polygon = append(polygon, r2.Vec{X: cx + radius, Y: cy})

	return polygon
}
