package labelme2yolo

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestCirclePointCount(t *testing.T) {
	tests := []struct {
		radius float64
		want   int
	}{
		{0.5, 16},
		{30, 16},
		{49.9, 16},
		{50, 20},
		{55, 20},
		{123.4, 48},
		{1000, 400},
	}
	for _, tt := range tests {
		got := len(approximateCircle(r2.Vec{X: 500, Y: 500}, tt.radius))
		if got != tt.want {
			t.Errorf("radius %v: got %d points, want %d", tt.radius, got, tt.want)
		}
		if n := circlePointCount(tt.radius); n != got {
			t.Errorf("radius %v: circlePointCount() = %d, want %d", tt.radius, n, got)
		}
		if parts := circleParts(tt.radius); got != 4*(parts-1)+4 {
			t.Errorf("radius %v: %d points do not match %d parts", tt.radius, got, parts)
		}
	}
}

func TestCircleExtent(t *testing.T) {
	center := r2.Vec{X: 120, Y: 80}
	for _, radius := range []float64{3, 30, 75.5, 260} {
		polygon := approximateCircle(center, radius)

		xMin, yMin := math.Inf(1), math.Inf(1)
		xMax, yMax := math.Inf(-1), math.Inf(-1)
		for _, p := range polygon {
			xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
			yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)

			d := r2.Sub(p, center)
			if r := math.Sqrt(d.X*d.X + d.Y*d.Y); math.Abs(r-radius) > 1e-9 {
				t.Errorf("radius %v: point %v is at distance %v", radius, p, r)
			}
		}

		const tol = 1e-9
		if math.Abs(xMin-(center.X-radius)) > tol || math.Abs(xMax-(center.X+radius)) > tol ||
			math.Abs(yMin-(center.Y-radius)) > tol || math.Abs(yMax-(center.Y+radius)) > tol {
			t.Errorf("radius %v: extent (%v, %v)-(%v, %v)", radius, xMin, yMin, xMax, yMax)
		}
	}
}

func TestCircleOrder(t *testing.T) {
	center := r2.Vec{X: 0, Y: 0}
	polygon := approximateCircle(center, 100)

	// With y growing downwards, the outline runs counterclockwise on screen, so the angle
	// atan2(-y, x) increases monotonically from just above zero to 2*pi.
	prev := 0.0
	for i, p := range polygon {
		a := math.Atan2(-p.Y, p.X)
		if a < 0 {
			a += 2 * math.Pi
		}
		if i == len(polygon)-1 && a < 1e-9 {
			a = 2 * math.Pi // The last point is the rightmost point.
		}
		if a <= prev {
			t.Fatalf("point %d at angle %v does not follow angle %v", i, a, prev)
		}
		prev = a
	}
}

func TestCircleNoSelfIntersection(t *testing.T) {
	polygon := approximateCircle(r2.Vec{X: 300, Y: 200}, 95)
	n := len(polygon)

	orientation := func(a, b, c r2.Vec) float64 {
		return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	}
	crosses := func(p1, p2, q1, q2 r2.Vec) bool {
		d1, d2 := orientation(q1, q2, p1), orientation(q1, q2, p2)
		d3, d4 := orientation(p1, p2, q1), orientation(p1, p2, q2)
		return d1*d2 < 0 && d3*d4 < 0
	}

	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // Adjacent through the closing edge.
			}
			if crosses(polygon[i], polygon[(i+1)%n], polygon[j], polygon[(j+1)%n]) {
				t.Errorf("edge %d crosses edge %d", i, j)
			}
		}
	}
}
