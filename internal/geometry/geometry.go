// Package geometry implements the scalar 2-D primitives shared by the
// tracker, the zone engine and the activity classifier: IoU, centroid
// distance, point-in-polygon and the three-point vertex angle.
//
// Adapted from the teacher's distances.go (IoU) and grounded on the
// ray-casting point-in-polygon from the Spatial-NVR example and the
// angle-with-missing-joint convention from pose_activity_detector.py. All
// operations are pure scalar arithmetic in image-pixel space; there is no
// camera model and no ecosystem library in the retrieval pack covers plain
// 2-D scalar geometry, so this stays on the standard library.
package geometry

import "math"

// Point is a single 2-D coordinate.
type Point struct {
	X, Y float64
}

// Bbox mirrors ghosttrack.Bbox without importing it, keeping this package
// dependency-free; ghosttrack.Bbox converts to/from it trivially.
type Bbox struct {
	X1, Y1, X2, Y2 float64
}

func (b Bbox) area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func (b Bbox) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// IoU returns the intersection-over-union of two bboxes, 0 when they are
// disjoint or either has non-positive area.
func IoU(a, b Bbox) float64 {
	xMin := math.Max(a.X1, b.X1)
	yMin := math.Max(a.Y1, b.Y1)
	xMax := math.Min(a.X2, b.X2)
	yMax := math.Min(a.Y2, b.Y2)

	w := math.Max(0, xMax-xMin)
	h := math.Max(0, yMax-yMin)
	intersection := w * h

	union := a.area() + b.area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// CentroidDistance returns the Euclidean distance between two bboxes' centers.
func CentroidDistance(a, b Bbox) float64 {
	ca, cb := a.Center(), b.Center()
	dx := ca.X - cb.X
	dy := ca.Y - cb.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInPolygon reports whether pt lies inside (or on the boundary of) the
// polygon described by vertices, using a ray-casting test. Polygons with
// fewer than 3 vertices never contain any point.
func PointInPolygon(vertices []Point, pt Point) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	if onBoundary(vertices, pt) {
		return true
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := vertices[i].X, vertices[i].Y
		xj, yj := vertices[j].X, vertices[j].Y

		if (yi > pt.Y) != (yj > pt.Y) {
			xCross := (xj-xi)*(pt.Y-yi)/(yj-yi) + xi
			if pt.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func onBoundary(vertices []Point, pt Point) bool {
	n := len(vertices)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		if pointOnSegment(a, b, pt) {
			return true
		}
	}
	return false
}

func pointOnSegment(a, b, pt Point) bool {
	// Cross product ~ 0 means collinear; then check the bounding box.
	cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
	if math.Abs(cross) > 1e-9 {
		return false
	}
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return pt.X >= minX && pt.X <= maxX && pt.Y >= minY && pt.Y <= maxY
}

// AngleAtVertex returns the angle in degrees at p2 between rays p2->p1 and
// p2->p3. If any point is flagged invalid, it returns 180 degrees (a
// neutral, non-triggering value), matching pose_activity_detector.py's
// calculate_angle.
func AngleAtVertex(p1, p2, p3 Point, p1Valid, p2Valid, p3Valid bool) float64 {
	if !p1Valid || !p2Valid || !p3Valid {
		return 180.0
	}

	v1x, v1y := p1.X-p2.X, p1.Y-p2.Y
	v2x, v2y := p3.X-p2.X, p3.Y-p2.Y

	n1 := math.Sqrt(v1x*v1x + v1y*v1y)
	n2 := math.Sqrt(v2x*v2x + v2y*v2y)
	if n1 == 0 || n2 == 0 {
		return 180.0
	}

	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
