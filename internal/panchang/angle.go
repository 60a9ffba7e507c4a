package panchang

import "math"

// AngleProjection places a minute on the semicircular dial.
type AngleProjection struct {
	Minute       TimeOfDay `json:"minute"`
	AngleDegrees float64   `json:"angle_degrees"`
}

// Point is a 2-D screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AngleForMinute maps minute onto [0, 180] degrees for the span
// [spanStart, spanEnd]: 180 at spanStart falling linearly to 0 at spanEnd.
// Minutes outside the span clamp to the nearest edge. A zero-length span
// stays flat at 180.
func AngleForMinute(minute, spanStart, spanEnd TimeOfDay) float64 {
	span := max(int(spanEnd)-int(spanStart), 1)
	ratio := float64(int(minute)-int(spanStart)) / float64(span)
	ratio = math.Min(math.Max(ratio, 0), 1)
	return 180 - ratio*180
}

// Project returns the AngleProjection of minute for the given span.
func Project(minute, spanStart, spanEnd TimeOfDay) AngleProjection {
	return AngleProjection{Minute: minute, AngleDegrees: AngleForMinute(minute, spanStart, spanEnd)}
}

// AngleToPoint converts a polar angle in degrees to screen coordinates around
// center, with y growing downwards.
func AngleToPoint(angleDegrees, radius float64, center Point) Point {
	theta := angleDegrees * math.Pi / 180
	return Point{
		X: center.X + radius*math.Cos(theta),
		Y: center.Y - radius*math.Sin(theta),
	}
}
