package panchang

import "sort"

// NamedInstant is one labeled boundary of the day, e.g. the minute at which
// Navkarshi begins. Name is already localized.
type NamedInstant struct {
	Name string    `json:"name"`
	Time TimeOfDay `json:"time"`
}

// Interval is a labeled window derived from consecutive boundaries.
type Interval struct {
	Label           string    `json:"label"`
	StartMinute     TimeOfDay `json:"start_minute"`
	EndMinute       TimeOfDay `json:"end_minute"`
	DurationMinutes int       `json:"duration_minutes"`
	// IsEdge marks the first and last interval of a sequence.
	IsEdge bool `json:"is_edge"`
}

// Range returns the interval as a half-open [start, end) range.
func (iv Interval) Range() Range {
	return Range{Start: iv.StartMinute, End: iv.EndMinute}
}

// BuildPeriods orders the instants by time and turns each one into an
// interval ending at the next instant, the last one ending at dayEnd.
// Durations do not wrap past midnight; intervals with a non-positive duration
// are dropped. An empty input yields an empty, non-nil result.
func BuildPeriods(instants []NamedInstant, dayEnd TimeOfDay) []Interval {
	sorted := sortInstants(instants)

	out := make([]Interval, 0, len(sorted))
	for i, in := range sorted {
		end := dayEnd
		if i < len(sorted)-1 {
			end = sorted[i+1].Time
		}
		d := int(end) - int(in.Time)
		if d <= 0 {
			continue
		}
		out = append(out, Interval{
			Label:           in.Name,
			StartMinute:     in.Time,
			EndMinute:       end,
			DurationMinutes: d,
		})
	}

	if len(out) > 0 {
		out[0].IsEdge = true
		out[len(out)-1].IsEdge = true
	}
	return out
}

// Boundaries returns the start of every interval as a NamedInstant, in order.
func Boundaries(intervals []Interval) []NamedInstant {
	out := make([]NamedInstant, len(intervals))
	for i, iv := range intervals {
		out[i] = NamedInstant{Name: iv.Label, Time: iv.StartMinute}
	}
	return out
}

// sortInstants returns a copy sorted by time; ties keep their input order.
func sortInstants(instants []NamedInstant) []NamedInstant {
	sorted := make([]NamedInstant, len(instants))
	copy(sorted, instants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return sorted
}
