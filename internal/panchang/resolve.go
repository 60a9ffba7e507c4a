package panchang

// None is returned by the resolvers when no window contains "now".
const None = -1

// Range is a half-open [Start, End) window of the day. When Start > End the
// window crosses midnight.
type Range struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Wraps reports whether r crosses midnight.
func (r Range) Wraps() bool { return r.Start > r.End }

// Contains reports whether now falls inside r. A wrapping range matches from
// Start through midnight and from midnight up to End. A range with
// Start == End is empty.
func (r Range) Contains(now TimeOfDay) bool {
	if r.Start <= r.End {
		return r.Start <= now && now < r.End
	}
	return now >= r.Start || now < r.End
}

// ResolveFromBoundaries returns the index i with
// instants[i].Time <= now < instants[i+1].Time, treating the last instant as
// running until the end of the day. The instants are expected in ascending
// order. It returns None when now precedes the first instant.
func ResolveFromBoundaries(instants []NamedInstant, now TimeOfDay) int {
	for i, in := range instants {
		end := MinutesPerDay
		if i < len(instants)-1 {
			end = int(instants[i+1].Time)
		}
		if int(in.Time) <= int(now) && int(now) < end {
			return i
		}
	}
	return None
}

// ResolveFromRanges returns the index of the first range containing now, in
// input order, or None.
func ResolveFromRanges(ranges []Range, now TimeOfDay) int {
	for i, r := range ranges {
		if r.Contains(now) {
			return i
		}
	}
	return None
}
