package panchang

// Phase is the half of the solar day an instant falls in.
type Phase string

const (
	PhaseDay     Phase = "day"
	PhaseNight   Phase = "night"
	PhaseUnknown Phase = "unknown"
)

// Classify returns PhaseDay when sunrise <= now < sunset and PhaseNight
// otherwise. Missing sunrise or sunset data yields PhaseUnknown; callers then
// suppress day/night dependent output instead of guessing.
func Classify(sunrise, sunset *TimeOfDay, now TimeOfDay) Phase {
	if sunrise == nil || sunset == nil {
		return PhaseUnknown
	}
	if *sunrise <= now && now < *sunset {
		return PhaseDay
	}
	return PhaseNight
}
