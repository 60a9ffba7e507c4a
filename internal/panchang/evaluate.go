package panchang

import "fmt"

// RawInstant is a Pachhakkhan boundary as delivered by the content source,
// before parsing.
type RawInstant struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// DayInput is everything the engine needs for one date and location.
type DayInput struct {
	Sunrise     string       `json:"sunrise"`
	Sunset      string       `json:"sunset"`
	Pachhakkhan []RawInstant `json:"pachhakkhan"`
	Choghadiya  []RawSlot    `json:"choghadiya"`
}

// ActiveSelection identifies the active Choghadiya slot. Index is None when
// nothing is active; Kind is PhaseUnknown when sunrise or sunset is missing.
type ActiveSelection struct {
	Kind  Phase `json:"kind"`
	Index int   `json:"index"`
}

// Dial is the semicircular projection of the daytime span.
type Dial struct {
	SpanStart  TimeOfDay         `json:"span_start"`
	SpanEnd    TimeOfDay         `json:"span_end"`
	Now        AngleProjection   `json:"now"`
	Boundaries []AngleProjection `json:"boundaries"`
}

// Snapshot is the result of one evaluation pass.
type Snapshot struct {
	Now     TimeOfDay  `json:"now"`
	Sunrise *TimeOfDay `json:"sunrise"`
	Sunset  *TimeOfDay `json:"sunset"`
	Phase   Phase      `json:"phase"`

	Pachhakkhan       []Interval `json:"pachhakkhan"`
	ActivePachhakkhan int        `json:"active_pachhakkhan"`

	Choghadiya       Choghadiya      `json:"choghadiya"`
	ActiveChoghadiya ActiveSelection `json:"active_choghadiya"`

	// Dial is nil when sunrise or sunset is unknown.
	Dial *Dial `json:"dial,omitempty"`

	// Unparseable lists the labels of input items whose time could not be parsed.
	Unparseable []string `json:"unparseable,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// ActivePachhakkhanInterval returns the active Pachhakkhan interval, if any.
func (s Snapshot) ActivePachhakkhanInterval() (Interval, bool) {
	if s.ActivePachhakkhan < 0 || s.ActivePachhakkhan >= len(s.Pachhakkhan) {
		return Interval{}, false
	}
	return s.Pachhakkhan[s.ActivePachhakkhan], true
}

// ActiveChoghadiyaSlot returns the active Choghadiya slot, if any.
func (s Snapshot) ActiveChoghadiyaSlot() (ChoghadiyaSlot, bool) {
	var slots []ChoghadiyaSlot
	switch s.ActiveChoghadiya.Kind {
	case PhaseDay:
		slots = s.Choghadiya.Day
	case PhaseNight:
		slots = s.Choghadiya.Night
	}
	i := s.ActiveChoghadiya.Index
	if i < 0 || i >= len(slots) {
		return ChoghadiyaSlot{}, false
	}
	return slots[i], true
}

// Evaluate runs one rendering pass over in with a single sample of now. Items
// with malformed times are skipped and reported; Evaluate itself never fails.
func Evaluate(in DayInput, now TimeOfDay) Snapshot {
	s := Snapshot{
		Now:               now,
		ActivePachhakkhan: None,
		ActiveChoghadiya:  ActiveSelection{Kind: PhaseUnknown, Index: None},
		Pachhakkhan:       []Interval{},
	}

	s.Sunrise = s.parseOptional("sunrise", in.Sunrise)
	s.Sunset = s.parseOptional("sunset", in.Sunset)
	s.Phase = Classify(s.Sunrise, s.Sunset, now)

	instants := make([]NamedInstant, 0, len(in.Pachhakkhan))
	for _, raw := range in.Pachhakkhan {
		t, err := Parse(raw.Time)
		if err != nil {
			s.Unparseable = append(s.Unparseable, raw.Name)
			s.Warnings = append(s.Warnings, err.Error())
			continue
		}
		instants = append(instants, NamedInstant{Name: raw.Name, Time: t})
	}

	switch {
	case len(instants) == 0:
	case s.Sunset == nil:
		s.Warnings = append(s.Warnings, "sunset unavailable: pachhakkhan windows not built")
	default:
		for _, b := range instants {
			if b.Time > *s.Sunset {
				s.Warnings = append(s.Warnings, fmt.Sprintf("pachhakkhan boundary %q at %s is after sunset %s", b.Name, b.Time, *s.Sunset))
			}
		}
		s.Pachhakkhan = BuildPeriods(instants, *s.Sunset)
		s.ActivePachhakkhan = ResolveFromBoundaries(Boundaries(s.Pachhakkhan), now)
	}

	s.Choghadiya = BuildDayAndNight(in.Choghadiya)
	for _, slots := range [][]ChoghadiyaSlot{s.Choghadiya.Day, s.Choghadiya.Night} {
		for _, slot := range slots {
			if slot.Unparseable {
				s.Unparseable = append(s.Unparseable, slot.Label)
			}
		}
	}
	switch s.Phase {
	case PhaseDay:
		s.ActiveChoghadiya = ActiveSelection{Kind: PhaseDay, Index: ResolveFromRanges(SlotRanges(s.Choghadiya.Day), now)}
	case PhaseNight:
		s.ActiveChoghadiya = ActiveSelection{Kind: PhaseNight, Index: ResolveFromRanges(SlotRanges(s.Choghadiya.Night), now)}
	}

	if s.Sunrise != nil && s.Sunset != nil {
		s.Dial = buildDial(*s.Sunrise, *s.Sunset, now, s.Pachhakkhan)
	}
	return s
}

func (s *Snapshot) parseOptional(name, raw string) *TimeOfDay {
	if raw == "" {
		return nil
	}
	t, err := Parse(raw)
	if err != nil {
		s.Unparseable = append(s.Unparseable, name)
		s.Warnings = append(s.Warnings, err.Error())
		return nil
	}
	return &t
}

func buildDial(sunrise, sunset, now TimeOfDay, intervals []Interval) *Dial {
	d := &Dial{
		SpanStart:  sunrise,
		SpanEnd:    sunset,
		Now:        Project(now, sunrise, sunset),
		Boundaries: make([]AngleProjection, 0, len(intervals)+1),
	}
	for _, iv := range intervals {
		d.Boundaries = append(d.Boundaries, Project(iv.StartMinute, sunrise, sunset))
	}
	if n := len(intervals); n > 0 {
		d.Boundaries = append(d.Boundaries, Project(intervals[n-1].EndMinute, sunrise, sunset))
	}
	return d
}
