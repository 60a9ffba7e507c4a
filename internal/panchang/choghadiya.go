package panchang

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is the quality of a Choghadiya slot.
type Category string

const (
	Auspicious   Category = "auspicious"
	Inauspicious Category = "inauspicious"
)

// auspiciousKeywords are the Amrut, Shubh, Chal and Labh names in Latin
// transliteration, Devanagari and Gujarati script. Stored normalized.
var auspiciousKeywords = normalizeAll([]string{
	// Latin
	"amrut", "amrit", "shubh", "chal", "labh",
	// Devanagari
	"अमृत", "शुभ", "चल", "लाभ",
	// Gujarati
	"અમૃત", "શુભ", "ચલ", "લાભ",
})

var (
	folder = cases.Fold()
	// Strips only Latin combining diacritics (U+0300..U+036F); Indic vowel
	// signs are left intact.
	stripLatinMarks = runes.Remove(runes.Predicate(func(r rune) bool {
		return r >= 0x0300 && r <= 0x036f
	}))
)

// ClassifySlot returns Auspicious when label contains one of the Amrut,
// Shubh, Chal or Labh keywords in any supported script, ignoring case and
// Latin diacritics, and Inauspicious otherwise.
func ClassifySlot(label string) Category {
	n := normalizeLabel(label)
	for _, kw := range auspiciousKeywords {
		if strings.Contains(n, kw) {
			return Auspicious
		}
	}
	return Inauspicious
}

func normalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, stripLatinMarks, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return folder.String(out)
}

func normalizeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = normalizeLabel(w)
	}
	return out
}

// SlotType tells which half of the day a Choghadiya slot belongs to.
type SlotType string

const (
	SlotDay   SlotType = "day"
	SlotNight SlotType = "night"
)

// RawSlot is a Choghadiya record as delivered by the content source.
type RawSlot struct {
	Type     SlotType `json:"type"`
	Sequence int      `json:"sequence"`
	Name     string   `json:"name"`
	Time     string   `json:"time"`
}

// ChoghadiyaSlot is one classified slot of the day or night sequence.
type ChoghadiyaSlot struct {
	Sequence  int      `json:"sequence"`
	Label     string   `json:"label"`
	TimeRange string   `json:"time_range"`
	Category  Category `json:"category"`
	// Range is the parsed TimeRange; meaningful only when Unparseable is false.
	Range       Range `json:"range"`
	Unparseable bool  `json:"unparseable,omitempty"`
}

// Choghadiya holds the day and night slot sequences of one calendar day.
type Choghadiya struct {
	Day   []ChoghadiyaSlot `json:"day"`
	Night []ChoghadiyaSlot `json:"night"`
}

// BuildDayAndNight partitions raw slots by type, keeping the order in which
// they were delivered. A slot whose time range cannot be parsed is kept,
// marked Unparseable, and never resolves as active. Slots of any other type
// are ignored.
func BuildDayAndNight(raw []RawSlot) Choghadiya {
	out := Choghadiya{
		Day:   make([]ChoghadiyaSlot, 0, 8),
		Night: make([]ChoghadiyaSlot, 0, 8),
	}
	for _, r := range raw {
		slot := ChoghadiyaSlot{
			Sequence:  r.Sequence,
			Label:     r.Name,
			TimeRange: strings.TrimSpace(r.Time),
			Category:  ClassifySlot(r.Name),
		}
		start, end, err := ParseRange(r.Time)
		if err != nil {
			slot.Unparseable = true
		} else {
			slot.Range = Range{Start: start, End: end}
		}

		switch SlotType(strings.ToLower(string(r.Type))) {
		case SlotDay:
			out.Day = append(out.Day, slot)
		case SlotNight:
			out.Night = append(out.Night, slot)
		}
	}
	return out
}

// SlotRanges returns the ranges of slots for ResolveFromRanges. Unparseable
// slots get an empty range so indexes stay aligned with slots.
func SlotRanges(slots []ChoghadiyaSlot) []Range {
	out := make([]Range, len(slots))
	for i, s := range slots {
		if s.Unparseable {
			out[i] = Range{}
			continue
		}
		out[i] = s.Range
	}
	return out
}
