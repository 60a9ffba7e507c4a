package content

import (
	"sort"

	"jaincal/internal/panchang"
)

// Dashboard is the per-date, per-location payload of the content source.
type Dashboard struct {
	Date    string `json:"date"`
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`

	// Pachhakkhan maps language -> observance name -> start time.
	Pachhakkhan map[string]map[string]string `json:"pachhakkhan"`

	Choghadiya []ChoghadiyaRecord `json:"choghadiya"`
}

// ChoghadiyaRecord is one slot as delivered, with per-language names.
type ChoghadiyaRecord struct {
	Type     string            `json:"type"`
	Sequence int               `json:"sequence"`
	Name     map[string]string `json:"name"`
	Time     string            `json:"choghadiya_time"`
}

// DayInput converts the payload into engine input for lang. A nil payload or
// a language the payload has no labels for yields empty sequences; that is
// "no data", not an error. Sunrise and sunset are language independent.
func (d *Dashboard) DayInput(lang string) panchang.DayInput {
	var in panchang.DayInput
	if d == nil {
		return in
	}
	in.Sunrise = d.Sunrise
	in.Sunset = d.Sunset

	if names, ok := d.Pachhakkhan[lang]; ok {
		// Map order is random; sort by name so ties at the same minute keep a
		// stable order across passes.
		keys := make([]string, 0, len(names))
		for k := range names {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		in.Pachhakkhan = make([]panchang.RawInstant, 0, len(keys))
		for _, k := range keys {
			in.Pachhakkhan = append(in.Pachhakkhan, panchang.RawInstant{Name: k, Time: names[k]})
		}
	}

	for _, rec := range d.Choghadiya {
		label, ok := rec.Name[lang]
		if !ok {
			continue
		}
		in.Choghadiya = append(in.Choghadiya, panchang.RawSlot{
			Type:     panchang.SlotType(rec.Type),
			Sequence: rec.Sequence,
			Name:     label,
			Time:     rec.Time,
		})
	}
	return in
}
