package model

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Paksha values as stored.
const (
	PakshaSud = "sud" // waxing fortnight
	PakshaVad = "vad" // waning fortnight
)

// CalendarDay is one row of the Jain lunar calendar, keyed by Gregorian date.
type CalendarDay struct {
	GregorianDate time.Time `json:"gregorian_date"`
	JainDate      string    `json:"jain_date"`
	JainMonth     string    `json:"jain_month"`
	Paksha        string    `json:"paksha"`
	Tithi         int       `json:"tithi"`

	// IsKshay marks a day on which a tithi is skipped; KshayTithi names it.
	IsKshay    bool `json:"is_kshay"`
	KshayTithi int  `json:"kshay_tithi,omitempty"`

	IsHoliday   bool   `json:"is_holiday"`
	HolidayName string `json:"holiday_name,omitempty"`
}

// Date returns the Gregorian date formatted with DateLayout.
func (d CalendarDay) Date() string {
	return d.GregorianDate.Format(DateLayout)
}

// Kalyanak is a Tirthankar life milestone tied to a Jain date.
type Kalyanak struct {
	ID         int64  `json:"id"`
	Tirthankar string `json:"tirthankar"`
	Kalyanak   string `json:"kalyanak"`
	JainMonth  string `json:"jain_month"`
	Paksha     string `json:"paksha"`
	Tithi      int    `json:"tithi"`
}

// Event is a generic community event, typically imported from an ICS feed.
// RRule, when set, is an RFC 5545 recurrence rule anchored at StartsOn.
type Event struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"` // config ICS ID
	UID         string `json:"uid"`       // iCalendar UID
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	StartsOn time.Time `json:"starts_on"`
	RRule    string    `json:"rrule,omitempty"`
	AllDay   bool      `json:"all_day"`
}

// DayEventType identifies the source category of a DayEvent.
type DayEventType string

const (
	DayEventKshay    DayEventType = "kshay"
	DayEventKalyanak DayEventType = "kalyanak"
	DayEventEvent    DayEventType = "event"
)

// DayEvent is one row of the "events for a date" aggregation.
type DayEvent struct {
	Type   DayEventType `json:"type"`
	Date   string       `json:"date"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`

	// Set for kalyanak rows.
	Tirthankar string `json:"tirthankar,omitempty"`
	// Set for kshay rows.
	Tithi int `json:"tithi,omitempty"`
	// Set for event rows.
	SourceID string `json:"source_id,omitempty"`
	UID      string `json:"uid,omitempty"`
	AllDay   bool   `json:"all_day,omitempty"`
}

// FAQ is one question and answer of the reference content.
type FAQ struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Tirthankar is one of the twenty-four Tirthankars.
type Tirthankar struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Location is a place the content source can compute sunrise and sunset for.
type Location struct {
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}
