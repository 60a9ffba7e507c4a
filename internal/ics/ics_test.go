package ics

import (
	"strings"
	"testing"
	"time"

	"jaincal/internal/model"
	"jaincal/internal/panchang"
)

const sangFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Sangh//Events//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:pravachan@sangh\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260105T033000Z\r\n" +
	"DTEND:20260105T043000Z\r\n" +
	"SUMMARY:Weekly Pravachan\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=MO\r\n" +
	"EXDATE:20260112T033000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:pravachan@sangh\r\n" +
	"RECURRENCE-ID:20260119T033000Z\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260119T043000Z\r\n" +
	"SUMMARY:Weekly Pravachan (moved)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:paryushan@sangh\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20260908\r\n" +
	"SUMMARY:Paryushan begins\r\n" +
	"DESCRIPTION:Eight days of reflection\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"DTSTART:20260110T000000Z\r\n" +
	"SUMMARY:No UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var ist = time.FixedZone("IST", 5*3600+1800)

func TestParseICS(t *testing.T) {
	events, err := ParseICS("sangh", []byte(sangFeed))
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events (one without UID skipped), got %d", len(events))
	}

	weekly := events[0]
	if weekly.RawRRule != "FREQ=WEEKLY;BYDAY=MO" || len(weekly.ExDates) != 1 || weekly.AllDay {
		t.Fatalf("unexpected recurring event: %+v", weekly)
	}
	if !events[1].IsOverride {
		t.Fatal("RECURRENCE-ID event must be marked as override")
	}
	allDay := events[2]
	if !allDay.AllDay || !allDay.Start.Equal(time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected all-day event: %+v", allDay)
	}

	if _, err := ParseICS("sangh", nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestToModelEvents(t *testing.T) {
	parsed, err := ParseICS("sangh", []byte(sangFeed))
	if err != nil {
		t.Fatal(err)
	}
	events := ToModelEvents(parsed)
	if len(events) != 2 {
		t.Fatalf("overrides must be dropped, got %d events", len(events))
	}
	if events[0].RRule != "RRULE:FREQ=WEEKLY;BYDAY=MO\nEXDATE:20260112T033000Z" {
		t.Fatalf("rrule = %q", events[0].RRule)
	}
	if events[0].ID != EventID("sangh", "pravachan@sangh") {
		t.Fatal("event id must be deterministic")
	}
	if events[0].ID == EventID("other", "pravachan@sangh") {
		t.Fatal("event id must depend on the source")
	}
}

func TestOccursOn(t *testing.T) {
	parsed, err := ParseICS("sangh", []byte(sangFeed))
	if err != nil {
		t.Fatal(err)
	}
	events := ToModelEvents(parsed)
	weekly, paryushan := events[0], events[1]

	cases := []struct {
		name string
		ev   model.Event
		day  time.Time
		want bool
	}{
		{"first monday", weekly, time.Date(2026, 1, 5, 0, 0, 0, 0, ist), true},
		{"tuesday", weekly, time.Date(2026, 1, 6, 0, 0, 0, 0, ist), false},
		{"excluded monday", weekly, time.Date(2026, 1, 12, 0, 0, 0, 0, ist), false},
		{"later monday", weekly, time.Date(2026, 2, 2, 0, 0, 0, 0, ist), true},
		{"before start", weekly, time.Date(2025, 12, 29, 0, 0, 0, 0, ist), false},
		{"all-day date", paryushan, time.Date(2026, 9, 8, 0, 0, 0, 0, ist), true},
		{"all-day next date", paryushan, time.Date(2026, 9, 9, 0, 0, 0, 0, ist), false},
	}
	for _, tc := range cases {
		got, err := OccursOn(tc.ev, tc.day, ist)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: OccursOn = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestExpandOnSkipsInvalidRule(t *testing.T) {
	good := model.Event{UID: "a", StartsOn: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), AllDay: true, RRule: "RRULE:FREQ=YEARLY"}
	bad := model.Event{UID: "b", StartsOn: good.StartsOn, AllDay: true, RRule: "RRULE:FREQ=SOMETIMES"}

	got := ExpandOn([]model.Event{good, bad}, time.Date(2027, 1, 1, 0, 0, 0, 0, ist), ist)
	if len(got) != 1 || got[0].UID != "a" {
		t.Fatalf("ExpandOn = %+v", got)
	}
}

func TestExportDay(t *testing.T) {
	in := panchang.DayInput{
		Sunrise: "06:00",
		Sunset:  "18:00",
		Pachhakkhan: []panchang.RawInstant{
			{Name: "Navkarshi", Time: "06:48"},
			{Name: "Porisi", Time: "09:10"},
		},
		Choghadiya: []panchang.RawSlot{
			{Type: panchang.SlotDay, Sequence: 1, Name: "Amrut", Time: "06:00-07:30"},
			{Type: panchang.SlotNight, Sequence: 4, Name: "Labh", Time: "22:30-00:00"},
			{Type: panchang.SlotNight, Sequence: 5, Name: "Udveg", Time: "00:00-01:30"},
			{Type: panchang.SlotNight, Sequence: 6, Name: "Broken", Time: "xx"},
		},
	}
	s := panchang.Evaluate(in, 600)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, ist)
	events := []model.DayEvent{{Type: model.DayEventKalyanak, Title: "Janma Kalyanak", Detail: "Mahavir Swami"}}

	out, err := ExportDay(day, ist, s, events)
	if err != nil {
		t.Fatalf("ExportDay: %v", err)
	}
	body := string(out)

	if got := strings.Count(body, "BEGIN:VEVENT"); got != 6 {
		t.Fatalf("expected 6 VEVENTs, got %d:\n%s", got, body)
	}
	for _, want := range []string{"SUMMARY:Navkarshi", "SUMMARY:Amrut (auspicious)", "SUMMARY:Janma Kalyanak", "PRODID:" + productID} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if strings.Contains(body, "Broken") {
		t.Error("unparseable slots must not be exported")
	}

	again, _ := ExportDay(day, ist, s, events)
	if string(again) != body {
		t.Error("export must be deterministic for the same input")
	}

	if _, err := ExportDay(day, nil, s, nil); err == nil {
		t.Error("expected error for nil location")
	}
}
