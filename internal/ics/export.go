package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"jaincal/internal/model"
	"jaincal/internal/panchang"
)

const productID = "-//jaincal//Panchang//EN"

// exportNamespace scopes the UIDs of exported windows.
var exportNamespace = uuid.MustParse("0b8f5a52-3c7e-5e0a-8d61-7f2e9c4b1a30")

// ExportDay renders the windows of one evaluated day as an iCalendar feed:
// one VEVENT per Pachhakkhan interval, one per Choghadiya slot with a valid
// range, and one all-day VEVENT per calendar event of the day. Night slots
// after midnight are placed on the following date. UIDs are stable for the
// same date and label, so subscribers update rather than duplicate.
func ExportDay(date time.Time, loc *time.Location, s panchang.Snapshot, events []model.DayEvent) ([]byte, error) {
	if loc == nil {
		return nil, errors.New("export: location is nil")
	}
	y, m, d := date.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dateKey := day.Format(model.DateLayout)
	stamp := day.UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Panchang " + dateKey)
	cal.SetXWRTimezone(loc.String())

	for _, iv := range s.Pachhakkhan {
		ev := cal.AddEvent(exportUID(dateKey, "pachhakkhan", iv.Label))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(iv.Label)
		ev.SetStartAt(iv.StartMinute.On(day, loc))
		ev.SetEndAt(iv.EndMinute.On(day, loc))
		ev.SetProperty(ical.ComponentPropertyCategories, "PACHHAKKHAN")
	}

	addSlots(cal, day, loc, dateKey, stamp, panchang.SlotDay, s.Choghadiya.Day)
	addSlots(cal, day, loc, dateKey, stamp, panchang.SlotNight, s.Choghadiya.Night)

	for i, e := range events {
		ev := cal.AddEvent(exportUID(dateKey, string(e.Type), fmt.Sprintf("%d:%s:%s", i, e.Title, e.UID)))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(e.Title)
		if e.Detail != "" {
			ev.SetDescription(e.Detail)
		}
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetProperty(ical.ComponentPropertyCategories, string(e.Type))
	}

	return []byte(cal.Serialize()), nil
}

func addSlots(cal *ical.Calendar, day time.Time, loc *time.Location, dateKey string, stamp time.Time, kind panchang.SlotType, slots []panchang.ChoghadiyaSlot) {
	offset := 0
	prev := panchang.TimeOfDay(-1)
	for _, slot := range slots {
		if slot.Unparseable {
			continue
		}
		if prev >= 0 && slot.Range.Start < prev {
			offset = 1
		}
		prev = slot.Range.Start

		startDay := day.AddDate(0, 0, offset)
		start := slot.Range.Start.On(startDay, loc)
		end := slot.Range.End.On(startDay, loc)
		if slot.Range.Wraps() {
			end = slot.Range.End.On(startDay.AddDate(0, 0, 1), loc)
		}

		ev := cal.AddEvent(exportUID(dateKey, "choghadiya-"+string(kind), fmt.Sprintf("%d", slot.Sequence)))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf("%s (%s)", slot.Label, slot.Category))
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetProperty(ical.ComponentPropertyCategories, "CHOGHADIYA")
	}
}

func exportUID(dateKey, kind, name string) string {
	return uuid.NewSHA1(exportNamespace, []byte(dateKey+"|"+kind+"|"+name)).String() + "@jaincal"
}
