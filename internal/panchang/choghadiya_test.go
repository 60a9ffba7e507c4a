package panchang

import "testing"

func TestClassifySlot(t *testing.T) {
	cases := []struct {
		label string
		want  Category
	}{
		{"Amrut", Auspicious},
		{"AMRIT", Auspicious},
		{"Shubh", Auspicious},
		{"Chal", Auspicious},
		{"Labh", Auspicious},
		{"Lābh", Auspicious},
		{"Amrut (Best)", Auspicious},
		{"Udveg", Inauspicious},
		{"Rog", Inauspicious},
		{"Kaal", Inauspicious},
		{"", Inauspicious},
		{"अमृत", Auspicious},
		{"शुभ", Auspicious},
		{"चल", Auspicious},
		{"लाभ", Auspicious},
		{"उद्वेग", Inauspicious},
		{"रोग", Inauspicious},
		{"काल", Inauspicious},
		{"અમૃત", Auspicious},
		{"શુભ", Auspicious},
		{"ચલ", Auspicious},
		{"લાભ", Auspicious},
		{"ઉદ્વેગ", Inauspicious},
		{"રોગ", Inauspicious},
		{"કાળ", Inauspicious},
	}
	for _, tc := range cases {
		if got := ClassifySlot(tc.label); got != tc.want {
			t.Errorf("ClassifySlot(%q) = %s, want %s", tc.label, got, tc.want)
		}
	}
}

func TestBuildDayAndNight(t *testing.T) {
	raw := []RawSlot{
		{Type: SlotNight, Sequence: 2, Name: "Kaal", Time: "19:30-21:00"},
		{Type: SlotDay, Sequence: 1, Name: "Udveg", Time: "06:00-07:30"},
		{Type: SlotNight, Sequence: 1, Name: "Shubh", Time: "18:00-19:30"},
		{Type: "Day", Sequence: 2, Name: "Chal", Time: "07:30-09:00"},
		{Type: SlotNight, Sequence: 8, Name: "Labh", Time: "04:30-bad"},
		{Type: "dusk", Sequence: 1, Name: "Amrut", Time: "18:00-18:10"},
	}
	got := BuildDayAndNight(raw)

	if len(got.Day) != 2 || len(got.Night) != 3 {
		t.Fatalf("unexpected partition: day=%d night=%d", len(got.Day), len(got.Night))
	}
	// Delivery order is preserved; no re-sorting by sequence.
	if got.Night[0].Sequence != 2 || got.Night[1].Sequence != 1 {
		t.Fatalf("night order changed: %+v", got.Night)
	}
	if got.Day[1].Category != Auspicious || got.Day[0].Category != Inauspicious {
		t.Fatalf("unexpected categories: %+v", got.Day)
	}
	if got.Day[0].Range != (Range{Start: 360, End: 450}) {
		t.Fatalf("unexpected range: %+v", got.Day[0].Range)
	}
	if !got.Night[2].Unparseable {
		t.Fatal("malformed range must be marked unparseable")
	}

	ranges := SlotRanges(got.Night)
	if len(ranges) != len(got.Night) {
		t.Fatalf("ranges not aligned with slots")
	}
	for now := TimeOfDay(0); now < MinutesPerDay; now++ {
		if ranges[2].Contains(now) {
			t.Fatalf("unparseable slot matched minute %s", now)
		}
	}
}

func TestBuildDayAndNightEmpty(t *testing.T) {
	got := BuildDayAndNight(nil)
	if got.Day == nil || got.Night == nil {
		t.Fatal("expected non-nil empty sequences")
	}
	if len(got.Day) != 0 || len(got.Night) != 0 {
		t.Fatal("expected empty sequences")
	}
}
