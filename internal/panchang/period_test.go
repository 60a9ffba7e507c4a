package panchang

import (
	"math/rand"
	"testing"
)

func TestBuildPeriodsNavkarshiPorisiPurimaddha(t *testing.T) {
	instants := []NamedInstant{
		{Name: "Navkarshi", Time: 310},
		{Name: "Porisi", Time: 370},
		{Name: "Purimaddha", Time: 430},
	}
	got := BuildPeriods(instants, 1080)

	wantDur := []int{60, 60, 650}
	if len(got) != len(wantDur) {
		t.Fatalf("expected %d intervals, got %d", len(wantDur), len(got))
	}
	for i, iv := range got {
		if iv.DurationMinutes != wantDur[i] {
			t.Errorf("interval %d duration = %d, want %d", i, iv.DurationMinutes, wantDur[i])
		}
	}
	if !got[0].IsEdge || !got[2].IsEdge {
		t.Fatalf("first and last intervals must be edges: %+v", got)
	}
	if got[1].IsEdge {
		t.Fatalf("middle interval must not be an edge")
	}
	if got[2].EndMinute != 1080 {
		t.Fatalf("last interval must end at day end, got %d", got[2].EndMinute)
	}
}

func TestBuildPeriodsSortsStablyAndDropsDegenerate(t *testing.T) {
	instants := []NamedInstant{
		{Name: "Sadh Porisi", Time: 500},
		{Name: "Navkarshi", Time: 310},
		{Name: "Tie A", Time: 400},
		{Name: "Tie B", Time: 400},
	}
	got := BuildPeriods(instants, 1080)

	// Tie A has zero length (ends where Tie B starts) and is dropped.
	wantLabels := []string{"Navkarshi", "Tie B", "Sadh Porisi"}
	if len(got) != len(wantLabels) {
		t.Fatalf("expected %d intervals, got %+v", len(wantLabels), got)
	}
	for i, iv := range got {
		if iv.Label != wantLabels[i] {
			t.Errorf("interval %d label = %q, want %q", i, iv.Label, wantLabels[i])
		}
	}
	if got[0].EndMinute != 400 || got[1].StartMinute != 400 {
		t.Fatalf("intervals must stay contiguous: %+v", got)
	}
	if instants[0].Name != "Sadh Porisi" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestBuildPeriodsDropsTrailingIntervalPastDayEnd(t *testing.T) {
	instants := []NamedInstant{
		{Name: "Navkarshi", Time: 310},
		{Name: "Chauvihar", Time: 1100},
	}
	got := BuildPeriods(instants, 1080)
	if len(got) != 1 {
		t.Fatalf("expected trailing interval to be dropped, got %+v", got)
	}
	if got[0].Label != "Navkarshi" || got[0].DurationMinutes != 790 {
		t.Fatalf("unexpected interval %+v", got[0])
	}
	if !got[0].IsEdge {
		t.Fatal("single remaining interval is an edge")
	}
}

func TestBuildPeriodsEmpty(t *testing.T) {
	got := BuildPeriods(nil, 1080)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestBuildPeriodsInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for run := 0; run < 500; run++ {
		n := rnd.Intn(8)
		instants := make([]NamedInstant, n)
		minTime, maxTime := MinutesPerDay, 0
		for i := range instants {
			tm := rnd.Intn(MinutesPerDay)
			instants[i] = NamedInstant{Name: "p", Time: TimeOfDay(tm)}
			minTime = min(minTime, tm)
			maxTime = max(maxTime, tm)
		}
		dayEnd := TimeOfDay(maxTime + rnd.Intn(MinutesPerDay-maxTime))

		got := BuildPeriods(instants, dayEnd)
		sum := 0
		for i, iv := range got {
			if iv.DurationMinutes <= 0 {
				t.Fatalf("run %d: non-positive duration %+v", run, iv)
			}
			if i > 0 && got[i-1].EndMinute != iv.StartMinute {
				t.Fatalf("run %d: intervals not contiguous: %+v", run, got)
			}
			sum += iv.DurationMinutes
		}
		if n > 0 && sum > int(dayEnd)-minTime {
			t.Fatalf("run %d: total %d exceeds span %d", run, sum, int(dayEnd)-minTime)
		}
	}
}
