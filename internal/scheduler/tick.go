package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jaincal/internal/config"
	"jaincal/internal/content"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
	"jaincal/internal/panchang"
)

// DashboardLoader returns the dashboard of a query, cached or fetched.
type DashboardLoader interface {
	Load(ctx context.Context, q content.DashboardQuery) (*content.Dashboard, error)
}

// Transition is a change of the active Pachhakkhan interval or Choghadiya
// slot between two ticks.
type Transition struct {
	Window string // "pachhakkhan" or "choghadiya"
	From   string
	To     string
}

// Tick evaluates the current day once per activation. It remembers only the
// last selection, to report transitions; every pass starts from fresh input
// and a single sample of the clock.
type Tick struct {
	Dashboards DashboardLoader
	Location   config.LocationConfig
	Language   string
	Zone       *time.Location
	Now        func() time.Time

	// OnTransition, when set, runs after a pass that changed a selection,
	// e.g. to re-capture the widget.
	OnTransition func(ctx context.Context, s panchang.Snapshot) error

	mu     sync.Mutex
	last   panchang.Snapshot
	seen   bool
	labels map[string]string
}

// Run performs one pass and returns the transitions it observed. A failed
// dashboard load is logged and evaluated as missing data.
func (t *Tick) Run(ctx context.Context) ([]Transition, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	zone := t.Zone
	if zone == nil {
		zone = time.Local
	}
	at := now().In(zone)

	var in panchang.DayInput
	if t.Dashboards != nil {
		d, err := t.Dashboards.Load(ctx, content.DashboardQuery{
			Date:      at,
			Latitude:  t.Location.Latitude,
			Longitude: t.Location.Longitude,
			Language:  t.Language,
		})
		if err != nil {
			appLog.Error("tick: dashboard unavailable", err, "date", at.Format(model.DateLayout))
		}
		in = d.DayInput(t.Language)
	}

	s := panchang.Evaluate(in, panchang.FromTime(at))
	for _, w := range s.Warnings {
		appLog.Debug("tick: evaluation warning", "warning", w)
	}

	current := map[string]string{
		"pachhakkhan": pachhakkhanLabel(s),
		"choghadiya":  choghadiyaLabel(s),
	}

	t.mu.Lock()
	var changes []Transition
	if t.seen {
		for _, w := range []string{"pachhakkhan", "choghadiya"} {
			if t.labels[w] != current[w] {
				changes = append(changes, Transition{Window: w, From: t.labels[w], To: current[w]})
			}
		}
	}
	first := !t.seen
	t.last, t.seen, t.labels = s, true, current
	t.mu.Unlock()

	for _, c := range changes {
		appLog.Info("active window changed", "window", c.Window, "from", c.From, "to", c.To, "at", s.Now.String())
	}

	if t.OnTransition != nil && (first || len(changes) > 0) {
		if err := t.OnTransition(ctx, s); err != nil {
			return changes, fmt.Errorf("tick: on transition: %w", err)
		}
	}
	return changes, nil
}

// Last returns the snapshot of the most recent pass.
func (t *Tick) Last() (panchang.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.seen
}

// Job adapts Run to the scheduler.
func (t *Tick) Job(ctx context.Context) error {
	_, err := t.Run(ctx)
	return err
}

func pachhakkhanLabel(s panchang.Snapshot) string {
	if iv, ok := s.ActivePachhakkhanInterval(); ok {
		return iv.Label
	}
	return ""
}

func choghadiyaLabel(s panchang.Snapshot) string {
	if slot, ok := s.ActiveChoghadiyaSlot(); ok {
		return fmt.Sprintf("%s #%d %s", s.ActiveChoghadiya.Kind, slot.Sequence, slot.Label)
	}
	return ""
}
