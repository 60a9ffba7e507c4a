package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jaincal/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Repository is the data access contract of the calendar store.
type Repository interface {
	// Calendar rows.
	GetDay(ctx context.Context, date time.Time) (*model.CalendarDay, error)
	ListDays(ctx context.Context, from, to time.Time) ([]model.CalendarDay, error)
	UpsertDays(ctx context.Context, days []model.CalendarDay) error

	// Kalyanak reference table.
	ListKalyanaks(ctx context.Context, jainMonth, paksha string, tithi int) ([]model.Kalyanak, error)
	UpsertKalyanaks(ctx context.Context, ks []model.Kalyanak) error

	// Community events. ListEventsOn returns the non-recurring events of the
	// local date of day; recurring ones are expanded by the caller.
	ListEventsOn(ctx context.Context, day time.Time, loc *time.Location) ([]model.Event, error)
	ListRecurringEvents(ctx context.Context) ([]model.Event, error)
	UpsertEvents(ctx context.Context, events []model.Event) error
}

// mysqlRepository implements Repository with MySQL/MariaDB.
type mysqlRepository struct {
	db *sql.DB
}

// NewRepository creates a Repository backed by db.
func NewRepository(db *sql.DB) Repository {
	return &mysqlRepository{db: db}
}

const dayColumns = `gregorian_date, jain_date, jain_month, paksha, tithi,
	is_kshay, kshay_tithi, is_holiday, holiday_name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDay(s rowScanner) (model.CalendarDay, error) {
	var d model.CalendarDay
	err := s.Scan(&d.GregorianDate, &d.JainDate, &d.JainMonth, &d.Paksha, &d.Tithi,
		&d.IsKshay, &d.KshayTithi, &d.IsHoliday, &d.HolidayName)
	return d, err
}

// GetDay returns the calendar row of date, or ErrNotFound.
func (r *mysqlRepository) GetDay(ctx context.Context, date time.Time) (*model.CalendarDay, error) {
	query := `SELECT ` + dayColumns + ` FROM calendar_days WHERE gregorian_date = ?`

	d, err := scanDay(r.db.QueryRowContext(ctx, query, date.Format(model.DateLayout)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting calendar day: %w", err)
	}
	return &d, nil
}

// ListDays returns the calendar rows from from through to, inclusive,
// ordered by date.
func (r *mysqlRepository) ListDays(ctx context.Context, from, to time.Time) ([]model.CalendarDay, error) {
	query := `SELECT ` + dayColumns + ` FROM calendar_days
	          WHERE gregorian_date BETWEEN ? AND ? ORDER BY gregorian_date`

	rows, err := r.db.QueryContext(ctx, query, from.Format(model.DateLayout), to.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing calendar days: %w", err)
	}
	defer rows.Close()

	days := make([]model.CalendarDay, 0, 31)
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// UpsertDays inserts or replaces calendar rows in a single transaction.
func (r *mysqlRepository) UpsertDays(ctx context.Context, days []model.CalendarDay) error {
	if len(days) == 0 {
		return nil
	}
	query := `INSERT INTO calendar_days (` + dayColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              jain_date = VALUES(jain_date), jain_month = VALUES(jain_month),
	              paksha = VALUES(paksha), tithi = VALUES(tithi),
	              is_kshay = VALUES(is_kshay), kshay_tithi = VALUES(kshay_tithi),
	              is_holiday = VALUES(is_holiday), holiday_name = VALUES(holiday_name)`

	return r.inTx(ctx, "upserting calendar days", func(tx *sql.Tx) error {
		for _, d := range days {
			if _, err := tx.ExecContext(ctx, query,
				d.Date(), d.JainDate, d.JainMonth, d.Paksha, d.Tithi,
				d.IsKshay, d.KshayTithi, d.IsHoliday, d.HolidayName,
			); err != nil {
				return fmt.Errorf("day %s: %w", d.Date(), err)
			}
		}
		return nil
	})
}

// ListKalyanaks returns the Kalyanaks falling on a Jain date.
func (r *mysqlRepository) ListKalyanaks(ctx context.Context, jainMonth, paksha string, tithi int) ([]model.Kalyanak, error) {
	query := `SELECT id, tirthankar, kalyanak, jain_month, paksha, tithi
	          FROM kalyanaks WHERE jain_month = ? AND paksha = ? AND tithi = ?
	          ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, jainMonth, paksha, tithi)
	if err != nil {
		return nil, fmt.Errorf("listing kalyanaks: %w", err)
	}
	defer rows.Close()

	var out []model.Kalyanak
	for rows.Next() {
		var k model.Kalyanak
		if err := rows.Scan(&k.ID, &k.Tirthankar, &k.Kalyanak, &k.JainMonth, &k.Paksha, &k.Tithi); err != nil {
			return nil, fmt.Errorf("scanning kalyanak: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// UpsertKalyanaks inserts or replaces Kalyanak rows by ID.
func (r *mysqlRepository) UpsertKalyanaks(ctx context.Context, ks []model.Kalyanak) error {
	if len(ks) == 0 {
		return nil
	}
	query := `INSERT INTO kalyanaks (id, tirthankar, kalyanak, jain_month, paksha, tithi)
	          VALUES (?, ?, ?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              tirthankar = VALUES(tirthankar), kalyanak = VALUES(kalyanak),
	              jain_month = VALUES(jain_month), paksha = VALUES(paksha), tithi = VALUES(tithi)`

	return r.inTx(ctx, "upserting kalyanaks", func(tx *sql.Tx) error {
		for _, k := range ks {
			if _, err := tx.ExecContext(ctx, query, k.ID, k.Tirthankar, k.Kalyanak, k.JainMonth, k.Paksha, k.Tithi); err != nil {
				return fmt.Errorf("kalyanak %d: %w", k.ID, err)
			}
		}
		return nil
	})
}

const eventColumns = `id, source_id, uid, title, description, starts_on, rrule, all_day`

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.SourceID, &e.UID, &e.Title, &e.Description, &e.StartsOn, &e.RRule, &e.AllDay); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.StartsOn = e.StartsOn.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEventsOn returns the non-recurring events of the local date of day.
// All-day events are stored at UTC midnight of their date; timed events
// match when they start within the local day.
func (r *mysqlRepository) ListEventsOn(ctx context.Context, day time.Time, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.In(loc).Date()
	localStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	allDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	query := `SELECT ` + eventColumns + ` FROM events
	          WHERE rrule = '' AND (
	              (all_day = TRUE AND starts_on = ?) OR
	              (all_day = FALSE AND starts_on >= ? AND starts_on < ?))
	          ORDER BY all_day DESC, starts_on, title`

	rows, err := r.db.QueryContext(ctx, query, allDay, localStart.UTC(), localStart.AddDate(0, 0, 1).UTC())
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return scanEvents(rows)
}

// ListRecurringEvents returns every event carrying a recurrence rule.
func (r *mysqlRepository) ListRecurringEvents(ctx context.Context) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE rrule <> '' ORDER BY starts_on, title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing recurring events: %w", err)
	}
	return scanEvents(rows)
}

// UpsertEvents inserts or replaces events by (source_id, uid).
func (r *mysqlRepository) UpsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	query := `INSERT INTO events (` + eventColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE
	              title = VALUES(title), description = VALUES(description),
	              starts_on = VALUES(starts_on), rrule = VALUES(rrule), all_day = VALUES(all_day)`

	return r.inTx(ctx, "upserting events", func(tx *sql.Tx) error {
		for _, e := range events {
			if _, err := tx.ExecContext(ctx, query,
				e.ID, e.SourceID, e.UID, e.Title, e.Description,
				e.StartsOn.UTC(), strings.TrimSpace(e.RRule), e.AllDay,
			); err != nil {
				return fmt.Errorf("event %s/%s: %w", e.SourceID, e.UID, err)
			}
		}
		return nil
	})
}

func (r *mysqlRepository) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", what, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", what, err)
	}
	return nil
}
