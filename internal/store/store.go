// Package store persists options, entity meta, calendars and bookings in
// SQLite. Store satisfies the store.Store contract used by the user field
// components.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fieldstore "github.com/goliatone/go-userfields/pkg/store"
)

const (
	kindCalendar = "calendar"
	kindBooking  = "booking"
)

// Calendar is a bookable calendar.
type Calendar struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Booking is a persisted booking with its original payload.
type Booking struct {
	ID         int64          `json:"id"`
	CalendarID int64          `json:"calendar_id"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  string         `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

var _ fieldstore.Store = (*Store)(nil)

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *Store) Option(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: option %q: %w", name, err)
	}
	return value, true, nil
}

func (s *Store) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, now(),
	)
	if err != nil {
		return fmt.Errorf("store: set option %q: %w", name, err)
	}
	return nil
}

func (s *Store) Meta(ctx context.Context, entityID int64, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entity_meta WHERE entity_id = ? AND meta_key = ?`,
		entityID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: meta %d/%q: %w", entityID, key, err)
	}
	return value, true, nil
}

func (s *Store) SetMeta(ctx context.Context, entityID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entity_meta (entity_id, meta_key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(entity_id, meta_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		entityID, key, value, now(),
	)
	if err != nil {
		return fmt.Errorf("store: set meta %d/%q: %w", entityID, key, err)
	}
	return nil
}

// CreateCalendar inserts a calendar and returns it.
func (s *Store) CreateCalendar(ctx context.Context, title string) (*Calendar, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (kind, title, created_at) VALUES (?, ?, ?)`,
		kindCalendar, title, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert calendar: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: last insert id: %w", err)
	}
	return &Calendar{ID: id, Title: title, CreatedAt: ts}, nil
}

// Calendar returns fieldstore.ErrNotFound for unknown ids.
func (s *Store) Calendar(ctx context.Context, id int64) (*Calendar, error) {
	c := &Calendar{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM entities WHERE id = ? AND kind = ?`,
		id, kindCalendar,
	).Scan(&c.ID, &c.Title, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: calendar %d: %w", id, fieldstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: calendar %d: %w", id, err)
	}
	return c, nil
}

// Calendars lists calendars in creation order.
func (s *Store) Calendars(ctx context.Context) ([]*Calendar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM entities WHERE kind = ? ORDER BY id`,
		kindCalendar,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list calendars: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Calendar
	for rows.Next() {
		c := &Calendar{}
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan calendar: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list calendars: %w", err)
	}
	return out, nil
}

// InsertBooking persists a booking against calendarID. The payload is stored
// as JSON; values that do not encode are rejected.
func (s *Store) InsertBooking(ctx context.Context, calendarID int64, payload map[string]any) (int64, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("store: encode booking: %w", err)
	}

	var calendar sql.NullInt64
	if calendarID > 0 {
		calendar = sql.NullInt64{Int64: calendarID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (kind, calendar_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		kindBooking, calendar, string(raw), now(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	return id, nil
}

// Booking returns fieldstore.ErrNotFound for unknown ids.
func (s *Store) Booking(ctx context.Context, id int64) (*Booking, error) {
	var (
		b        = &Booking{}
		calendar sql.NullInt64
		raw      string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, calendar_id, payload, created_at FROM entities WHERE id = ? AND kind = ?`,
		id, kindBooking,
	).Scan(&b.ID, &calendar, &raw, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: booking %d: %w", id, fieldstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: booking %d: %w", id, err)
	}
	b.CalendarID = calendar.Int64
	if err := json.Unmarshal([]byte(raw), &b.Payload); err != nil {
		return nil, fmt.Errorf("store: decode booking %d: %w", id, err)
	}
	return b, nil
}
