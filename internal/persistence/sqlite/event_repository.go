package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/daygrid/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

// CreateEvent inserts a new event into the database.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO events (id, title, start_at, end_at, color, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.Start.UTC().Format(time.RFC3339),
		event.End.UTC().Format(time.RFC3339),
		nullableString(event.Color),
		nullableString(event.Notes),
	)
	if err != nil {
		return mapEventError(err)
	}

	return nil
}

// UpdateEvent replaces an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE events
		SET title = ?, start_at = ?, end_at = ?, color = ?, notes = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		event.Title,
		event.Start.UTC().Format(time.RFC3339),
		event.End.UTC().Format(time.RFC3339),
		nullableString(event.Color),
		nullableString(event.Notes),
		event.ID,
	)
	if err != nil {
		return mapEventError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, title, start_at, end_at, color, notes
		FROM events
		WHERE id = ?
	`

	row := r.pool.db.QueryRowContext(ctx, query, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, err
	}

	return event, nil
}

// ListEvents returns events matching the filter ordered by start time, ties
// broken by ID.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapEventError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, mapEventError(err)
	}

	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return mapEventError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// buildListQuery builds the SQL query for listing events with the overlap
// filter. RFC3339 UTC strings order the same as the instants they encode, so
// the comparisons run directly on the stored text.
func buildListQuery(filter persistence.EventFilter) (string, []interface{}) {
	query := `
		SELECT id, title, start_at, end_at, color, notes
		FROM events
	`

	var conditions []string
	var args []interface{}

	if filter.OverlapsStart != nil {
		conditions = append(conditions, "end_at > ?")
		args = append(args, filter.OverlapsStart.UTC().Format(time.RFC3339))
	}
	if filter.OverlapsEnd != nil {
		conditions = append(conditions, "start_at < ?")
		args = append(args, filter.OverlapsEnd.UTC().Format(time.RFC3339))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY start_at ASC, id ASC"

	return query, args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var startStr, endStr string
	var color, notes sql.NullString

	if err := row.Scan(&event.ID, &event.Title, &startStr, &endStr, &color, &notes); err != nil {
		return persistence.Event{}, err
	}

	var err error
	if event.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: parse start_at: %w", err)
	}
	if event.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Event{}, fmt.Errorf("sqlite: parse end_at: %w", err)
	}
	event.Start = event.Start.UTC()
	event.End = event.End.UTC()

	if color.Valid {
		event.Color = &color.String
	}
	if notes.Valid {
		event.Notes = &notes.String
	}

	return event, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// mapEventError maps SQLite errors to persistence layer errors.
func mapEventError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	errStr := err.Error()
	if containsAny(errStr, "UNIQUE constraint failed", "PRIMARY KEY") {
		return persistence.ErrDuplicate
	}
	if containsAny(errStr, "CHECK constraint failed", "constraint failed") {
		return persistence.ErrConstraintViolation
	}

	return err
}
