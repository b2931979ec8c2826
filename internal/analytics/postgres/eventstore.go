package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"analytics-pulse/internal/analytics"
)

const defaultEventsTable = "product_events"

// EventStore is a Postgres-backed analytics source for first-party event
// data. It serves the same port as the Mixpanel client so deployments with a
// local event table can run reports without an external analytics account.
type EventStore struct {
	db    *sql.DB
	table string
}

// Option configures the event store.
type Option func(*EventStore)

// WithTable overrides the events table name.
func WithTable(table string) Option {
	return func(s *EventStore) {
		if s != nil && table != "" {
			s.table = table
		}
	}
}

// NewEventStore constructs an event store with the default table name.
func NewEventStore(db *sql.DB, opts ...Option) *EventStore {
	store := &EventStore{db: db, table: defaultEventsTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// QuerySegmentation implements analytics.Source. Counts are bucketed per day
// under the single "all" segment; kind=unique counts distinct actors.
func (s *EventStore) QuerySegmentation(ctx context.Context, event string, from, to time.Time, unit, kind string) (*analytics.Segmentation, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("event store: nil db")
	}
	if event == "" {
		return nil, errors.New("event store: empty event")
	}

	expr := "COUNT(*)"
	if kind == analytics.KindUnique {
		expr = "COUNT(DISTINCT actor_id)"
	}
	query := fmt.Sprintf(`
SELECT to_char(occurred_at::date, 'YYYY-MM-DD') AS day, %s
FROM %s
WHERE event_name = $1
	AND occurred_at::date >= $2::date
	AND occurred_at::date <= $3::date
GROUP BY day
ORDER BY day ASC`, expr, s.table)

	rows, err := s.db.QueryContext(ctx, query, event, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("event store query: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		byDay[day] = map[string]int64{"all": count}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &analytics.Segmentation{ByDay: byDay}, nil
}

// QueryUniqueCount implements analytics.Source.
func (s *EventStore) QueryUniqueCount(ctx context.Context, event string, from, to time.Time) (*analytics.Segmentation, error) {
	return s.QuerySegmentation(ctx, event, from, to, analytics.UnitDay, analytics.KindUnique)
}

// ExportRawEvents implements analytics.Source.
func (s *EventStore) ExportRawEvents(ctx context.Context, from, to time.Time, limit int) ([]analytics.RawEvent, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("event store: nil db")
	}
	if limit <= 0 {
		limit = 10000
	}

	query := fmt.Sprintf(`
SELECT event_name
FROM %s
WHERE occurred_at::date >= $1::date
	AND occurred_at::date <= $2::date
ORDER BY occurred_at ASC
LIMIT $3`, s.table)

	rows, err := s.db.QueryContext(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("event store export: %w", err)
	}
	defer rows.Close()

	var events []analytics.RawEvent
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		events = append(events, analytics.RawEvent{Event: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
