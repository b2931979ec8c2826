package analytics

import (
	"context"
	"errors"
	"time"
)

// Query units and kinds understood by sources.
const (
	UnitDay = "day"

	KindGeneral = "general"
	KindUnique  = "unique"
)

// ErrUnavailable marks a source that could not be reached at all.
var ErrUnavailable = errors.New("analytics: source unavailable")

// Segmentation holds per-day, per-segment counts for one event. Days are
// calendar date strings, segments default to "all" for unsegmented queries.
type Segmentation struct {
	ByDay map[string]map[string]int64
}

// Total sums every count in the segmentation.
func (s *Segmentation) Total() int64 {
	if s == nil {
		return 0
	}
	var total int64
	for _, segments := range s.ByDay {
		for _, count := range segments {
			total += count
		}
	}
	return total
}

// DayTotals collapses segments into one count per day.
func (s *Segmentation) DayTotals() map[string]int64 {
	if s == nil || len(s.ByDay) == 0 {
		return nil
	}
	totals := make(map[string]int64, len(s.ByDay))
	for day, segments := range s.ByDay {
		for _, count := range segments {
			totals[day] += count
		}
	}
	return totals
}

// RawEvent is a single exported event record.
type RawEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Source queries event counts from an analytics backend. Every method
// degrades to an explicit error instead of panicking; callers rely on
// per-call isolation.
type Source interface {
	// QuerySegmentation returns counts for one event bucketed by day and
	// segment over the inclusive date range.
	QuerySegmentation(ctx context.Context, event string, from, to time.Time, unit, kind string) (*Segmentation, error)
	// QueryUniqueCount returns unique-actor counts for one event.
	QueryUniqueCount(ctx context.Context, event string, from, to time.Time) (*Segmentation, error)
	// ExportRawEvents returns up to limit raw event records in the range.
	ExportRawEvents(ctx context.Context, from, to time.Time, limit int) ([]RawEvent, error)
}
