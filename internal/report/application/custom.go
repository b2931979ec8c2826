package application

import (
	"context"
	"time"

	"analytics-pulse/internal/analytics"
	report "analytics-pulse/internal/report/domain"
)

// EventResult is the per-event outcome of a custom report query. A failed
// query carries its error message and zero counts instead of failing the
// whole report.
type EventResult struct {
	Total int64            `json:"total"`
	ByDay map[string]int64 `json:"by_day,omitempty"`
	Error string           `json:"error,omitempty"`
}

// CustomReport is the document produced for caller-selected events. It has no
// insights or comparisons; callers asked for raw counts over a window.
type CustomReport struct {
	FromDate    string                 `json:"from_date"`
	ToDate      string                 `json:"to_date"`
	GeneratedAt time.Time              `json:"generated_at"`
	Events      map[string]EventResult `json:"events"`
}

// CustomRequest selects the events and window for a custom report.
type CustomRequest struct {
	Events []string
	From   *time.Time
	To     *time.Time
	Days   int
}

// GenerateCustom queries each requested event independently over the resolved
// window. Like Generate it never fails as a whole; per-event errors are
// recorded inline.
func (g *Generator) GenerateCustom(ctx context.Context, req CustomRequest) *CustomReport {
	window := report.ResolveWindow(report.PeriodCustom, req.From, req.To, req.Days, g.clock.Now())
	custom := &CustomReport{
		FromDate:    window.From.Format(report.DateLayout),
		ToDate:      window.To.Format(report.DateLayout),
		GeneratedAt: g.clock.Now().UTC(),
		Events:      make(map[string]EventResult, len(req.Events)),
	}

	for _, event := range req.Events {
		if event == "" {
			continue
		}
		seg, err := g.source.QuerySegmentation(ctx, event, window.From, window.To, analytics.UnitDay, analytics.KindGeneral)
		if err != nil {
			g.logger.Printf("custom event %q query failed: %v", event, err)
			custom.Events[event] = EventResult{Error: err.Error()}
			continue
		}
		custom.Events[event] = EventResult{Total: seg.Total(), ByDay: seg.DayTotals()}
	}
	return custom
}
