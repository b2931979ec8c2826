package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"analytics-pulse/internal/analytics"
	"analytics-pulse/internal/observability/metrics"
	report "analytics-pulse/internal/report/domain"
)

const (
	defaultTopEventsLimit = 10
	defaultExportLimit    = 10000
)

// ErrSourceUnavailable marks an aggregation where every metric query failed,
// which is treated as the analytics source being down rather than a set of
// independent metric failures.
var ErrSourceUnavailable = errors.New("report: analytics source unavailable")

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Request selects the reporting window. Explicit From/To bounds win over
// Days, which wins over the period's fixed lookback.
type Request struct {
	Period report.Period
	From   *time.Time
	To     *time.Time
	Days   int
}

// Generator assembles report documents from an analytics source. Generate
// never returns an error and never panics; failures degrade into the report's
// error field so scheduled runs always produce a deliverable document.
type Generator struct {
	source         analytics.Source
	metricSet      MetricSet
	insightConfig  report.InsightConfig
	dashboardURL   string
	topEventsLimit int
	exportLimit    int
	clock          Clock
	logger         *log.Logger
}

// GeneratorOption configures the generator.
type GeneratorOption func(*Generator)

// WithMetricSet overrides the default metric catalog.
func WithMetricSet(set MetricSet) GeneratorOption {
	return func(g *Generator) {
		if len(set.Metrics) > 0 || len(set.ActiveUserEvents) > 0 {
			g.metricSet = set
		}
	}
}

// WithInsightConfig overrides the insight ordering and labels.
func WithInsightConfig(cfg report.InsightConfig) GeneratorOption {
	return func(g *Generator) { g.insightConfig = cfg }
}

// WithDashboardURL sets the dashboard link embedded in reports.
func WithDashboardURL(url string) GeneratorOption {
	return func(g *Generator) { g.dashboardURL = url }
}

// WithTopEventsLimit bounds the ranked top-event list.
func WithTopEventsLimit(limit int) GeneratorOption {
	return func(g *Generator) {
		if limit > 0 {
			g.topEventsLimit = limit
		}
	}
}

// WithExportLimit bounds the raw-event export used for top-event ranking.
func WithExportLimit(limit int) GeneratorOption {
	return func(g *Generator) {
		if limit > 0 {
			g.exportLimit = limit
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) GeneratorOption {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithLogger overrides the generator's logger.
func WithLogger(logger *log.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator constructs a generator over the given analytics source.
func NewGenerator(source analytics.Source, opts ...GeneratorOption) (*Generator, error) {
	if source == nil {
		return nil, errors.New("report: nil analytics source")
	}
	generator := &Generator{
		source:         source,
		metricSet:      DefaultMetricSet(),
		insightConfig:  report.DefaultInsightConfig(),
		topEventsLimit: defaultTopEventsLimit,
		exportLimit:    defaultExportLimit,
		clock:          systemClock{},
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(generator)
	}
	return generator, nil
}

// Generate assembles a full report for the requested window. It always
// returns a usable document: partial failures are recorded per report, a
// complete source outage sets the report error, and panics are converted into
// a degraded report instead of crashing a scheduled run.
func (g *Generator) Generate(ctx context.Context, req Request) (rpt *report.Report) {
	started := time.Now()
	window := report.ResolveWindow(req.Period, req.From, req.To, req.Days, g.clock.Now())
	rpt = g.newReport(req.Period, window)

	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("report generation panic: %v", r)
			rpt.Error = fmt.Sprintf("report generation failed: %v", r)
			rpt.Insights = append(rpt.Insights, fmt.Sprintf("Some data could not be retrieved: %s", rpt.Error))
		}
		result := metrics.ResultSuccess
		if rpt.Error != "" {
			result = metrics.ResultError
		}
		metrics.ObserveReportGenerate(string(req.Period), result, time.Since(started))
	}()

	totals, err := g.aggregate(ctx, window)
	if err != nil {
		rpt.Error = err.Error()
	}
	if label, value, ok := g.activeUsers(ctx, req.Period, window); ok {
		totals[label] = value
	}
	rpt.Metrics = totals

	rpt.TopEvents = g.topEvents(ctx, window)
	if rpt.Error == "" {
		rpt.Comparisons = g.comparisons(ctx, req.Period, window, totals)
	}
	rpt.Insights = report.GenerateInsights(rpt, g.insightConfig)
	if rpt.Error != "" {
		rpt.Insights = append(rpt.Insights, fmt.Sprintf("Some data could not be retrieved: %s", rpt.Error))
	}
	return rpt
}

func (g *Generator) newReport(period report.Period, window report.DateWindow) *report.Report {
	return &report.Report{
		Period:      period,
		FromDate:    window.From.Format(report.DateLayout),
		ToDate:      window.To.Format(report.DateLayout),
		GeneratedAt: g.clock.Now().UTC(),
		Metrics:     map[string]int64{},
		TopEvents:   []report.TopEvent{},
		Insights:    []string{},
		Comparisons: map[string]report.Comparison{},
		MixpanelURL: g.dashboardURL,
	}
}

// aggregate queries every catalog metric over the window. Individual query
// failures drop that metric and keep going; when every query fails the whole
// aggregation reports the source as unavailable. Zero totals are omitted.
func (g *Generator) aggregate(ctx context.Context, window report.DateWindow) (map[string]int64, error) {
	totals := make(map[string]int64, len(g.metricSet.Metrics))
	calls := 0
	failures := 0

	for _, metric := range g.metricSet.Metrics {
		calls++
		seg, err := g.source.QuerySegmentation(ctx, metric.Event, window.From, window.To, analytics.UnitDay, analytics.KindGeneral)
		if err != nil {
			failures++
			metrics.IncMetricQueryFailure(metric.Name)
			g.logger.Printf("metric %q query failed: %v", metric.Name, err)
			continue
		}
		if total := seg.Total(); total > 0 {
			totals[metric.Name] = total
		}
	}

	if calls > 0 && failures == calls {
		return totals, ErrSourceUnavailable
	}
	return totals, nil
}

// activeUsers walks the candidate event ladder and returns the period-scoped
// active-users metric from the first event with a non-zero unique count.
func (g *Generator) activeUsers(ctx context.Context, period report.Period, window report.DateWindow) (string, int64, bool) {
	for _, event := range g.metricSet.ActiveUserEvents {
		seg, err := g.source.QueryUniqueCount(ctx, event, window.From, window.To)
		if err != nil {
			g.logger.Printf("active users query for %q failed: %v", event, err)
			continue
		}
		if total := seg.Total(); total > 0 {
			return period.ActiveUsersLabel(), total, true
		}
	}
	return "", 0, false
}

func (g *Generator) topEvents(ctx context.Context, window report.DateWindow) []report.TopEvent {
	raw, err := g.source.ExportRawEvents(ctx, window.From, window.To, g.exportLimit)
	if err != nil {
		g.logger.Printf("raw event export failed: %v", err)
		return []report.TopEvent{}
	}
	names := make([]string, 0, len(raw))
	for _, event := range raw {
		names = append(names, event.Event)
	}
	return report.RankTopEvents(names, g.topEventsLimit)
}

// comparisons aggregates the preceding window of equal length and compares
// each current metric against it. When the previous aggregation fails
// entirely, comparisons are skipped rather than reported as universal growth.
func (g *Generator) comparisons(ctx context.Context, period report.Period, window report.DateWindow, current map[string]int64) map[string]report.Comparison {
	comparisons := map[string]report.Comparison{}
	if len(current) == 0 {
		return comparisons
	}

	prevWindow := report.PreviousWindow(window)
	previous, err := g.aggregate(ctx, prevWindow)
	if err != nil {
		g.logger.Printf("previous window aggregation failed, skipping comparisons: %v", err)
		return comparisons
	}
	if label, value, ok := g.activeUsers(ctx, period, prevWindow); ok {
		previous[label] = value
	}
	for name, value := range current {
		comparisons[name] = report.Compare(value, previous[name])
	}
	return comparisons
}
