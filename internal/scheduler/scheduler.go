package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"analytics-pulse/internal/observability/metrics"
	"analytics-pulse/internal/report/application"
	report "analytics-pulse/internal/report/domain"
	"analytics-pulse/internal/slack"
)

// Entry is one scheduled report. At is a UTC wall-clock time in "15:04"
// format; Weekday applies to weekly and biweekly entries, DayOfMonth to
// monthly entries.
type Entry struct {
	Period     report.Period
	At         string
	Weekday    time.Weekday
	DayOfMonth int
}

// DefaultEntries mirrors the standing report schedule: a daily report every
// morning, a weekly report on Mondays and a biweekly report on alternating
// Mondays.
func DefaultEntries() []Entry {
	return []Entry{
		{Period: report.PeriodDaily, At: "08:00"},
		{Period: report.PeriodWeekly, At: "08:30", Weekday: time.Monday},
		{Period: report.PeriodBiweekly, At: "09:00", Weekday: time.Monday},
	}
}

// Notifier delivers rendered report messages and error notices.
type Notifier interface {
	Deliver(ctx context.Context, fallback string, blocks []slack.Block) error
	DeliverError(ctx context.Context, source string, cause error) error
}

// Scheduler triggers report generation on schedule and delivers the results
// to Slack. It ticks every minute and fires entries whose wall-clock time
// matches; a run takes well under a minute so double fires do not occur.
type Scheduler struct {
	generator *application.Generator
	renderer  *slack.Renderer
	notifier  Notifier
	entries   []Entry
	logger    *log.Logger
}

// NewScheduler constructs a scheduler over the given entries.
func NewScheduler(generator *application.Generator, renderer *slack.Renderer, notifier Notifier, entries []Entry, logger *log.Logger) (*Scheduler, error) {
	if generator == nil {
		return nil, errors.New("scheduler: nil generator")
	}
	if renderer == nil {
		return nil, errors.New("scheduler: nil renderer")
	}
	if notifier == nil {
		return nil, errors.New("scheduler: nil notifier")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		generator: generator,
		renderer:  renderer,
		notifier:  notifier,
		entries:   entries,
		logger:    logger,
	}, nil
}

// Start begins the scheduler loop. It blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || len(s.entries) == 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, entry := range s.entries {
				if shouldRun(entry, now.UTC()) {
					s.runOnce(ctx, entry)
				}
			}
		}
	}
}

// shouldRun reports whether an entry fires at the given minute. Biweekly
// entries fire on even ISO weeks so consecutive fires stay 14 days apart.
func shouldRun(entry Entry, now time.Time) bool {
	hour, minute, err := parseAt(entry.At)
	if err != nil {
		return false
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false
	}
	switch entry.Period {
	case report.PeriodDaily:
		return true
	case report.PeriodWeekly:
		return now.Weekday() == entry.Weekday
	case report.PeriodBiweekly:
		if now.Weekday() != entry.Weekday {
			return false
		}
		_, week := now.ISOWeek()
		return week%2 == 0
	case report.PeriodMonthly:
		day := entry.DayOfMonth
		if day <= 0 {
			day = 1
		}
		return now.Day() == day
	default:
		return false
	}
}

func (s *Scheduler) runOnce(ctx context.Context, entry Entry) {
	s.logger.Printf("scheduled %s report starting", entry.Period)
	metrics.IncSchedulerRun(string(entry.Period))

	rpt := s.generator.Generate(ctx, application.Request{Period: entry.Period})
	blocks := s.renderer.RenderReport(rpt)
	if err := s.notifier.Deliver(ctx, s.renderer.FallbackText(rpt), blocks); err != nil {
		metrics.IncSlackDelivery(metrics.ResultError)
		s.logger.Printf("scheduled %s report delivery failed: %v", entry.Period, err)
		if notifyErr := s.notifier.DeliverError(ctx, string(entry.Period)+"-report", err); notifyErr != nil {
			s.logger.Printf("error notification failed: %v", notifyErr)
		}
		return
	}
	metrics.IncSlackDelivery(metrics.ResultSuccess)
	s.logger.Printf("scheduled %s report delivered", entry.Period)
}

func parseAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
