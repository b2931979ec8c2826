package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"analytics-pulse/internal/analytics"
	"analytics-pulse/internal/report/application"
	report "analytics-pulse/internal/report/domain"
	reporthttp "analytics-pulse/internal/report/interfaces/http"
	"analytics-pulse/internal/slack"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// staticSource returns the same count for every segmentation query.
type staticSource struct {
	count  int64
	unique int64
	events []analytics.RawEvent
	err    error
}

func (s *staticSource) segmentation(from time.Time, total int64) *analytics.Segmentation {
	return &analytics.Segmentation{
		ByDay: map[string]map[string]int64{from.Format("2006-01-02"): {"all": total}},
	}
}

func (s *staticSource) QuerySegmentation(_ context.Context, _ string, from, _ time.Time, _, _ string) (*analytics.Segmentation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.segmentation(from, s.count), nil
}

func (s *staticSource) QueryUniqueCount(_ context.Context, _ string, from, _ time.Time) (*analytics.Segmentation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.segmentation(from, s.unique), nil
}

func (s *staticSource) ExportRawEvents(context.Context, time.Time, time.Time, int) ([]analytics.RawEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

// recordingNotifier captures deliveries for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	fallback string
	blocks   []slack.Block
	calls    int
	err      error
}

func (n *recordingNotifier) Deliver(_ context.Context, fallback string, blocks []slack.Block) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.fallback = fallback
	n.blocks = blocks
	return n.err
}

func (n *recordingNotifier) snapshot() (int, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, n.fallback
}

var handlerTestNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newHandlerGenerator(t *testing.T, source analytics.Source) *application.Generator {
	t.Helper()
	generator, err := application.NewGenerator(source,
		application.WithClock(fixedClock{now: handlerTestNow}),
		application.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return generator
}

func newReportHandler(t *testing.T, source analytics.Source, notifier reporthttp.Notifier) *reporthttp.ReportHandler {
	t.Helper()
	handler, err := reporthttp.NewReportHandler(
		newHandlerGenerator(t, source),
		slack.NewRenderer("Acme"),
		notifier,
		log.New(io.Discard, "", 0),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestReportHandler_JSON(t *testing.T) {
	source := &staticSource{count: 10, unique: 4, events: []analytics.RawEvent{{Event: "Sign Up"}}}
	notifier := &recordingNotifier{}
	handler := newReportHandler(t, source, notifier)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?period=weekly", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var rpt report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if rpt.Period != report.PeriodWeekly {
		t.Fatalf("unexpected period %q", rpt.Period)
	}
	if rpt.FromDate != "2026-03-03" || rpt.ToDate != "2026-03-10" {
		t.Fatalf("unexpected window: %s..%s", rpt.FromDate, rpt.ToDate)
	}
	if rpt.SlackSent == nil || !*rpt.SlackSent {
		t.Fatalf("expected slack_sent=true, got %+v", rpt.SlackSent)
	}
	if calls, _ := notifier.snapshot(); calls != 1 {
		t.Fatalf("expected one delivery, got %d", calls)
	}
}

func TestReportHandler_SendSlackDisabled(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := newReportHandler(t, &staticSource{count: 1}, notifier)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?send_slack=false", nil))

	var rpt report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rpt.SlackSent != nil {
		t.Fatalf("slack_sent should be omitted, got %+v", rpt.SlackSent)
	}
	if calls, _ := notifier.snapshot(); calls != 0 {
		t.Fatalf("expected no deliveries, got %d", calls)
	}
}

func TestReportHandler_BadInputs(t *testing.T) {
	handler := newReportHandler(t, &staticSource{}, nil)

	cases := []struct {
		name string
		url  string
	}{
		{"unknown period", "/api/v1/reports?period=quarterly"},
		{"days too small", "/api/v1/reports?days=0"},
		{"days too large", "/api/v1/reports?days=91"},
		{"days not a number", "/api/v1/reports?days=soon"},
		{"bad from date", "/api/v1/reports?from_date=03-10-2026"},
		{"unknown format", "/api/v1/reports?format=csv&send_slack=false"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestReportHandler_MethodNotAllowed(t *testing.T) {
	handler := newReportHandler(t, &staticSource{}, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/reports", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestReportHandler_CustomEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := newReportHandler(t, &staticSource{count: 12}, notifier)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?events=Checkout,%20Sign%20Up&days=7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var custom application.CustomReport
	if err := json.Unmarshal(rec.Body.Bytes(), &custom); err != nil {
		t.Fatalf("unmarshal custom report: %v", err)
	}
	if len(custom.Events) != 2 {
		t.Fatalf("expected 2 events, got %+v", custom.Events)
	}
	if custom.Events["Checkout"].Total != 12 {
		t.Fatalf("unexpected checkout total: %+v", custom.Events["Checkout"])
	}
	if calls, _ := notifier.snapshot(); calls != 0 {
		t.Fatalf("custom reports should not be delivered to slack, got %d calls", calls)
	}
}

func TestReportHandler_XLSXExport(t *testing.T) {
	handler := newReportHandler(t, &staticSource{count: 3}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?format=xlsx&send_slack=false", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty workbook")
	}
}

func TestReportHandler_PDFExport(t *testing.T) {
	handler := newReportHandler(t, &staticSource{count: 3}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports?format=pdf&send_slack=false", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatal("expected a PDF payload")
	}
}

func TestReportHandler_DeliveryFailureReported(t *testing.T) {
	notifier := &recordingNotifier{err: context.DeadlineExceeded}
	handler := newReportHandler(t, &staticSource{count: 1}, notifier)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))

	var rpt report.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rpt.SlackSent == nil || *rpt.SlackSent {
		t.Fatalf("expected slack_sent=false, got %+v", rpt.SlackSent)
	}
}
