package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"analytics-pulse/internal/audit"
	"analytics-pulse/internal/auth"
	"analytics-pulse/internal/observability/metrics"
	"analytics-pulse/internal/report/application"
	reportdoc "analytics-pulse/internal/report/domain"
	"analytics-pulse/internal/report/interfaces"
	"analytics-pulse/internal/slack"
)

const (
	minCustomDays = 1
	maxCustomDays = 90
)

// Notifier delivers rendered reports to Slack. It is satisfied by the webhook
// client; handlers treat a nil notifier as Slack being unconfigured.
type Notifier interface {
	Deliver(ctx context.Context, fallback string, blocks []slack.Block) error
}

// ReportHandler serves on-demand report generation.
type ReportHandler struct {
	generator *application.Generator
	renderer  *slack.Renderer
	notifier  Notifier
	auditor   audit.Logger
	logger    *log.Logger
}

// ReportOption configures the report handler.
type ReportOption func(*ReportHandler)

// WithAuditLogger records on-demand generations in the audit log.
func WithAuditLogger(auditor audit.Logger) ReportOption {
	return func(h *ReportHandler) { h.auditor = auditor }
}

// NewReportHandler constructs a report handler. The notifier may be nil when
// no webhook is configured; send_slack requests then report slack_sent=false.
func NewReportHandler(generator *application.Generator, renderer *slack.Renderer, notifier Notifier, logger *log.Logger, opts ...ReportOption) (*ReportHandler, error) {
	if generator == nil {
		return nil, errors.New("report handler: nil generator")
	}
	if renderer == nil {
		return nil, errors.New("report handler: nil renderer")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &ReportHandler{generator: generator, renderer: renderer, notifier: notifier, logger: logger}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ServeHTTP handles GET and POST /api/v1/reports.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	from, err := parseDateQuery(query.Get("from_date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateQuery(query.Get("to_date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	days, err := parseDaysQuery(query.Get("days"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if events := query.Get("events"); events != "" {
		h.handleCustom(w, r, splitEvents(events), from, to, days)
		return
	}

	period := reportdoc.PeriodDaily
	if raw := query.Get("period"); raw != "" {
		parsed, ok := reportdoc.ParsePeriod(raw)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown period %q", raw), http.StatusBadRequest)
			return
		}
		period = parsed
	}
	if days > 0 {
		period = reportdoc.PeriodCustom
	}

	rpt := h.generator.Generate(r.Context(), application.Request{
		Period: period,
		From:   from,
		To:     to,
		Days:   days,
	})
	h.recordAudit(r, "report.generate", string(period))

	if sendSlack(query.Get("send_slack")) {
		sent := h.deliver(r, rpt)
		rpt.SlackSent = &sent
	}

	switch format := query.Get("format"); format {
	case "", "json":
		writeJSON(w, rpt)
	case "xlsx":
		started := time.Now()
		data, err := interfaces.BuildReportXLSX(rpt)
		if err != nil {
			metrics.ObserveReportExport("xlsx", metrics.ResultError, time.Since(started))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.ObserveReportExport("xlsx", metrics.ResultSuccess, time.Since(started))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", attachmentName(rpt, "xlsx"))
		_, _ = w.Write(data)
	case "pdf":
		started := time.Now()
		data, err := interfaces.BuildReportPDF(rpt)
		if err != nil {
			metrics.ObserveReportExport("pdf", metrics.ResultError, time.Since(started))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.ObserveReportExport("pdf", metrics.ResultSuccess, time.Since(started))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", attachmentName(rpt, "pdf"))
		_, _ = w.Write(data)
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

func (h *ReportHandler) handleCustom(w http.ResponseWriter, r *http.Request, events []string, from, to *time.Time, days int) {
	custom := h.generator.GenerateCustom(r.Context(), application.CustomRequest{
		Events: events,
		From:   from,
		To:     to,
		Days:   days,
	})
	h.recordAudit(r, "report.generate_custom", strings.Join(events, ","))
	writeJSON(w, custom)
}

func (h *ReportHandler) recordAudit(r *http.Request, action, resourceID string) {
	if h.auditor == nil {
		return
	}
	entry := audit.Entry{
		WorkspaceID:  auth.WorkspaceIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "report",
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Printf("audit log failed: %v", err)
	}
}

func (h *ReportHandler) deliver(r *http.Request, rpt *reportdoc.Report) bool {
	if h.notifier == nil {
		return false
	}
	blocks := h.renderer.RenderReport(rpt)
	if err := h.notifier.Deliver(r.Context(), h.renderer.FallbackText(rpt), blocks); err != nil {
		metrics.IncSlackDelivery(metrics.ResultError)
		h.logger.Printf("slack delivery failed: %v", err)
		return false
	}
	metrics.IncSlackDelivery(metrics.ResultSuccess)
	return true
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(reportdoc.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", value)
	}
	return &parsed, nil
}

func parseDaysQuery(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("days must be an integer, got %q", value)
	}
	if days < minCustomDays || days > maxCustomDays {
		return 0, fmt.Errorf("days must be between %d and %d", minCustomDays, maxCustomDays)
	}
	return days, nil
}

func splitEvents(raw string) []string {
	parts := strings.Split(raw, ",")
	events := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			events = append(events, trimmed)
		}
	}
	return events
}

// sendSlack defaults to true; only an explicit false-ish value disables it.
func sendSlack(value string) bool {
	switch strings.ToLower(value) {
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

func attachmentName(rpt *reportdoc.Report, ext string) string {
	return fmt.Sprintf(`attachment; filename="report_%s_%s.%s"`, rpt.Period, rpt.ToDate, ext)
}
