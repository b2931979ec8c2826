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

	"analytics-pulse/internal/observability/metrics"
	"analytics-pulse/internal/report/application"
	reportdoc "analytics-pulse/internal/report/domain"
	"analytics-pulse/internal/slack"
)

const defaultRunTimeout = 60 * time.Second

const slashUsage = "Usage: `/report [daily|weekly|biweekly|monthly|custom <days>]`\n" +
	"`daily` covers the last day, `weekly` the last 7 days, `biweekly` 14, `monthly` 30.\n" +
	"`custom <days>` covers the last 1 to 90 days.\n" +
	"The report is posted to the analytics channel when it is ready."

// ResponsePoster sends the follow-up message to a slash-command response URL.
type ResponsePoster func(ctx context.Context, responseURL, text string) error

// SlashHandler serves the /report slash command. Slack requires an
// acknowledgement within three seconds, so generation runs in the background
// and the outcome is posted to the command's response URL.
type SlashHandler struct {
	generator  *application.Generator
	renderer   *slack.Renderer
	notifier   Notifier
	poster     ResponsePoster
	logger     *log.Logger
	runTimeout time.Duration
	afterRun   func()
}

// SlashOption configures the slash handler.
type SlashOption func(*SlashHandler)

// WithRunTimeout bounds the background generation run.
func WithRunTimeout(timeout time.Duration) SlashOption {
	return func(h *SlashHandler) {
		if timeout > 0 {
			h.runTimeout = timeout
		}
	}
}

// WithResponsePoster overrides how follow-up messages reach the response URL.
func WithResponsePoster(poster ResponsePoster) SlashOption {
	return func(h *SlashHandler) {
		if poster != nil {
			h.poster = poster
		}
	}
}

// WithAfterRun registers a hook invoked when a background run finishes.
func WithAfterRun(hook func()) SlashOption {
	return func(h *SlashHandler) { h.afterRun = hook }
}

// NewSlashHandler constructs a slash-command handler.
func NewSlashHandler(generator *application.Generator, renderer *slack.Renderer, notifier Notifier, logger *log.Logger, opts ...SlashOption) (*SlashHandler, error) {
	if generator == nil {
		return nil, errors.New("slash handler: nil generator")
	}
	if renderer == nil {
		return nil, errors.New("slash handler: nil renderer")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &SlashHandler{
		generator:  generator,
		renderer:   renderer,
		notifier:   notifier,
		poster:     slack.PostResponse,
		logger:     logger,
		runTimeout: defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

type slashCommand struct {
	period      reportdoc.Period
	days        int
	responseURL string
	userName    string
}

// ServeHTTP handles POST /slack/command.
func (h *SlashHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostFormValue("text"))
	cmd, help, err := parseSlashText(text)
	if err != nil {
		metrics.IncSlashCommand("invalid")
		respondEphemeral(w, err.Error()+"\n"+slashUsage)
		return
	}
	if help {
		metrics.IncSlashCommand("help")
		respondEphemeral(w, slashUsage)
		return
	}
	metrics.IncSlashCommand("report")
	cmd.responseURL = r.PostFormValue("response_url")
	cmd.userName = r.PostFormValue("user_name")

	// Ack now, generate in the background.
	go h.run(cmd)
	respondEphemeral(w, fmt.Sprintf("Generating the %s report, it will be posted shortly.", cmd.period.Label()))
}

func (h *SlashHandler) run(cmd slashCommand) {
	defer func() {
		if h.afterRun != nil {
			h.afterRun()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
	defer cancel()

	rpt := h.generator.Generate(ctx, application.Request{Period: cmd.period, Days: cmd.days})

	delivered := false
	if h.notifier != nil {
		blocks := h.renderer.RenderReport(rpt)
		if err := h.notifier.Deliver(ctx, h.renderer.FallbackText(rpt), blocks); err != nil {
			metrics.IncSlackDelivery(metrics.ResultError)
			h.logger.Printf("slash command delivery failed: %v", err)
		} else {
			metrics.IncSlackDelivery(metrics.ResultSuccess)
			delivered = true
		}
	}

	if cmd.responseURL == "" {
		return
	}
	message := fmt.Sprintf("%s report posted to the analytics channel.", rpt.Period.Label())
	if !delivered {
		message = fmt.Sprintf("%s report was generated but could not be posted to the channel.", rpt.Period.Label())
	}
	if rpt.Error != "" {
		message += " Some data could not be retrieved."
	}
	if err := h.poster(ctx, cmd.responseURL, message); err != nil {
		h.logger.Printf("slash command response failed for %s: %v", cmd.userName, err)
	}
}

// parseSlashText maps the command text to a report request. Empty text means
// a daily report; "help" asks for usage.
func parseSlashText(text string) (slashCommand, bool, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return slashCommand{period: reportdoc.PeriodDaily}, false, nil
	}
	if fields[0] == "help" {
		return slashCommand{}, true, nil
	}

	period, ok := reportdoc.ParsePeriod(fields[0])
	if !ok {
		return slashCommand{}, false, fmt.Errorf("unknown report type %q.", fields[0])
	}
	if period != reportdoc.PeriodCustom {
		return slashCommand{period: period}, false, nil
	}

	if len(fields) < 2 {
		return slashCommand{}, false, errors.New("custom reports need a day count.")
	}
	days, err := strconv.Atoi(fields[1])
	if err != nil || days < minCustomDays || days > maxCustomDays {
		return slashCommand{}, false, fmt.Errorf("day count must be between %d and %d.", minCustomDays, maxCustomDays)
	}
	return slashCommand{period: reportdoc.PeriodCustom, days: days}, false, nil
}

func respondEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}
