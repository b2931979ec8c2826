package http_test

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	reporthttp "analytics-pulse/internal/report/interfaces/http"
	"analytics-pulse/internal/slack"
)

type recordingPoster struct {
	mu   sync.Mutex
	url  string
	text string
}

func (p *recordingPoster) post(_ context.Context, responseURL, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = responseURL
	p.text = text
	return nil
}

func (p *recordingPoster) snapshot() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, p.text
}

func newSlashHandler(t *testing.T, notifier reporthttp.Notifier, poster reporthttp.ResponsePoster, done chan struct{}) *reporthttp.SlashHandler {
	t.Helper()
	opts := []reporthttp.SlashOption{
		reporthttp.WithResponsePoster(poster),
	}
	if done != nil {
		opts = append(opts, reporthttp.WithAfterRun(func() { close(done) }))
	}
	handler, err := reporthttp.NewSlashHandler(
		newHandlerGenerator(t, &staticSource{count: 5, unique: 2}),
		slack.NewRenderer("Acme"),
		notifier,
		log.New(io.Discard, "", 0),
		opts...,
	)
	if err != nil {
		t.Fatalf("new slash handler: %v", err)
	}
	return handler
}

func postCommand(handler http.Handler, text string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("command", "/report")
	form.Set("text", text)
	form.Set("response_url", "https://hooks.slack.test/response")
	form.Set("user_name", "jordan")

	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background run did not finish")
	}
}

func TestSlashHandler_GeneratesAndPosts(t *testing.T) {
	notifier := &recordingNotifier{}
	poster := &recordingPoster{}
	done := make(chan struct{})
	handler := newSlashHandler(t, notifier, poster.post, done)

	rec := postCommand(handler, "weekly")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Generating the Weekly report") {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}

	waitDone(t, done)
	calls, fallback := notifier.snapshot()
	if calls != 1 {
		t.Fatalf("expected one delivery, got %d", calls)
	}
	if fallback != "Acme Weekly Analytics Report" {
		t.Fatalf("unexpected fallback text %q", fallback)
	}
	postedURL, text := poster.snapshot()
	if postedURL != "https://hooks.slack.test/response" {
		t.Fatalf("unexpected response url %q", postedURL)
	}
	if !strings.Contains(text, "Weekly report posted") {
		t.Fatalf("unexpected follow-up %q", text)
	}
}

func TestSlashHandler_EmptyTextDefaultsToDaily(t *testing.T) {
	notifier := &recordingNotifier{}
	done := make(chan struct{})
	handler := newSlashHandler(t, notifier, (&recordingPoster{}).post, done)

	rec := postCommand(handler, "")
	if !strings.Contains(rec.Body.String(), "Daily report") {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}
	waitDone(t, done)
}

func TestSlashHandler_Help(t *testing.T) {
	handler := newSlashHandler(t, &recordingNotifier{}, (&recordingPoster{}).post, nil)
	rec := postCommand(handler, "help")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Usage:") {
		t.Fatalf("expected usage text: %s", rec.Body.String())
	}
}

func TestSlashHandler_UnknownType(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := newSlashHandler(t, notifier, (&recordingPoster{}).post, nil)

	rec := postCommand(handler, "quarterly")
	if rec.Code != http.StatusOK {
		t.Fatalf("slash errors must still ack with 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown report type") {
		t.Fatalf("expected error text: %s", rec.Body.String())
	}
	if calls, _ := notifier.snapshot(); calls != 0 {
		t.Fatalf("no report should be generated, got %d deliveries", calls)
	}
}

func TestSlashHandler_CustomDays(t *testing.T) {
	notifier := &recordingNotifier{}
	poster := &recordingPoster{}
	done := make(chan struct{})
	handler := newSlashHandler(t, notifier, poster.post, done)

	rec := postCommand(handler, "custom 14")
	if !strings.Contains(rec.Body.String(), "Custom report") {
		t.Fatalf("unexpected ack body: %s", rec.Body.String())
	}
	waitDone(t, done)
	if calls, _ := notifier.snapshot(); calls != 1 {
		t.Fatalf("expected one delivery, got %d", calls)
	}
}

func TestSlashHandler_CustomDaysValidation(t *testing.T) {
	handler := newSlashHandler(t, &recordingNotifier{}, (&recordingPoster{}).post, nil)
	for _, text := range []string{"custom", "custom 0", "custom 91", "custom soon"} {
		rec := postCommand(handler, text)
		if !strings.Contains(rec.Body.String(), "day count") {
			t.Fatalf("%q: expected validation message, got %s", text, rec.Body.String())
		}
	}
}

func TestSlashHandler_MethodNotAllowed(t *testing.T) {
	handler := newSlashHandler(t, &recordingNotifier{}, (&recordingPoster{}).post, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/command", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
