package report_test

import (
	"strings"
	"testing"

	report "analytics-pulse/internal/report/domain"
)

func insightReport() *report.Report {
	return &report.Report{
		Period:      report.PeriodWeekly,
		Metrics:     map[string]int64{},
		Comparisons: map[string]report.Comparison{},
		TopEvents:   []report.TopEvent{},
	}
}

func TestGenerateInsights_Order(t *testing.T) {
	rpt := insightReport()
	rpt.Metrics["New Signups"] = 1234
	rpt.Metrics["Vouchers Redeemed"] = 56
	rpt.Metrics["Weekly Active Users"] = 4200
	rpt.Metrics["Daily Active Users"] = 900
	rpt.TopEvents = []report.TopEvent{{Event: "Receipt Uploaded", Count: 9001}}
	rpt.Comparisons["New Signups"] = report.Compare(1234, 1097)

	insights := report.GenerateInsights(rpt, report.DefaultInsightConfig())
	if len(insights) != 4 {
		t.Fatalf("expected 4 insights, got %d: %v", len(insights), insights)
	}
	if !strings.HasPrefix(insights[0], "New user signups: 1,234 (↑ 12.5% from 1,097)") {
		t.Fatalf("unexpected headline insight: %q", insights[0])
	}
	if !strings.HasPrefix(insights[1], "Rewards claimed: 56") {
		t.Fatalf("unexpected second insight: %q", insights[1])
	}
	// Exactly one active-users line, picking the first configured label.
	if insights[2] != "Total Daily Active Users: 900 users" {
		t.Fatalf("unexpected active users insight: %q", insights[2])
	}
	if insights[3] != "Most popular action: Receipt Uploaded with 9,001 occurrences" {
		t.Fatalf("unexpected top event insight: %q", insights[3])
	}
}

func TestGenerateInsights_Fallback(t *testing.T) {
	insights := report.GenerateInsights(insightReport(), report.DefaultInsightConfig())
	if len(insights) != 1 {
		t.Fatalf("expected exactly one fallback insight, got %v", insights)
	}
	if insights[0] != report.FallbackInsight {
		t.Fatalf("unexpected fallback: %q", insights[0])
	}
}

func TestFormatMetricValue(t *testing.T) {
	comparisons := map[string]report.Comparison{
		"new":  report.Compare(5, 0),
		"flat": report.Compare(10, 10),
		"down": report.Compare(50, 100),
	}

	if got := report.FormatMetricValue(5, comparisons, "new", report.PeriodWeekly); got != "5 (new this week)" {
		t.Fatalf("new: got %q", got)
	}
	if got := report.FormatMetricValue(10, comparisons, "flat", report.PeriodDaily); got != "10 (unchanged)" {
		t.Fatalf("flat: got %q", got)
	}
	if got := report.FormatMetricValue(50, comparisons, "down", report.PeriodDaily); got != "50 (↓ 50.0% from 100)" {
		t.Fatalf("down: got %q", got)
	}
	if got := report.FormatMetricValue(7, comparisons, "absent", report.PeriodDaily); got != "7" {
		t.Fatalf("bare: got %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		12345:   "12,345",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		if got := report.FormatCount(n); got != want {
			t.Fatalf("FormatCount(%d) = %q, want %q", n, got, want)
		}
	}
}
