package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	report "analytics-pulse/internal/report/domain"
)

func TestReportJSONRoundTrip(t *testing.T) {
	sent := true
	original := &report.Report{
		Period:      report.PeriodWeekly,
		FromDate:    "2026-03-08",
		ToDate:      "2026-03-15",
		GeneratedAt: time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC),
		Metrics: map[string]int64{
			"New Signups":         1234,
			"Weekly Active Users": 4200,
		},
		TopEvents: []report.TopEvent{
			{Event: "Receipt Uploaded", Count: 9001},
			{Event: "Sign Up", Count: 1234},
		},
		Insights: []string{
			"New user signups: 1,234 (↑ 12.5% from 1,097)",
			"Most popular action: Receipt Uploaded with 9,001 occurrences",
		},
		Comparisons: map[string]report.Comparison{
			"New Signups": {PercentChange: 12.5, Direction: report.DirectionUp, PreviousValue: 1097},
		},
		MixpanelURL: "https://mixpanel.com/project/123",
		SlackSent:   &sent,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, field := range []string{"period", "from_date", "to_date", "generated_at", "metrics", "top_events", "insights", "comparisons", "mixpanel_url", "slack_sent"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Fatalf("serialized report missing field %q: %s", field, data)
		}
	}
	if strings.Contains(string(data), `"error"`) {
		t.Fatalf("empty error must be omitted: %s", data)
	}

	var decoded report.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Period != original.Period || decoded.FromDate != original.FromDate || decoded.ToDate != original.ToDate {
		t.Fatalf("window fields changed: %+v", decoded)
	}
	if len(decoded.TopEvents) != 2 || decoded.TopEvents[0].Event != "Receipt Uploaded" || decoded.TopEvents[1].Event != "Sign Up" {
		t.Fatalf("top event ordering not preserved: %+v", decoded.TopEvents)
	}
	if len(decoded.Insights) != 2 || decoded.Insights[0] != original.Insights[0] {
		t.Fatalf("insight ordering not preserved: %+v", decoded.Insights)
	}
	if decoded.Metrics["New Signups"] != 1234 {
		t.Fatalf("metrics not preserved: %+v", decoded.Metrics)
	}
	cmp := decoded.Comparisons["New Signups"]
	if cmp.PercentChange != 12.5 || cmp.Direction != report.DirectionUp || cmp.PreviousValue != 1097 {
		t.Fatalf("comparison not preserved: %+v", cmp)
	}
	if decoded.SlackSent == nil || !*decoded.SlackSent {
		t.Fatalf("slack_sent not preserved")
	}
}

func TestReportWindow(t *testing.T) {
	rpt := &report.Report{FromDate: "2026-03-08", ToDate: "2026-03-15"}
	window, err := rpt.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if window.Days() != 8 {
		t.Fatalf("expected 8 day window, got %d", window.Days())
	}
}
