package report

import "fmt"

// FallbackInsight is emitted when a report has nothing else to say, so a
// report is never insight-less.
const FallbackInsight = "Analytics data collected successfully"

// Headline pairs a metric display name with the lead-in text for its insight.
type Headline struct {
	Metric string `yaml:"metric"`
	Text   string `yaml:"text"`
}

// InsightConfig fixes the metric ordering and labels used by GenerateInsights.
// It is immutable configuration handed in by reference, not process state.
type InsightConfig struct {
	// Headlines are emitted first, in this order, for metrics present in the
	// report.
	Headlines []Headline
	// ActiveUserLabels is the ordered list of period-scoped active-user keys;
	// at most one active-users insight is emitted, for the first key present.
	ActiveUserLabels []string
}

// DefaultInsightConfig returns the standard insight ordering.
func DefaultInsightConfig() InsightConfig {
	return InsightConfig{
		Headlines: []Headline{
			{Metric: "New Signups", Text: "New user signups"},
			{Metric: "Users Onboarded", Text: "Users onboarded"},
			{Metric: "Receipts Uploaded", Text: "Receipts scanned"},
			{Metric: "Vouchers Redeemed", Text: "Rewards claimed"},
		},
		ActiveUserLabels: []string{
			"Daily Active Users",
			"Weekly Active Users",
			"Monthly Active Users",
			"Bi-Weekly Active Users",
		},
	}
}

// GenerateInsights derives the ordered insight list for a report. The
// sequence is fixed: headline metrics, one active-users line, the top event,
// then the fallback when nothing qualified. Output order is generation order.
func GenerateInsights(r *Report, cfg InsightConfig) []string {
	insights := []string{}

	for _, headline := range cfg.Headlines {
		value, ok := r.Metrics[headline.Metric]
		if !ok {
			continue
		}
		formatted := FormatMetricValue(value, r.Comparisons, headline.Metric, r.Period)
		insights = append(insights, fmt.Sprintf("%s: %s", headline.Text, formatted))
	}

	for _, label := range cfg.ActiveUserLabels {
		value, ok := r.Metrics[label]
		if !ok {
			continue
		}
		insights = append(insights, fmt.Sprintf("Total %s: %s users", label, FormatCount(value)))
		break
	}

	if len(r.TopEvents) > 0 {
		top := r.TopEvents[0]
		insights = append(insights, fmt.Sprintf("Most popular action: %s with %s occurrences", top.Event, FormatCount(top.Count)))
	}

	if len(insights) == 0 {
		insights = append(insights, FallbackInsight)
	}
	return insights
}

// FormatMetricValue renders a metric value with its change annotation:
// "<value> (<arrow> <percent>% from <previous>)" for an ordinary change,
// "<value> (new this <period-noun>)" for a new metric, "<value> (unchanged)"
// when flat, and the bare value when no comparison exists.
func FormatMetricValue(value int64, comparisons map[string]Comparison, metric string, period Period) string {
	formatted := FormatCount(value)
	cmp, ok := comparisons[metric]
	if !ok {
		return formatted
	}
	if cmp.IsNew {
		return fmt.Sprintf("%s (new this %s)", formatted, period.Noun())
	}
	if cmp.Direction == DirectionFlat {
		return fmt.Sprintf("%s (unchanged)", formatted)
	}
	return fmt.Sprintf("%s (%s %.1f%% from %s)", formatted, Arrow(cmp.Direction), cmp.PercentChange, FormatCount(cmp.PreviousValue))
}

// Arrow returns the display arrow for a change direction.
func Arrow(d Direction) string {
	switch d {
	case DirectionUp:
		return "↑"
	case DirectionDown:
		return "↓"
	default:
		return "→"
	}
}
