package report

import (
	"strconv"
	"time"
)

// Report is the immutable product of one report generation. It is created
// fresh per invocation and never mutated after assembly; its JSON form is the
// canonical document surface served to on-demand callers.
type Report struct {
	Period      Period                `json:"period"`
	FromDate    string                `json:"from_date"`
	ToDate      string                `json:"to_date"`
	GeneratedAt time.Time             `json:"generated_at"`
	Metrics     map[string]int64      `json:"metrics"`
	TopEvents   []TopEvent            `json:"top_events"`
	Insights    []string              `json:"insights"`
	Comparisons map[string]Comparison `json:"comparisons"`
	MixpanelURL string                `json:"mixpanel_url,omitempty"`
	Error       string                `json:"error,omitempty"`
	SlackSent   *bool                 `json:"slack_sent,omitempty"`
}

// Window parses the report's date bounds back into a DateWindow.
func (r *Report) Window() (DateWindow, error) {
	from, err := time.Parse(DateLayout, r.FromDate)
	if err != nil {
		return DateWindow{}, err
	}
	to, err := time.Parse(DateLayout, r.ToDate)
	if err != nil {
		return DateWindow{}, err
	}
	return DateWindow{From: from, To: to}, nil
}

// Comparison returns the comparison for a metric when one was computed.
// Every comparison key has a matching metric; the reverse does not hold.
func (r *Report) Comparison(metric string) (Comparison, bool) {
	cmp, ok := r.Comparisons[metric]
	return cmp, ok
}

// FormatCount renders a count with thousands separators.
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	start := 0
	if len(s) > 0 && s[0] == '-' {
		start = 1
	}
	digits := len(s) - start
	if digits <= 3 {
		return s
	}

	var out []byte
	out = append(out, s[:start]...)
	lead := digits % 3
	if lead == 0 {
		lead = 3
	}
	out = append(out, s[start:start+lead]...)
	for i := start + lead; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
