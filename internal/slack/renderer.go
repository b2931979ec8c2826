package slack

import (
	"fmt"
	"sort"
	"strings"

	report "analytics-pulse/internal/report/domain"
)

const (
	defaultBarWidth  = 10
	defaultMaxEvents = 5

	barUnit = "█"
)

// Renderer converts a report document into an ordered block sequence. It is
// a pure function of the report; delivery is the Client's job.
type Renderer struct {
	productName string
	barWidth    int
	maxEvents   int
}

// RendererOption configures the renderer.
type RendererOption func(*Renderer)

// WithBarWidth overrides the top-event bar width in characters.
func WithBarWidth(width int) RendererOption {
	return func(r *Renderer) {
		if width > 0 {
			r.barWidth = width
		}
	}
}

// WithMaxEvents overrides how many top events are displayed.
func WithMaxEvents(limit int) RendererOption {
	return func(r *Renderer) {
		if limit > 0 {
			r.maxEvents = limit
		}
	}
}

// NewRenderer constructs a renderer for the given product name.
func NewRenderer(productName string, opts ...RendererOption) *Renderer {
	if productName == "" {
		productName = "Analytics"
	}
	renderer := &Renderer{
		productName: productName,
		barWidth:    defaultBarWidth,
		maxEvents:   defaultMaxEvents,
	}
	for _, opt := range opts {
		opt(renderer)
	}
	return renderer
}

// FallbackText returns the notification text shown when blocks cannot render.
func (r *Renderer) FallbackText(rpt *report.Report) string {
	return fmt.Sprintf("%s %s Analytics Report", r.productName, rpt.Period.Label())
}

// RenderReport builds the block sequence for a report. Section order is
// fixed: header, date context, metrics, top events, insights, optional
// dashboard link, footer. Sections with no content are omitted entirely.
func (r *Renderer) RenderReport(rpt *report.Report) []Block {
	label := rpt.Period.Label()
	blocks := []Block{
		HeaderBlock(fmt.Sprintf("%s %s Report", r.productName, label)),
		ContextBlock(fmt.Sprintf("%s • %s Summary", formatDateRange(rpt), label)),
		DividerBlock(),
	}

	if section := r.metricsSection(rpt); section != "" {
		blocks = append(blocks, SectionBlock(section))
	}
	if section := r.topEventsSection(rpt); section != "" {
		blocks = append(blocks, DividerBlock(), SectionBlock(section))
	}
	if section := insightsSection(rpt); section != "" {
		blocks = append(blocks, DividerBlock(), SectionBlock(section))
	}
	if rpt.MixpanelURL != "" {
		blocks = append(blocks, LinkSectionBlock("*Dashboard*\nExplore the full numbers in Mixpanel.", "Open Mixpanel", rpt.MixpanelURL))
	}

	blocks = append(blocks,
		DividerBlock(),
		ContextBlock(fmt.Sprintf("%s Analytics • Auto-generated report", r.productName)),
	)
	return blocks
}

func (r *Renderer) metricsSection(rpt *report.Report) string {
	if len(rpt.Metrics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("*Key Metrics*")
	for _, name := range sortedMetricNames(rpt) {
		value := rpt.Metrics[name]
		line := fmt.Sprintf("\n• %s: *%s*", name, report.FormatCount(value))
		if cmp, ok := rpt.Comparison(name); ok {
			line += fmt.Sprintf(" %s %.1f%%", report.Arrow(cmp.Direction), cmp.PercentChange)
		}
		b.WriteString(line)
	}
	return b.String()
}

func (r *Renderer) topEventsSection(rpt *report.Report) string {
	if len(rpt.TopEvents) == 0 {
		return ""
	}

	shown := rpt.TopEvents
	if len(shown) > r.maxEvents {
		shown = shown[:r.maxEvents]
	}
	var max int64
	for _, event := range shown {
		if event.Count > max {
			max = event.Count
		}
	}

	var b strings.Builder
	b.WriteString("*Top Events*")
	for i, event := range shown {
		bar := strings.Repeat(barUnit, r.barLength(event.Count, max))
		fmt.Fprintf(&b, "\n%d. `%s` %s — %s", i+1, bar, event.Event, report.FormatCount(event.Count))
	}
	return b.String()
}

// barLength scales a count against the displayed maximum; every displayed
// event keeps at least one filled unit so small counts stay visible.
func (r *Renderer) barLength(count, max int64) int {
	if max <= 0 {
		return 1
	}
	length := int(float64(count) / float64(max) * float64(r.barWidth))
	if length < 1 {
		length = 1
	}
	if length > r.barWidth {
		length = r.barWidth
	}
	return length
}

func insightsSection(rpt *report.Report) string {
	if len(rpt.Insights) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("*Summary*")
	for _, insight := range rpt.Insights {
		b.WriteString("\n• ")
		b.WriteString(insight)
	}
	return b.String()
}

// sortedMetricNames returns metric names in a stable display order: the
// headline ordering first, then the remainder alphabetically.
func sortedMetricNames(rpt *report.Report) []string {
	cfg := report.DefaultInsightConfig()
	seen := make(map[string]bool, len(rpt.Metrics))
	names := make([]string, 0, len(rpt.Metrics))

	for _, headline := range cfg.Headlines {
		if _, ok := rpt.Metrics[headline.Metric]; ok {
			names = append(names, headline.Metric)
			seen[headline.Metric] = true
		}
	}
	for _, label := range cfg.ActiveUserLabels {
		if _, ok := rpt.Metrics[label]; ok && !seen[label] {
			names = append(names, label)
			seen[label] = true
		}
	}

	var rest []string
	for name := range rpt.Metrics {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func formatDateRange(rpt *report.Report) string {
	window, err := rpt.Window()
	if err != nil {
		return fmt.Sprintf("%s to %s", rpt.FromDate, rpt.ToDate)
	}
	const layout = "Jan 2, 2006"
	if window.From.Equal(window.To) {
		return window.To.Format(layout)
	}
	return fmt.Sprintf("%s to %s", window.From.Format(layout), window.To.Format(layout))
}
