package report

import "time"

// DateLayout is the calendar date format used across the report surface.
const DateLayout = "2006-01-02"

// Period names a fixed lookback window.
type Period string

const (
	PeriodDaily    Period = "daily"
	PeriodWeekly   Period = "weekly"
	PeriodBiweekly Period = "biweekly"
	PeriodMonthly  Period = "monthly"
	PeriodCustom   Period = "custom"
)

// ParsePeriod validates a boundary token and returns the matching Period.
func ParsePeriod(value string) (Period, bool) {
	switch Period(value) {
	case PeriodDaily, PeriodWeekly, PeriodBiweekly, PeriodMonthly, PeriodCustom:
		return Period(value), true
	default:
		return "", false
	}
}

// LookbackDays returns the fixed lookback length for a named period.
// Unrecognized periods fall back to the daily lookback instead of failing;
// boundaries are expected to reject unknown tokens before reaching here.
func (p Period) LookbackDays() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodBiweekly:
		return 14
	case PeriodMonthly:
		return 30
	default:
		return 1
	}
}

// Label returns the human period label used in message headers.
func (p Period) Label() string {
	switch p {
	case PeriodDaily:
		return "Daily"
	case PeriodWeekly:
		return "Weekly"
	case PeriodBiweekly:
		return "Bi-Weekly"
	case PeriodMonthly:
		return "Monthly"
	case PeriodCustom:
		return "Custom"
	default:
		return string(p)
	}
}

// Noun returns the period noun used in insight text.
func (p Period) Noun() string {
	switch p {
	case PeriodDaily:
		return "day"
	case PeriodWeekly:
		return "week"
	case PeriodBiweekly:
		return "fortnight"
	case PeriodMonthly:
		return "month"
	default:
		return "period"
	}
}

// ActiveUsersLabel returns the period-scoped active users metric name.
func (p Period) ActiveUsersLabel() string {
	switch p {
	case PeriodDaily:
		return "Daily Active Users"
	case PeriodWeekly:
		return "Weekly Active Users"
	case PeriodBiweekly:
		return "Bi-Weekly Active Users"
	case PeriodMonthly:
		return "Monthly Active Users"
	default:
		return "Active Users"
	}
}

// DateWindow is an inclusive calendar date range, From <= To.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// Days returns the inclusive day count of the window.
func (w DateWindow) Days() int {
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// ResolveWindow maps a period and optional explicit bounds to a date window.
// Explicit from/to win over days, which wins over the period lookback. The
// window end defaults to the calendar date of now.
func ResolveWindow(period Period, from, to *time.Time, days int, now time.Time) DateWindow {
	end := truncateToDay(now)
	if to != nil {
		end = truncateToDay(*to)
	}
	if from != nil {
		start := truncateToDay(*from)
		if start.After(end) {
			start = end
		}
		return DateWindow{From: start, To: end}
	}
	if days > 0 {
		return DateWindow{From: end.AddDate(0, 0, -days), To: end}
	}
	return DateWindow{From: end.AddDate(0, 0, -period.LookbackDays()), To: end}
}

// PreviousWindow returns the equal-length window immediately preceding w,
// ending the day before w starts.
func PreviousWindow(w DateWindow) DateWindow {
	span := int(w.To.Sub(w.From).Hours() / 24)
	prevTo := w.From.AddDate(0, 0, -1)
	return DateWindow{From: prevTo.AddDate(0, 0, -span), To: prevTo}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
