package application

// Metric binds a display name to the analytics event it counts.
type Metric struct {
	Name  string `yaml:"name"`
	Event string `yaml:"event"`
}

// MetricSet is the catalog of metrics a report aggregates, plus the ordered
// candidate events for the active-users proxy. The first candidate event that
// returns a non-zero unique count supplies the active-users metric.
type MetricSet struct {
	Metrics          []Metric `yaml:"metrics"`
	ActiveUserEvents []string `yaml:"active_user_events"`
}

// DefaultMetricSet returns the standard product metric catalog.
func DefaultMetricSet() MetricSet {
	return MetricSet{
		Metrics: []Metric{
			{Name: "New Signups", Event: "Sign Up"},
			{Name: "Users Onboarded", Event: "User Onboarded"},
			{Name: "Receipts Uploaded", Event: "Receipt Uploaded"},
			{Name: "Points Added", Event: "Points Added"},
			{Name: "Vouchers Redeemed", Event: "Voucher Redeemed"},
			{Name: "Products Tracked", Event: "Product Tracked"},
			{Name: "Referrals Completed", Event: "Referral Completed"},
		},
		ActiveUserEvents: []string{"$ae_session", "Sign Up", "User Onboarded"},
	}
}

// EventNames returns the catalog's event names in declaration order.
func (m MetricSet) EventNames() []string {
	names := make([]string, 0, len(m.Metrics))
	for _, metric := range m.Metrics {
		names = append(names, metric.Event)
	}
	return names
}
