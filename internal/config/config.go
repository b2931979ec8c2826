package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"analytics-pulse/internal/report/application"
	report "analytics-pulse/internal/report/domain"
	"analytics-pulse/internal/scheduler"
)

// MixpanelConfig holds service-account credentials for the Mixpanel API.
type MixpanelConfig struct {
	Username  string `yaml:"username"`
	Secret    string `yaml:"secret"`
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
}

// ScheduleEntry is the YAML form of one scheduled report.
type ScheduleEntry struct {
	Period     string `yaml:"period"`
	At         string `yaml:"at"`
	Weekday    string `yaml:"weekday"`
	DayOfMonth int    `yaml:"day_of_month"`
}

// Config defines service configuration. Environment variables supply the
// defaults; an optional YAML file named by PULSE_CONFIG overrides them.
type Config struct {
	HTTPAddr     string `yaml:"http_addr"`
	ProductName  string `yaml:"product_name"`
	DashboardURL string `yaml:"dashboard_url"`

	Mixpanel    MixpanelConfig `yaml:"mixpanel"`
	DatabaseURL string         `yaml:"database_url"`

	SlackWebhookURL string `yaml:"slack_webhook_url"`

	JWTSecret string `yaml:"jwt_secret"`

	Metrics          []application.Metric `yaml:"metrics"`
	ActiveUserEvents []string             `yaml:"active_user_events"`

	Schedules []ScheduleEntry `yaml:"schedules"`
}

// Load reads configuration from the environment and the optional YAML file.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		ProductName:  getenvDefault("PRODUCT_NAME", "Analytics"),
		DashboardURL: os.Getenv("DASHBOARD_URL"),
		Mixpanel: MixpanelConfig{
			Username:  os.Getenv("MIXPANEL_SERVICE_USERNAME"),
			Secret:    os.Getenv("MIXPANEL_SERVICE_SECRET"),
			ProjectID: os.Getenv("MIXPANEL_PROJECT_ID"),
			Region:    getenvDefault("MIXPANEL_REGION", "us"),
		},
		DatabaseURL:     getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
	}

	if path := os.Getenv("PULSE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if len(cfg.ActiveUserEvents) == 0 {
		cfg.ActiveUserEvents = splitCSV(os.Getenv("ACTIVE_USER_EVENTS"))
	}
	if cfg.HTTPAddr == "" {
		return cfg, errors.New("config: http addr required")
	}
	return cfg, nil
}

// MetricSet resolves the configured metric catalog, falling back to the
// standard catalog when the config names none.
func (c Config) MetricSet() application.MetricSet {
	set := application.DefaultMetricSet()
	if len(c.Metrics) > 0 {
		set.Metrics = c.Metrics
	}
	if len(c.ActiveUserEvents) > 0 {
		set.ActiveUserEvents = c.ActiveUserEvents
	}
	return set
}

// ScheduleEntries resolves the configured schedule, falling back to the
// standing schedule when the config names none. Entries with an unknown
// period or weekday are dropped.
func (c Config) ScheduleEntries() []scheduler.Entry {
	if len(c.Schedules) == 0 {
		return scheduler.DefaultEntries()
	}
	var entries []scheduler.Entry
	for _, raw := range c.Schedules {
		period, ok := report.ParsePeriod(raw.Period)
		if !ok {
			continue
		}
		weekday, ok := parseWeekday(raw.Weekday)
		if !ok {
			continue
		}
		entries = append(entries, scheduler.Entry{
			Period:     period,
			At:         raw.At,
			Weekday:    weekday,
			DayOfMonth: raw.DayOfMonth,
		})
	}
	return entries
}

// UsesPostgres reports whether the first-party event store should serve as
// the analytics source instead of Mixpanel.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func parseWeekday(value string) (time.Weekday, bool) {
	switch strings.ToLower(value) {
	case "", "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	default:
		return time.Sunday, false
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
