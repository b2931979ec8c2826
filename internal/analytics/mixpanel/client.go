package mixpanel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"analytics-pulse/internal/analytics"
)

const dateLayout = "2006-01-02"

// Config holds Mixpanel service-account credentials and data residency.
type Config struct {
	Username  string
	Secret    string
	ProjectID string
	Region    string // "us" (default), "eu" or "in"
}

// Client queries the Mixpanel Query and Export APIs.
type Client struct {
	cfg           Config
	queryBaseURL  string
	exportBaseURL string
	queryClient   *http.Client
	exportClient  *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURLs overrides the API base URLs, mainly for tests.
func WithBaseURLs(queryBase, exportBase string) Option {
	return func(c *Client) {
		if queryBase != "" {
			c.queryBaseURL = queryBase
		}
		if exportBase != "" {
			c.exportBaseURL = exportBase
		}
	}
}

// WithTimeouts overrides the query and export HTTP timeouts.
func WithTimeouts(query, export time.Duration) Option {
	return func(c *Client) {
		if query > 0 {
			c.queryClient.Timeout = query
		}
		if export > 0 {
			c.exportClient.Timeout = export
		}
	}
}

// NewClient constructs a Mixpanel client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Username == "" || cfg.Secret == "" {
		return nil, errors.New("mixpanel: credentials required")
	}

	client := &Client{
		cfg:          cfg,
		queryClient:  &http.Client{Timeout: 30 * time.Second},
		exportClient: &http.Client{Timeout: 60 * time.Second},
	}
	switch cfg.Region {
	case "eu":
		client.queryBaseURL = "https://eu.mixpanel.com/api/query"
		client.exportBaseURL = "https://data-eu.mixpanel.com/api/2.0"
	case "in":
		client.queryBaseURL = "https://in.mixpanel.com/api/query"
		client.exportBaseURL = "https://data-in.mixpanel.com/api/2.0"
	default:
		client.queryBaseURL = "https://mixpanel.com/api/query"
		client.exportBaseURL = "https://data.mixpanel.com/api/2.0"
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type segmentationResponse struct {
	Data struct {
		// Mixpanel returns series -> date -> count.
		Values map[string]map[string]int64 `json:"values"`
	} `json:"data"`
}

// QuerySegmentation implements analytics.Source.
func (c *Client) QuerySegmentation(ctx context.Context, event string, from, to time.Time, unit, kind string) (*analytics.Segmentation, error) {
	if c == nil {
		return nil, errors.New("mixpanel: nil client")
	}
	if event == "" {
		return nil, errors.New("mixpanel: empty event")
	}
	if unit == "" {
		unit = analytics.UnitDay
	}
	if kind == "" {
		kind = analytics.KindGeneral
	}

	params := url.Values{}
	params.Set("project_id", c.cfg.ProjectID)
	params.Set("event", event)
	params.Set("from_date", from.Format(dateLayout))
	params.Set("to_date", to.Format(dateLayout))
	params.Set("unit", unit)
	params.Set("type", kind)

	var parsed segmentationResponse
	if err := c.getJSON(ctx, c.queryBaseURL+"/segmentation", params, &parsed); err != nil {
		return nil, err
	}

	// Transpose series -> date into the by-day-by-segment shape.
	byDay := make(map[string]map[string]int64)
	for segment, days := range parsed.Data.Values {
		for day, count := range days {
			if byDay[day] == nil {
				byDay[day] = make(map[string]int64)
			}
			byDay[day][segment] = count
		}
	}
	return &analytics.Segmentation{ByDay: byDay}, nil
}

// QueryUniqueCount implements analytics.Source.
func (c *Client) QueryUniqueCount(ctx context.Context, event string, from, to time.Time) (*analytics.Segmentation, error) {
	return c.QuerySegmentation(ctx, event, from, to, analytics.UnitDay, analytics.KindUnique)
}

// ExportRawEvents implements analytics.Source. The export API streams JSONL,
// one event record per line.
func (c *Client) ExportRawEvents(ctx context.Context, from, to time.Time, limit int) ([]analytics.RawEvent, error) {
	if c == nil {
		return nil, errors.New("mixpanel: nil client")
	}

	params := url.Values{}
	params.Set("project_id", c.cfg.ProjectID)
	params.Set("from_date", from.Format(dateLayout))
	params.Set("to_date", to.Format(dateLayout))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exportBaseURL+"/export?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.exportClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mixpanel export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mixpanel export: status %d", resp.StatusCode)
	}

	var events []analytics.RawEvent
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event analytics.RawEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return events, err
	}
	return events, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return fmt.Errorf("mixpanel query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mixpanel query: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
