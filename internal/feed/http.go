package feed

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const (
	schemaBase       = "https://departureboard.local/schemas/"
	maxResponseBytes = 1 << 20
)

// HTTPClient polls the JSON feed:
//
//	GET {base}/stops/{code}/departures
//	GET {base}/status
//	GET {base}/news
//	GET {base}/weather
//
// Every response body is validated against an embedded JSON schema before
// it is decoded.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// Now stamps payloads that carry no updated_at.
	Now func() time.Time

	schemas map[string]*jsonschema.Schema
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("feed base url is empty")
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
		Now:     time.Now,
		schemas: schemas,
	}, nil
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	kinds := []string{KindDepartures, KindStatus, KindNews, KindWeather}
	for _, kind := range kinds {
		b, err := schemaFS.ReadFile("schemas/" + kind + ".schema.json")
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(schemaBase+kind+".schema.json", bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", kind, err)
		}
	}
	out := make(map[string]*jsonschema.Schema, len(kinds))
	for _, kind := range kinds {
		s, err := compiler.Compile(schemaBase + kind + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", kind, err)
		}
		out[kind] = s
	}
	return out, nil
}

type departuresPayload struct {
	Stop struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"stop"`
	UpdatedAt  time.Time `json:"updated_at"`
	Departures []struct {
		Destination  string `json:"destination"`
		Minutes      int    `json:"minutes"`
		Platform     string `json:"platform"`
		Line         string `json:"line"`
		DelaySeconds int    `json:"delay_seconds"`
		Direction    string `json:"direction"`
		Cars         int    `json:"cars"`
	} `json:"departures"`
}

type statusPayload struct {
	Severity  string    `json:"severity"`
	UpdatedAt time.Time `json:"updated_at"`
	Alerts    []struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		Cause         string   `json:"cause"`
		Effect        string   `json:"effect"`
		AffectedStops []string `json:"affected_stops"`
	} `json:"alerts"`
}

type newsPayload struct {
	Items []string `json:"items"`
}

type weatherPayload struct {
	Temperature float64   `json:"temperature"`
	Unit        string    `json:"unit"`
	Conditions  string    `json:"conditions"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PollDepartures returns the stop with departures in the past dropped.
func (c *HTTPClient) PollDepartures(ctx context.Context, stopCode string) (transit.Stop, error) {
	var payload departuresPayload
	path := "/stops/" + url.PathEscape(stopCode) + "/departures"
	if err := c.get(ctx, KindDepartures, path, &payload); err != nil {
		return transit.Stop{}, pollError(KindDepartures, stopCode, err)
	}

	deps := make([]transit.Departure, 0, len(payload.Departures))
	for _, d := range payload.Departures {
		if d.Minutes < 0 {
			continue
		}
		deps = append(deps, transit.Departure{
			Destination:  d.Destination,
			Minutes:      d.Minutes,
			Platform:     d.Platform,
			Line:         d.Line,
			DelaySeconds: d.DelaySeconds,
			Direction:    d.Direction,
			Cars:         d.Cars,
		})
	}
	name := payload.Stop.Name
	if name == "" {
		name, _ = transit.StationName(stopCode)
	}
	return transit.NewStop(stopCode, name, deps, c.stamp(payload.UpdatedAt)), nil
}

func (c *HTTPClient) PollStatus(ctx context.Context) (transit.SystemStatus, error) {
	var payload statusPayload
	if err := c.get(ctx, KindStatus, "/status", &payload); err != nil {
		return transit.SystemStatus{}, pollError(KindStatus, "", err)
	}
	alerts := make([]transit.Alert, 0, len(payload.Alerts))
	for _, a := range payload.Alerts {
		alerts = append(alerts, transit.Alert{
			Title:         a.Title,
			Description:   a.Description,
			Cause:         a.Cause,
			Effect:        a.Effect,
			AffectedStops: a.AffectedStops,
		})
	}
	return transit.NewSystemStatus(transit.ParseSeverity(payload.Severity), alerts, c.stamp(payload.UpdatedAt)), nil
}

// PollNews joins the feed's news items into one ticker line.
func (c *HTTPClient) PollNews(ctx context.Context) (string, error) {
	var payload newsPayload
	if err := c.get(ctx, KindNews, "/news", &payload); err != nil {
		return "", pollError(KindNews, "", err)
	}
	items := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return strings.Join(items, " | "), nil
}

func (c *HTTPClient) PollWeather(ctx context.Context) (transit.Weather, error) {
	var payload weatherPayload
	if err := c.get(ctx, KindWeather, "/weather", &payload); err != nil {
		return transit.Weather{}, pollError(KindWeather, "", err)
	}
	unit := payload.Unit
	if unit == "" {
		unit = "F"
	}
	return transit.Weather{
		Temperature: payload.Temperature,
		Unit:        unit,
		Conditions:  payload.Conditions,
		UpdatedAt:   c.stamp(payload.UpdatedAt),
	}, nil
}

func (c *HTTPClient) stamp(t time.Time) time.Time {
	if !t.IsZero() {
		return t
	}
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *HTTPClient) get(ctx context.Context, kind, path string, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		q := u.Query()
		q.Set("api_key", c.APIKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if schema := c.schemas[kind]; schema != nil {
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("invalid %s payload: %w", kind, err)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
