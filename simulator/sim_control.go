package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

type SimFaults struct {
	DeparturesFail bool `json:"departuresFail"`
	StatusFail     bool `json:"statusFail"`
	LatencyMs      int  `json:"latencyMs"`
}

// SimControl switches the simulated feed between scenarios and injects
// faults, either from flags at startup or through /sim/*.
type SimControl struct {
	Feed *SimFeed

	startupScenario string
	changes         atomic.Int64
}

func NewSimControl(feed *SimFeed, startupScenario string) *SimControl {
	c := &SimControl{Feed: feed, startupScenario: strings.TrimSpace(startupScenario)}
	if c.startupScenario == "" {
		c.startupScenario = ScenarioDepartures
	}
	return c
}

func (c *SimControl) ApplyScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.startupScenario
	}
	if err := c.Feed.SetScenario(name); err != nil {
		return err
	}
	c.changes.Add(1)
	return nil
}

func (c *SimControl) Reset() error {
	c.Feed.SetFaults(SimFaults{})
	return c.ApplyScenario(c.startupScenario)
}

// Changes counts scenario switches since startup.
func (c *SimControl) Changes() int64 { return c.changes.Load() }

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.Reset(); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.Feed.Scenario()})
	})

	mux.HandleFunc("/sim/scenario", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"scenario": control.Feed.Scenario(), "available": scenarioNames})
	})

	mux.HandleFunc("/sim/scenario/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/sim/scenario/")
		name = strings.Trim(name, "/")
		if err := control.ApplyScenario(name); err != nil {
			writeSimError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.Feed.Scenario()})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Feed.Faults())
			return
		case http.MethodPost:
			var patch struct {
				DeparturesFail *bool `json:"departuresFail"`
				StatusFail     *bool `json:"statusFail"`
				LatencyMs      *int  `json:"latencyMs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Feed.Faults()
			if patch.DeparturesFail != nil {
				current.DeparturesFail = *patch.DeparturesFail
			}
			if patch.StatusFail != nil {
				current.StatusFail = *patch.StatusFail
			}
			if patch.LatencyMs != nil {
				if *patch.LatencyMs < 0 {
					writeSimError(w, http.StatusBadRequest, "latencyMs must be >= 0")
					return
				}
				current.LatencyMs = *patch.LatencyMs
			}
			control.Feed.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})
}

// registerFeedEndpoints serves the simulated feed in the wire format the
// board's HTTP client polls, so a real board can point feed.base_url at
// http://<sim>/feed.
func registerFeedEndpoints(mux *http.ServeMux, f *SimFeed) {
	mux.HandleFunc("/feed/stops/", getOnly(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/feed/stops/"), "/")
		code, tail, _ := strings.Cut(rest, "/")
		if code == "" || tail != "departures" {
			writeSimError(w, http.StatusNotFound, "not found")
			return
		}
		stop, err := f.PollDepartures(r.Context(), strings.ToUpper(code))
		if !feedOK(w, r, err) {
			return
		}
		writeSimJSON(w, http.StatusOK, departuresWire(stop))
	}))

	mux.HandleFunc("/feed/status", getOnly(func(w http.ResponseWriter, r *http.Request) {
		status, err := f.PollStatus(r.Context())
		if !feedOK(w, r, err) {
			return
		}
		writeSimJSON(w, http.StatusOK, statusWire(status))
	}))

	mux.HandleFunc("/feed/news", getOnly(func(w http.ResponseWriter, r *http.Request) {
		news, err := f.PollNews(r.Context())
		if !feedOK(w, r, err) {
			return
		}
		items := []string{}
		if news != "" {
			items = append(items, news)
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"items": items})
	}))

	mux.HandleFunc("/feed/weather", getOnly(func(w http.ResponseWriter, r *http.Request) {
		weather, err := f.PollWeather(r.Context())
		if !feedOK(w, r, err) {
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{
			"temperature": weather.Temperature,
			"unit":        weather.Unit,
			"conditions":  weather.Conditions,
			"updated_at":  weather.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}))
}

func feedOK(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return true
	}
	if r.Context().Err() != nil {
		return false
	}
	writeSimError(w, http.StatusServiceUnavailable, err.Error())
	return false
}

// getOnly wraps a feed handler so it answers GET only.
func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

type departureWire struct {
	Destination  string `json:"destination"`
	Minutes      int    `json:"minutes"`
	Platform     string `json:"platform,omitempty"`
	Line         string `json:"line,omitempty"`
	DelaySeconds int    `json:"delay_seconds"`
	Direction    string `json:"direction,omitempty"`
	Cars         int    `json:"cars"`
}

func departuresWire(stop transit.Stop) map[string]any {
	deps := make([]departureWire, 0, len(stop.Departures))
	for _, d := range stop.Departures {
		deps = append(deps, departureWire{
			Destination:  d.Destination,
			Minutes:      d.Minutes,
			Platform:     d.Platform,
			Line:         d.Line,
			DelaySeconds: d.DelaySeconds,
			Direction:    d.Direction,
			Cars:         d.Cars,
		})
	}
	return map[string]any{
		"stop":       map[string]string{"code": stop.Code, "name": stop.Name},
		"updated_at": stop.UpdatedAt.UTC().Format(time.RFC3339),
		"departures": deps,
	}
}

type alertWire struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Cause         string   `json:"cause,omitempty"`
	Effect        string   `json:"effect,omitempty"`
	AffectedStops []string `json:"affected_stops,omitempty"`
}

func statusWire(status transit.SystemStatus) map[string]any {
	alerts := make([]alertWire, 0, len(status.Alerts))
	for _, a := range status.Alerts {
		alerts = append(alerts, alertWire{
			Title:         a.Title,
			Description:   a.Description,
			Cause:         a.Cause,
			Effect:        a.Effect,
			AffectedStops: a.AffectedStops,
		})
	}
	return map[string]any{
		"severity":   status.Severity.String(),
		"updated_at": status.UpdatedAt.UTC().Format(time.RFC3339),
		"alerts":     alerts,
	}
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
