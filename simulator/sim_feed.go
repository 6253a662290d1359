package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

var errSimNetwork = errors.New("simulated network failure")

// Scenarios understood by SimFeed.
const (
	ScenarioDepartures   = "departures"
	ScenarioAlerts       = "alerts"
	ScenarioNoTrains     = "no-trains"
	ScenarioNetworkError = "network-error"
	ScenarioNews         = "news"
)

var scenarioNames = []string{ScenarioDepartures, ScenarioAlerts, ScenarioNoTrains, ScenarioNetworkError, ScenarioNews}

type simTrain struct {
	dest     string
	offset   int
	platform string
	line     string
	delay    int
	cars     int
}

// Trains repeat every cycleMinutes, so the board always has something
// counting down.
const cycleMinutes = 20

var simTrains = []simTrain{
	{dest: "SFIA", offset: 3, platform: "2", line: "yellow", cars: 10},
	{dest: "PITT", offset: 7, platform: "1", line: "yellow", delay: 120, cars: 8},
	{dest: "MLBR", offset: 12, platform: "2", line: "yellow", cars: 10},
	{dest: "PCTR", offset: 16, platform: "1", line: "yellow", cars: 9},
}

// SimFeed serves canned departures, status, news and weather. Scenario and
// faults can change at any time; every poll reads the current values.
type SimFeed struct {
	Now func() time.Time

	mu       sync.RWMutex
	scenario string
	faults   SimFaults
	start    time.Time
}

func NewSimFeed(scenario string) (*SimFeed, error) {
	f := &SimFeed{Now: time.Now}
	f.start = f.now()
	if err := f.SetScenario(scenario); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *SimFeed) SetScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = ScenarioDepartures
	}
	known := false
	for _, s := range scenarioNames {
		if s == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown scenario %q (want one of %s)", name, strings.Join(scenarioNames, ", "))
	}
	f.mu.Lock()
	f.scenario = name
	f.mu.Unlock()
	return nil
}

func (f *SimFeed) Scenario() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.scenario
}

func (f *SimFeed) Faults() SimFaults {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.faults
}

func (f *SimFeed) SetFaults(v SimFaults) {
	f.mu.Lock()
	f.faults = v
	f.mu.Unlock()
}

func (f *SimFeed) PollDepartures(ctx context.Context, stopCode string) (transit.Stop, error) {
	scenario, err := f.begin(ctx, func(v SimFaults) bool { return v.DeparturesFail })
	if err != nil {
		return transit.Stop{}, err
	}
	name, ok := transit.StationName(stopCode)
	if !ok {
		name = stopCode
	}
	now := f.now()
	if scenario == ScenarioNoTrains {
		return transit.NewStop(stopCode, name, nil, now), nil
	}

	elapsed := int(now.Sub(f.start) / time.Minute)
	deps := make([]transit.Departure, 0, len(simTrains))
	for _, t := range simTrains {
		dest, ok := transit.StationName(t.dest)
		if !ok {
			dest = t.dest
		}
		deps = append(deps, transit.Departure{
			Destination:  dest,
			Minutes:      ((t.offset-elapsed)%cycleMinutes + cycleMinutes) % cycleMinutes,
			Platform:     t.platform,
			Line:         t.line,
			DelaySeconds: t.delay,
			Cars:         t.cars,
		})
	}
	return transit.NewStop(stopCode, name, deps, now), nil
}

func (f *SimFeed) PollStatus(ctx context.Context) (transit.SystemStatus, error) {
	scenario, err := f.begin(ctx, func(v SimFaults) bool { return v.StatusFail })
	if err != nil {
		return transit.SystemStatus{}, err
	}
	now := f.now()
	if scenario == ScenarioAlerts {
		return transit.NewSystemStatus(transit.SeverityAlert, []transit.Alert{
			{Title: "20 minute delay on the Pittsburg line", Cause: "equipment problem", Effect: "delays", AffectedStops: []string{"WCRK", "PITT", "PCTR"}},
			{Title: "Elevator out of service at Powell St.", AffectedStops: []string{"POWL"}},
		}, now), nil
	}
	return transit.NewSystemStatus(transit.SeverityNormal, nil, now), nil
}

func (f *SimFeed) PollNews(ctx context.Context) (string, error) {
	scenario, err := f.begin(ctx, func(SimFaults) bool { return false })
	if err != nil {
		return "", err
	}
	if scenario == ScenarioNews {
		return "Late night single tracking this weekend", nil
	}
	return "", nil
}

func (f *SimFeed) PollWeather(ctx context.Context) (transit.Weather, error) {
	if _, err := f.begin(ctx, func(SimFaults) bool { return false }); err != nil {
		return transit.Weather{}, err
	}
	return transit.Weather{Temperature: 61, Unit: "F", Conditions: "Fog", UpdatedAt: f.now()}, nil
}

// begin applies latency and failure faults shared by every poll.
func (f *SimFeed) begin(ctx context.Context, failed func(SimFaults) bool) (string, error) {
	f.mu.RLock()
	scenario, faults := f.scenario, f.faults
	f.mu.RUnlock()

	if faults.LatencyMs > 0 {
		timer := time.NewTimer(time.Duration(faults.LatencyMs) * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if scenario == ScenarioNetworkError || failed(faults) {
		return "", errSimNetwork
	}
	return scenario, nil
}

func (f *SimFeed) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}
