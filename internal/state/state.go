package state

import (
	"sync"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// State is one consistent view of the board data.
//
// Stop, Status.Alerts and Stop.Departures point at published data that is
// never modified in place, so a State can be read without holding any lock.
type State struct {
	Stop          *transit.Stop
	Status        transit.SystemStatus
	News          string
	Weather       transit.Weather
	NetworkIssues bool

	// Version increases on every write.
	Version uint64
}

func (s State) NewsAvailable() bool { return s.News != "" }

// StopCode returns the current stop code, or "" before the first stop.
func (s State) StopCode() string {
	if s.Stop == nil {
		return ""
	}
	return s.Stop.Code
}

// Store is the display state shared by the worker loop (writer) and the
// render loop (reader). Every setter swaps a whole substructure.
type Store struct {
	mu    sync.RWMutex
	state State

	// scrollDone holds the stop code whose departures ticker completed a pass.
	scrollDone string
}

func NewStore() *Store {
	return &Store{}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

// SetStop publishes a new current stop. The value is copied; callers build
// it with transit.NewStop so the departure list is already sorted.
func (store *Store) SetStop(stop transit.Stop) {
	published := stop
	store.mu.Lock()
	if store.state.Stop == nil || store.state.Stop.Code != stop.Code {
		store.scrollDone = ""
	}
	store.state.Stop = &published
	store.state.Version++
	store.mu.Unlock()
}

func (store *Store) SetStatus(status transit.SystemStatus) {
	store.mu.Lock()
	store.state.Status = status
	store.state.Version++
	store.mu.Unlock()
}

func (store *Store) SetNews(news string) {
	store.mu.Lock()
	store.state.News = news
	store.state.Version++
	store.mu.Unlock()
}

func (store *Store) SetWeather(weather transit.Weather) {
	store.mu.Lock()
	store.state.Weather = weather
	store.state.Version++
	store.mu.Unlock()
}

// SetNetworkIssues records the outcome of the latest poll. It only bumps
// the version when the flag actually changes.
func (store *Store) SetNetworkIssues(issues bool) {
	store.mu.Lock()
	if store.state.NetworkIssues != issues {
		store.state.NetworkIssues = issues
		store.state.Version++
	}
	store.mu.Unlock()
}

// ReportScrollPass is called by the render loop when the departures ticker
// for stopCode has completed at least one full pass.
func (store *Store) ReportScrollPass(stopCode string) {
	store.mu.Lock()
	if store.state.Stop != nil && store.state.Stop.Code == stopCode {
		store.scrollDone = stopCode
	}
	store.mu.Unlock()
}

// ScrollingFinished reports whether the current stop's ticker has finished
// a pass since the stop was selected.
func (store *Store) ScrollingFinished() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.Stop != nil && store.scrollDone == store.state.Stop.Code
}
