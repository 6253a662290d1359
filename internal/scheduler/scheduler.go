// Package scheduler runs the worker loop: it decides when to poll the feed
// and when to rotate to the next tracked stop, and publishes the results to
// the shared display state.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/app/screens"
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/feed"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(component, format string, args ...interface{})  {}
func (noopLogger) Errorf(component, format string, args ...interface{}) {}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// RotationState tracks which configured stop is on screen and since when.
type RotationState struct {
	Index       int
	Started     time.Time
	Initialized bool
}

type Scheduler struct {
	Store    *state.Store
	Source   feed.Source
	News     feed.NewsSource
	Weather  feed.WeatherSource
	Recorder persistence.Recorder
	Clock    Clock
	Logger   Logger

	Stops   []config.StopSpec
	Rates   config.RateConfig
	Polling config.PollingConfig
	Policy  screens.Policy

	StatusOnNoTrains bool
	NewsOnNoTrains   bool

	mu       sync.Mutex
	rotation RotationState

	lastPoll      map[string]time.Time
	advanceReq    atomic.Bool

	// retryKey is the departures key of the last advance whose poll
	// failed. Another attempt at that stop waits out Polling.Departures.
	retryKey string

	tickAttempted bool
	tickFailed    bool
}

// New builds a scheduler from cfg. News and weather are polled only when
// enabled in cfg and implemented by source.
func New(cfg config.Config, store *state.Store, source feed.Source) *Scheduler {
	s := &Scheduler{
		Store:            store,
		Source:           source,
		Recorder:         persistence.Nop{},
		Clock:            systemClock{},
		Logger:           noopLogger{},
		Stops:            append([]config.StopSpec(nil), cfg.Rotation.Stops...),
		Rates:            cfg.Rotation.Rates,
		Polling:          cfg.Polling,
		Policy:           screens.PolicyFromConfig(cfg.Screens),
		StatusOnNoTrains: cfg.Screens.StatusOnNoTrains,
		NewsOnNoTrains:   cfg.Screens.NewsOnNoTrains,
	}
	if ns, ok := source.(feed.NewsSource); ok && cfg.Feed.News {
		s.News = ns
	}
	if ws, ok := source.(feed.WeatherSource); ok && cfg.Feed.Weather {
		s.Weather = ws
	}
	if len(s.Stops) == 0 {
		s.Stops = []config.StopSpec{cfg.Rotation.FallbackStop}
	}
	return s
}

// Rotation returns a copy of the rotation state.
func (s *Scheduler) Rotation() RotationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

// RequestAdvance asks the worker to move to the next stop on its next tick.
func (s *Scheduler) RequestAdvance() {
	s.advanceReq.Store(true)
}

// Run ticks until ctx is cancelled. A tick in progress when ctx is
// cancelled runs to completion; its polls are bounded by the feed timeout.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Polling.Tick
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	work := context.WithoutCancel(ctx)

	s.Tick(work)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Logger.Infof("worker", "stopping")
			return
		case <-ticker.C:
			s.Tick(work)
		}
	}
}

// Tick runs one pass of the worker loop.
func (s *Scheduler) Tick(ctx context.Context) {
	s.tickAttempted, s.tickFailed = false, false
	defer s.settleNetwork()

	now := s.now()
	snap := s.Store.Snapshot()
	rot := s.Rotation()

	if snap.Stop == nil || !rot.Initialized {
		s.advance(ctx, now)
		return
	}

	s.pollStatus(ctx, now)

	if s.advanceReq.Swap(false) {
		s.Logger.Infof("worker", "manual advance requested")
		s.advance(ctx, now)
		return
	}

	if !snap.Stop.HasDepartures() && (s.StatusOnNoTrains || s.NewsOnNoTrains) {
		// Keep the fallback boards fresh and stay on this stop until trains
		// return.
		if s.NewsOnNoTrains {
			s.pollNews(ctx, now)
			s.pollWeather(ctx, now)
		}
		s.pollDepartures(ctx, now, rot.Index, false)
		return
	}

	snap = s.Store.Snapshot()
	active := screens.Resolve(snap, s.Policy)
	if active == screens.Departures && len(s.Stops) > 1 {
		if s.Store.ScrollingFinished() {
			if now.Sub(rot.Started) >= s.SeverityRate(snap.Status, snap.Stop.Code) {
				s.advance(ctx, now)
				return
			}
		}
	}
	if active == screens.News || active == screens.SystemOffday {
		s.pollNews(ctx, now)
		s.pollWeather(ctx, now)
	}
	s.pollDepartures(ctx, now, rot.Index, false)
}

// advance moves to the next stop, or to the first one before the rotation
// is initialised. The index and timer only change when the new stop's
// departures were fetched. The first attempt at a stop polls at once; after
// a failure the same stop is retried at the departures interval.
func (s *Scheduler) advance(ctx context.Context, now time.Time) {
	rot := s.Rotation()
	next := 0
	if rot.Initialized {
		next = (rot.Index + 1) % len(s.Stops)
	}
	key := departuresKey(s.Stops[next].Code)
	if key == s.retryKey && !s.due(key, s.Polling.Departures, now) {
		return
	}
	if !s.pollDepartures(ctx, now, next, true) {
		s.retryKey = key
		return
	}
	s.retryKey = ""
	s.mu.Lock()
	s.rotation = RotationState{Index: next, Started: now, Initialized: true}
	s.mu.Unlock()
	s.Logger.Infof("worker", "showing %s (%d/%d)", s.Stops[next].Code, next+1, len(s.Stops))
}

// due reports whether a throttled poll for key may run at now.
func (s *Scheduler) due(key string, interval time.Duration, now time.Time) bool {
	last, ok := s.lastPoll[key]
	return !ok || now.Sub(last) >= interval
}

func departuresKey(code string) string { return feed.KindDepartures + ":" + code }

func (s *Scheduler) mark(key string, now time.Time) {
	if s.lastPoll == nil {
		s.lastPoll = map[string]time.Time{}
	}
	s.lastPoll[key] = now
}

func (s *Scheduler) pollDepartures(ctx context.Context, now time.Time, index int, force bool) bool {
	spec := s.Stops[index]
	key := departuresKey(spec.Code)
	if !force && !s.due(key, s.Polling.Departures, now) {
		return false
	}
	s.mark(key, now)

	start := time.Now()
	stop, err := s.Source.PollDepartures(ctx, spec.Code)
	s.record(feed.KindDepartures, spec.Code, start, now, err, len(stop.Departures))
	if err != nil {
		return false
	}
	if spec.Name != "" {
		stop = stop.WithName(spec.Name)
	}
	if stop.Code == "" {
		stop.Code = spec.Code
	}
	s.Store.SetStop(stop)
	s.Recorder.RecordStop(persistence.NewStopRecord(now, stop))
	return true
}

func (s *Scheduler) pollStatus(ctx context.Context, now time.Time) {
	if !s.due(feed.KindStatus, s.Polling.Status, now) {
		return
	}
	s.mark(feed.KindStatus, now)
	start := time.Now()
	status, err := s.Source.PollStatus(ctx)
	s.record(feed.KindStatus, "", start, now, err, 0)
	if err == nil {
		s.Store.SetStatus(status)
	}
}

func (s *Scheduler) pollNews(ctx context.Context, now time.Time) {
	if s.News == nil || !s.due(feed.KindNews, s.Polling.News, now) {
		return
	}
	s.mark(feed.KindNews, now)
	start := time.Now()
	news, err := s.News.PollNews(ctx)
	s.record(feed.KindNews, "", start, now, err, 0)
	if err == nil {
		s.Store.SetNews(news)
	}
}

func (s *Scheduler) pollWeather(ctx context.Context, now time.Time) {
	if s.Weather == nil || !s.due(feed.KindWeather, s.Polling.Weather, now) {
		return
	}
	s.mark(feed.KindWeather, now)
	start := time.Now()
	weather, err := s.Weather.PollWeather(ctx)
	s.record(feed.KindWeather, "", start, now, err, 0)
	if err == nil {
		s.Store.SetWeather(weather)
	}
}

func (s *Scheduler) record(kind, stop string, start, now time.Time, err error, departures int) {
	s.tickAttempted = true
	rec := persistence.PollRecord{
		At:         now,
		Kind:       kind,
		Stop:       stop,
		OK:         err == nil,
		DurationMS: time.Since(start).Milliseconds(),
		Departures: departures,
	}
	if err != nil {
		s.tickFailed = true
		rec.Error = err.Error()
		if !errors.Is(err, feed.ErrPollFailure) {
			err = &feed.PollError{Kind: kind, Stop: stop, Err: err}
		}
		s.Logger.Errorf("worker", "%v", err)
	}
	s.Recorder.RecordPoll(rec)
}

// settleNetwork publishes the tick's outcome: any failed poll raises the
// network flag, a tick whose polls all succeeded clears it, and a tick
// without polls leaves it alone.
func (s *Scheduler) settleNetwork() {
	if !s.tickAttempted {
		return
	}
	s.Store.SetNetworkIssues(s.tickFailed)
}

func (s *Scheduler) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// CurrentStop returns the configured stop at the rotation index.
func (s *Scheduler) CurrentStop() (config.StopSpec, bool) {
	rot := s.Rotation()
	if !rot.Initialized {
		return config.StopSpec{}, false
	}
	return s.Stops[rot.Index], true
}

// SeverityRate is the rotation rate that applies to stop under status.
func (s *Scheduler) SeverityRate(status transit.SystemStatus, stopCode string) time.Duration {
	return s.Rates.For(status.SeverityFor(stopCode))
}
