// Package feed fetches departures, service status, news and weather from
// the upstream transit API.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// ErrPollFailure matches every error returned by a Source.
var ErrPollFailure = errors.New("poll failure")

// Source is the minimum a board needs: departures per stop and the
// line-wide status.
type Source interface {
	PollDepartures(ctx context.Context, stopCode string) (transit.Stop, error)
	PollStatus(ctx context.Context) (transit.SystemStatus, error)
}

type NewsSource interface {
	PollNews(ctx context.Context) (string, error)
}

type WeatherSource interface {
	PollWeather(ctx context.Context) (transit.Weather, error)
}

// Poll targets, as recorded in history and passed to PollError.
const (
	KindDepartures = "departures"
	KindStatus     = "status"
	KindNews       = "news"
	KindWeather    = "weather"
)

// PollError describes one failed poll. errors.Is(err, ErrPollFailure)
// holds for every PollError.
type PollError struct {
	Kind string
	Stop string
	Err  error
}

func (e *PollError) Error() string {
	if e.Stop != "" {
		return fmt.Sprintf("poll %s %s: %v", e.Kind, e.Stop, e.Err)
	}
	return fmt.Sprintf("poll %s: %v", e.Kind, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

func (e *PollError) Is(target error) bool { return target == ErrPollFailure }

func pollError(kind, stop string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PollError
	if errors.As(err, &pe) {
		return err
	}
	return &PollError{Kind: kind, Stop: stop, Err: err}
}
