// Package persistence defines the history records written by the worker
// loop. The sqlite index (pollindex) answers queries; the compressed
// journal (snaplog) is the append-only source of truth.
package persistence

import (
	"errors"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// PollRecord is the outcome of one upstream poll.
type PollRecord struct {
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	Stop       string    `json:"stop,omitempty"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Departures int       `json:"departures,omitempty"`
}

// DepartureRecord is a flattened transit.Departure.
type DepartureRecord struct {
	Destination  string `json:"destination"`
	Minutes      int    `json:"minutes"`
	Platform     string `json:"platform,omitempty"`
	Line         string `json:"line,omitempty"`
	DelaySeconds int    `json:"delay_seconds,omitempty"`
}

// StopRecord is a stop as it was published to the display.
type StopRecord struct {
	At         time.Time         `json:"at"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	Departures []DepartureRecord `json:"departures"`
}

func NewStopRecord(at time.Time, stop transit.Stop) StopRecord {
	deps := make([]DepartureRecord, len(stop.Departures))
	for i, d := range stop.Departures {
		deps[i] = DepartureRecord{
			Destination:  d.Destination,
			Minutes:      d.Minutes,
			Platform:     d.Platform,
			Line:         d.Line,
			DelaySeconds: d.DelaySeconds,
		}
	}
	return StopRecord{At: at, Code: stop.Code, Name: stop.Name, Departures: deps}
}

// Recorder accepts history records. Implementations must not block the
// caller on disk I/O for longer than a buffered write.
type Recorder interface {
	RecordPoll(PollRecord)
	RecordStop(StopRecord)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordPoll(PollRecord) {}
func (Nop) RecordStop(StopRecord) {}
func (Nop) Close() error          { return nil }

// Multi fans records out to every recorder.
type Multi []Recorder

func (m Multi) RecordPoll(r PollRecord) {
	for _, rec := range m {
		rec.RecordPoll(r)
	}
}

func (m Multi) RecordStop(r StopRecord) {
	for _, rec := range m {
		rec.RecordStop(r)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, rec := range m {
		if err := rec.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
