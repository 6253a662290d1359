package transit

import (
	"sort"
	"strings"
	"time"
)

// Departure is one upcoming train at a stop.
type Departure struct {
	Destination  string
	Minutes      int // 0 means boarding now
	Platform     string
	Line         string // colour tag, e.g. "yellow"
	DelaySeconds int
	Direction    string
	Cars         int
}

func (d Departure) Boarding() bool { return d.Minutes == 0 }
func (d Departure) Arriving() bool { return d.Minutes <= 1 }
func (d Departure) Delayed() bool  { return d.DelaySeconds > 60 }

// Stop is a snapshot of one station and its departures.
//
// Build it with NewStop; published stops are shared between goroutines and
// must not be modified afterwards.
type Stop struct {
	Code       string
	Name       string
	Departures []Departure
	UpdatedAt  time.Time
}

// NewStop copies departures and sorts them by minutes until arrival.
// Departures with equal minutes keep their input order.
func NewStop(code, name string, departures []Departure, updatedAt time.Time) Stop {
	sorted := make([]Departure, len(departures))
	copy(sorted, departures)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Minutes < sorted[j].Minutes
	})
	return Stop{Code: code, Name: name, Departures: sorted, UpdatedAt: updatedAt}
}

func (s Stop) HasDepartures() bool { return len(s.Departures) > 0 }

// WithName returns a copy of the stop carrying a different display name.
func (s Stop) WithName(name string) Stop {
	s.Name = name
	return s
}

type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityNormal
	SeverityAlert
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "normal"
	case SeverityAlert:
		return "alert"
	default:
		return "unknown"
	}
}

func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "normal":
		return SeverityNormal
	case "alert":
		return SeverityAlert
	default:
		return SeverityUnknown
	}
}

type Alert struct {
	Title       string
	Description string
	Cause       string
	Effect      string

	// AffectedStops lists stop codes; empty means system-wide.
	AffectedStops []string
}

func (a Alert) Affects(stopCode string) bool {
	if len(a.AffectedStops) == 0 {
		return true
	}
	for _, code := range a.AffectedStops {
		if strings.EqualFold(code, stopCode) {
			return true
		}
	}
	return false
}

// SystemStatus is the line-wide service status.
type SystemStatus struct {
	Severity  Severity
	Alerts    []Alert
	UpdatedAt time.Time
}

// NewSystemStatus copies alerts. An alert list with no explicit severity
// implies SeverityAlert.
func NewSystemStatus(severity Severity, alerts []Alert, updatedAt time.Time) SystemStatus {
	copied := make([]Alert, len(alerts))
	for i, alert := range alerts {
		alert.AffectedStops = append([]string(nil), alert.AffectedStops...)
		copied[i] = alert
	}
	if severity == SeverityUnknown && len(copied) > 0 {
		severity = SeverityAlert
	}
	return SystemStatus{Severity: severity, Alerts: copied, UpdatedAt: updatedAt}
}

func (s SystemStatus) Populated() bool { return s.Severity != SeverityUnknown }

// SeverityFor reports the severity as seen from one stop: alerts that do
// not touch the stop leave it normal.
func (s SystemStatus) SeverityFor(stopCode string) Severity {
	if s.Severity == SeverityUnknown {
		return SeverityUnknown
	}
	for _, alert := range s.Alerts {
		if alert.Affects(stopCode) {
			return SeverityAlert
		}
	}
	return SeverityNormal
}

// Ticker joins alert titles for a scrolling line. An empty stopCode
// includes every alert.
func (s SystemStatus) Ticker(stopCode string) string {
	titles := make([]string, 0, len(s.Alerts))
	for _, alert := range s.Alerts {
		if stopCode != "" && !alert.Affects(stopCode) {
			continue
		}
		title := strings.TrimSpace(alert.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return strings.Join(titles, " | ")
}

type Weather struct {
	Temperature float64
	Unit        string // "F" or "C"
	Conditions  string
	UpdatedAt   time.Time
}

func (w Weather) Available() bool { return !w.UpdatedAt.IsZero() }
