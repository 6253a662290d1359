package transit

import (
	"math/rand"
	"testing"
	"time"
)

func TestNewStopSortsDepartures(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		input := make([]Departure, n)
		for i := range input {
			input[i] = Departure{Destination: "D", Minutes: rng.Intn(30)}
		}
		stop := NewStop("POWL", "Powell St.", input, time.Unix(0, 0))
		if len(stop.Departures) != n {
			t.Fatalf("round %d: got %d departures, want %d", round, len(stop.Departures), n)
		}
		for i := 1; i < len(stop.Departures); i++ {
			if stop.Departures[i-1].Minutes > stop.Departures[i].Minutes {
				t.Fatalf("round %d: departures not sorted at %d: %v", round, i, stop.Departures)
			}
		}
	}
}

func TestNewStopCopiesInput(t *testing.T) {
	input := []Departure{{Destination: "Antioch", Minutes: 9}, {Destination: "Richmond", Minutes: 2}}
	stop := NewStop("MONT", "Montgomery St.", input, time.Time{})
	input[0].Destination = "changed"

	for _, dep := range stop.Departures {
		if dep.Destination == "changed" {
			t.Fatal("stop shares backing array with caller input")
		}
	}
	if stop.Departures[0].Destination != "Richmond" {
		t.Fatalf("first departure = %q, want Richmond", stop.Departures[0].Destination)
	}
}

func TestNewStopStableForEqualMinutes(t *testing.T) {
	stop := NewStop("X", "X", []Departure{
		{Destination: "A", Minutes: 5},
		{Destination: "B", Minutes: 5},
		{Destination: "C", Minutes: 1},
	}, time.Time{})
	got := stop.Departures[1].Destination + stop.Departures[2].Destination
	if got != "AB" {
		t.Fatalf("equal-minute order = %q, want AB", got)
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		name   string
		status SystemStatus
		stop   string
		want   Severity
	}{
		{name: "unknown stays unknown", status: SystemStatus{}, stop: "WCRK", want: SeverityUnknown},
		{name: "normal without alerts", status: NewSystemStatus(SeverityNormal, nil, time.Time{}), stop: "WCRK", want: SeverityNormal},
		{
			name:   "system-wide alert",
			status: NewSystemStatus(SeverityAlert, []Alert{{Title: "Delays"}}, time.Time{}),
			stop:   "WCRK",
			want:   SeverityAlert,
		},
		{
			name:   "alert elsewhere",
			status: NewSystemStatus(SeverityAlert, []Alert{{Title: "Elevator", AffectedStops: []string{"EMBR"}}}, time.Time{}),
			stop:   "WCRK",
			want:   SeverityNormal,
		},
		{
			name:   "alert here, case-insensitive",
			status: NewSystemStatus(SeverityAlert, []Alert{{Title: "Elevator", AffectedStops: []string{"wcrk"}}}, time.Time{}),
			stop:   "WCRK",
			want:   SeverityAlert,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.SeverityFor(tt.stop); got != tt.want {
				t.Errorf("SeverityFor(%q) = %v, want %v", tt.stop, got, tt.want)
			}
		})
	}
}

func TestNewSystemStatusInfersAlert(t *testing.T) {
	status := NewSystemStatus(SeverityUnknown, []Alert{{Title: "x"}}, time.Time{})
	if status.Severity != SeverityAlert {
		t.Fatalf("severity = %v, want alert", status.Severity)
	}
}

func TestTicker(t *testing.T) {
	status := NewSystemStatus(SeverityAlert, []Alert{
		{Title: "Delay between Embarcadero and West Oakland"},
		{Title: "  "},
		{Title: "Weekend track maintenance", AffectedStops: []string{"RICH"}},
	}, time.Time{})

	if got, want := status.Ticker(""), "Delay between Embarcadero and West Oakland | Weekend track maintenance"; got != want {
		t.Errorf("Ticker(\"\") = %q, want %q", got, want)
	}
	if got, want := status.Ticker("WCRK"), "Delay between Embarcadero and West Oakland"; got != want {
		t.Errorf("Ticker(WCRK) = %q, want %q", got, want)
	}
}

func TestParseSeverity(t *testing.T) {
	for raw, want := range map[string]Severity{"normal": SeverityNormal, " ALERT ": SeverityAlert, "": SeverityUnknown, "bogus": SeverityUnknown} {
		if got := ParseSeverity(raw); got != want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", raw, got, want)
		}
	}
}
