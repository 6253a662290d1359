package screens

import (
	"math/rand"
	"testing"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

func stopWith(n int) *transit.Stop {
	deps := make([]transit.Departure, n)
	for i := range deps {
		deps[i] = transit.Departure{Destination: "Antioch", Minutes: i * 4}
	}
	s := transit.NewStop("WCRK", "Walnut Creek", deps, time.Time{})
	return &s
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		snap   state.State
		policy Policy
		want   ScreenType
	}{
		{name: "no stop", snap: state.State{}, want: SystemStatus},
		{name: "departures", snap: state.State{Stop: stopWith(3)}, want: Departures},
		{name: "stop without trains", snap: state.State{Stop: stopWith(0)}, want: SystemOffday},
		{name: "always news with news", snap: state.State{Stop: stopWith(2), News: "Fare change"}, policy: Policy{AlwaysNews: true}, want: News},
		{name: "always news without news", snap: state.State{Stop: stopWith(2)}, policy: Policy{AlwaysNews: true}, want: Departures},
		{name: "always status", snap: state.State{Stop: stopWith(2)}, policy: Policy{AlwaysStatus: true}, want: SystemStatus},
		{name: "news beats status", snap: state.State{News: "x"}, policy: Policy{AlwaysNews: true, AlwaysStatus: true}, want: News},
		{
			name:   "reordered precedence",
			snap:   state.State{Stop: stopWith(2), News: "x"},
			policy: Policy{AlwaysNews: true, AlwaysStatus: true, Precedence: []string{config.RuleDepartures, config.RuleAlwaysStatus, config.RuleAlwaysNews}},
			want:   Departures,
		},
		{
			name:   "reordered precedence without stop",
			snap:   state.State{News: "x"},
			policy: Policy{AlwaysNews: true, AlwaysStatus: true, Precedence: []string{config.RuleDepartures, config.RuleAlwaysStatus, config.RuleAlwaysNews}},
			want:   SystemStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.snap, tt.policy); got != tt.want {
				t.Fatalf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectNetworkIssuesWin(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		snap := state.State{NetworkIssues: true}
		if rng.Intn(2) == 0 {
			snap.Stop = stopWith(rng.Intn(4))
		}
		if rng.Intn(2) == 0 {
			snap.News = "news"
		}
		policy := Policy{AlwaysNews: rng.Intn(2) == 0, AlwaysStatus: rng.Intn(2) == 0}
		if sel := Select(snap, policy); !sel.NetworkError {
			t.Fatalf("snapshot %+v with network issues selected %v", snap, sel)
		}
	}
}

// Every combination resolves to exactly one screen, and that screen never
// depends on anything outside the four resolver inputs.
func TestResolveTotal(t *testing.T) {
	stops := []*transit.Stop{nil, stopWith(0), stopWith(2)}
	for _, stop := range stops {
		for _, news := range []string{"", "n"} {
			for _, alwaysNews := range []bool{false, true} {
				for _, alwaysStatus := range []bool{false, true} {
					policy := Policy{AlwaysNews: alwaysNews, AlwaysStatus: alwaysStatus}
					snap := state.State{Stop: stop, News: news}
					got := Resolve(snap, policy)
					if got == PreferredStationOffday {
						t.Fatalf("resolver produced %v", got)
					}
					snap.Weather = transit.Weather{Conditions: "Fog", UpdatedAt: time.Now()}
					snap.Version = 99
					if again := Resolve(snap, policy); again != got {
						t.Fatalf("unrelated fields changed the result: %v vs %v", got, again)
					}
				}
			}
		}
	}
}
