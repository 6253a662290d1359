package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

func newTestClient(t *testing.T, routes map[string]string) (*HTTPClient, chan string) {
	t.Helper()
	seen := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case seen <- r.URL.RequestURI():
		default:
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/", "k3y", 2*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.Now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return client, seen
}

func TestPollDepartures(t *testing.T) {
	client, seen := newTestClient(t, map[string]string{
		"/stops/WCRK/departures": `{
		  "stop": {"code": "WCRK"},
		  "departures": [
		    {"destination": "SFO/Millbrae", "minutes": 12, "platform": "1", "line": "ROUTE 1"},
		    {"destination": "Antioch", "minutes": 0, "platform": "2", "line": "yellow", "cars": 10},
		    {"destination": "Ghost", "minutes": -2},
		    {"destination": "Daly City", "minutes": 4, "delay_seconds": 120}
		  ]
		}`,
	})

	stop, err := client.PollDepartures(context.Background(), "WCRK")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if stop.Name != "Walnut Creek" {
		t.Fatalf("name = %q, want station table name", stop.Name)
	}
	if len(stop.Departures) != 3 {
		t.Fatalf("departures = %+v, want 3 after dropping past trains", stop.Departures)
	}
	order := []string{"Antioch", "Daly City", "SFO/Millbrae"}
	for i, want := range order {
		if stop.Departures[i].Destination != want {
			t.Fatalf("departures[%d] = %q, want %q", i, stop.Departures[i].Destination, want)
		}
	}
	if !stop.Departures[1].Delayed() {
		t.Fatal("120s delay not reported as delayed")
	}
	if !stop.UpdatedAt.Equal(client.Now()) {
		t.Fatalf("updated at = %v, want clock time", stop.UpdatedAt)
	}
	if got := <-seen; got != "/stops/WCRK/departures?api_key=k3y" {
		t.Fatalf("request uri = %q", got)
	}
}

func TestPollStatus(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/status": `{
		  "severity": "alert",
		  "updated_at": "2024-05-01T07:59:00Z",
		  "alerts": [{"title": "Delays at Embarcadero", "affected_stops": ["EMBR"]}]
		}`,
	})
	status, err := client.PollStatus(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if status.Severity != transit.SeverityAlert || len(status.Alerts) != 1 {
		t.Fatalf("status = %+v", status)
	}
	if status.SeverityFor("WCRK") != transit.SeverityNormal || status.SeverityFor("EMBR") != transit.SeverityAlert {
		t.Fatal("alert scoping lost")
	}
	if status.UpdatedAt.Minute() != 59 {
		t.Fatalf("updated at = %v, want payload time", status.UpdatedAt)
	}
}

func TestPollNewsAndWeather(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/news":    `{"items": ["Fare change July 1", " ", "New trains on the yellow line"]}`,
		"/weather": `{"temperature": 61.5, "conditions": "Fog"}`,
	})
	news, err := client.PollNews(context.Background())
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if news != "Fare change July 1 | New trains on the yellow line" {
		t.Fatalf("news = %q", news)
	}
	weather, err := client.PollWeather(context.Background())
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if weather.Unit != "F" || weather.Conditions != "Fog" || !weather.Available() {
		t.Fatalf("weather = %+v", weather)
	}
}

func TestPollFailures(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/status": `{"severity": "sideways"}`,
		"/news":   `not json`,
	})

	tests := []struct {
		name string
		poll func() error
		kind string
	}{
		{name: "http 404", kind: KindDepartures, poll: func() error {
			_, err := client.PollDepartures(context.Background(), "NOPE")
			return err
		}},
		{name: "schema violation", kind: KindStatus, poll: func() error {
			_, err := client.PollStatus(context.Background())
			return err
		}},
		{name: "bad json", kind: KindNews, poll: func() error {
			_, err := client.PollNews(context.Background())
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.poll()
			if !errors.Is(err, ErrPollFailure) {
				t.Fatalf("err = %v, want ErrPollFailure", err)
			}
			var pe *PollError
			if !errors.As(err, &pe) || pe.Kind != tt.kind {
				t.Fatalf("err = %#v, want PollError of kind %s", err, tt.kind)
			}
		})
	}
}

func TestPollCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{"/status": `{"severity": "normal"}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.PollStatus(ctx)
	if !errors.Is(err, ErrPollFailure) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want poll failure wrapping context.Canceled", err)
	}
}

func TestNewHTTPClientRequiresURL(t *testing.T) {
	if _, err := NewHTTPClient("  ", "", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
