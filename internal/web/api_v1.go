package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/app/screens"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

const (
	defaultPollLimit = 50
	maxPollLimit     = 1000
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// SnapshotSource is typically *state.Store.
type SnapshotSource interface {
	Snapshot() state.State
}

// FrameSource returns the last presented frame of the display.
type FrameSource interface {
	Frame() *image.RGBA
}

// ScreenSource reports the board shown on the last frame.
type ScreenSource interface {
	Last() (screens.Selection, bool)
}

// PollHistory is typically *pollindex.SQLiteIndex.
type PollHistory interface {
	Recent(ctx context.Context, limit int) ([]persistence.PollRecord, error)
	LastDepartures(ctx context.Context, stop string) ([]persistence.DepartureRecord, error)
}

// Advancer is typically *scheduler.Scheduler.
type Advancer interface {
	RequestAdvance()
}

// APIV1Deps wires the API to the running board. Any nil dependency makes
// its endpoints answer 501.
type APIV1Deps struct {
	Store   SnapshotSource
	Frames  FrameSource
	Screens ScreenSource
	Polls   PollHistory
	Advance Advancer
	Logger  Logger

	// StreamInterval is how often /stream checks for a new snapshot.
	StreamInterval time.Duration
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type departureResponse struct {
	Destination  string `json:"destination"`
	Minutes      int    `json:"minutes"`
	Platform     string `json:"platform,omitempty"`
	Line         string `json:"line,omitempty"`
	Color        string `json:"color"`
	DelaySeconds int    `json:"delay_seconds,omitempty"`
}

type stopResponse struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	Departures []departureResponse `json:"departures"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type alertResponse struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	AffectedStops []string `json:"affected_stops,omitempty"`
}

type statusResponse struct {
	Severity  string          `json:"severity"`
	Alerts    []alertResponse `json:"alerts"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`
}

type weatherResponse struct {
	Temperature float64   `json:"temperature"`
	Unit        string    `json:"unit"`
	Conditions  string    `json:"conditions,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type snapshotResponse struct {
	Version       uint64           `json:"version"`
	Stop          *stopResponse    `json:"stop"`
	Status        statusResponse   `json:"status"`
	News          string           `json:"news,omitempty"`
	Weather       *weatherResponse `json:"weather,omitempty"`
	NetworkIssues bool             `json:"network_issues"`
}

type screenResponse struct {
	Screen       string `json:"screen"`
	NetworkError bool   `json:"network_error"`
}

func newSnapshotResponse(snap state.State) snapshotResponse {
	out := snapshotResponse{
		Version:       snap.Version,
		News:          snap.News,
		NetworkIssues: snap.NetworkIssues,
		Status: statusResponse{
			Severity:  snap.Status.Severity.String(),
			Alerts:    make([]alertResponse, 0, len(snap.Status.Alerts)),
			UpdatedAt: snap.Status.UpdatedAt,
		},
	}
	for _, a := range snap.Status.Alerts {
		out.Status.Alerts = append(out.Status.Alerts, alertResponse{Title: a.Title, Description: a.Description, AffectedStops: a.AffectedStops})
	}
	if snap.Stop != nil {
		stop := &stopResponse{
			Code:       snap.Stop.Code,
			Name:       snap.Stop.Name,
			Departures: make([]departureResponse, 0, len(snap.Stop.Departures)),
			UpdatedAt:  snap.Stop.UpdatedAt,
		}
		for _, d := range snap.Stop.Departures {
			stop.Departures = append(stop.Departures, departureResponse{
				Destination:  d.Destination,
				Minutes:      d.Minutes,
				Platform:     d.Platform,
				Line:         d.Line,
				Color:        transit.LineColor(d.Line),
				DelaySeconds: d.DelaySeconds,
			})
		}
		out.Stop = stop
	}
	if snap.Weather.Available() {
		out.Weather = &weatherResponse{
			Temperature: snap.Weather.Temperature,
			Unit:        snap.Weather.Unit,
			Conditions:  snap.Weather.Conditions,
			UpdatedAt:   snap.Weather.UpdatedAt,
		}
	}
	return out
}

func apiV1Router(deps APIV1Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) { handleSnapshot(w, r, deps) })
	mux.HandleFunc("/screen", func(w http.ResponseWriter, r *http.Request) { handleScreen(w, r, deps) })
	mux.HandleFunc("/polls", func(w http.ResponseWriter, r *http.Request) { handlePolls(w, r, deps) })
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) { handleLastDepartures(w, r, deps) })
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) { handleFrame(w, r, deps) })
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) { handleNext(w, r, deps) })
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) { handleStream(w, r, deps) })
	return mux
}

func handleSnapshot(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if deps.Store == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "state not configured")
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(deps.Store.Snapshot()))
}

func handleScreen(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if deps.Screens == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "screens not configured")
		return
	}
	sel, ok := deps.Screens.Last()
	if !ok {
		writeAPIError(w, http.StatusServiceUnavailable, "no_frame", "no frame drawn yet")
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: sel.String(), NetworkError: sel.NetworkError})
}

func handlePolls(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if deps.Polls == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "poll history disabled")
		return
	}
	limit := defaultPollLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeAPIError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxPollLimit {
		limit = maxPollLimit
	}
	polls, err := deps.Polls.Recent(r.Context(), limit)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	if polls == nil {
		polls = []persistence.PollRecord{}
	}
	writeJSON(w, http.StatusOK, polls)
}

type lastDeparturesResponse struct {
	Stop       string                        `json:"stop"`
	Departures []persistence.DepartureRecord `json:"departures"`
}

// handleLastDepartures serves GET /history/{stop}: the departures last
// published for a stop, which may be older than the current snapshot.
func handleLastDepartures(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if deps.Polls == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "poll history disabled")
		return
	}
	code := strings.ToUpper(strings.Trim(strings.TrimPrefix(r.URL.Path, "/history/"), "/"))
	if code == "" || strings.Contains(code, "/") {
		writeAPIError(w, http.StatusBadRequest, "invalid_stop", "expected /history/{stop}")
		return
	}
	last, err := deps.Polls.LastDepartures(r.Context(), code)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	if last == nil {
		last = []persistence.DepartureRecord{}
	}
	writeJSON(w, http.StatusOK, lastDeparturesResponse{Stop: code, Departures: last})
}

func handleFrame(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if deps.Frames == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "display not configured")
		return
	}
	frame := deps.Frames.Frame()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, frame); err != nil && deps.Logger != nil {
		deps.Logger.Errorf("web", "frame encode failed: %v", err)
	}
}

func handleNext(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if deps.Advance == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "rotation not configured")
		return
	}
	deps.Advance.RequestAdvance()
	if deps.Logger != nil {
		deps.Logger.Infof("web", "rotation advance requested by %s", r.RemoteAddr)
	}
	writeJSON(w, http.StatusAccepted, okResponse{OK: true})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	return false
}

var errNoStore = errors.New("state not configured")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
