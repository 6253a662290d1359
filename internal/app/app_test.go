package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

type stubFeed struct{ polls atomic.Int32 }

func (f *stubFeed) PollDepartures(ctx context.Context, code string) (transit.Stop, error) {
	f.polls.Add(1)
	return transit.NewStop(code, "", []transit.Departure{{Destination: "Antioch", Minutes: 3}}, time.Now()), nil
}

func (f *stubFeed) PollStatus(ctx context.Context) (transit.SystemStatus, error) {
	return transit.NewSystemStatus(transit.SeverityNormal, nil, time.Now()), nil
}

type recordingConsole struct{ calls []string }

func (c *recordingConsole) EnterGraphics() error { c.calls = append(c.calls, "graphics"); return nil }
func (c *recordingConsole) Restore() error       { c.calls = append(c.calls, "text"); return nil }

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Display.Device = config.DeviceMemory
	cfg.Display.FPS = 60
	cfg.Polling.Tick = 10 * time.Millisecond
	cfg.Feed.News = false
	cfg.Feed.Weather = false
	return cfg
}

func lit(img *image.RGBA) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAppRunsAndClearsOnExit(t *testing.T) {
	cfg := testConfig()
	store := state.NewStore()
	dev := render.NewMemoryDevice(cfg.Display.Width, cfg.Display.Height, nil)
	src := &stubFeed{}
	a := New(cfg, store, dev, src)
	console := &recordingConsole{}
	a.Console = console

	done := make(chan error, 1)
	go func() { done <- a.Start(context.Background()) }()

	waitFor(t, "first stop", func() bool { return store.Snapshot().Stop != nil })
	waitFor(t, "departures frame", func() bool {
		sel, ok := a.Dispatcher.Last()
		return ok && sel.String() == "departures" && lit(dev.Frame())
	})

	a.Exit(nil)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	if lit(dev.Frame()) {
		t.Fatal("display not cleared on shutdown")
	}
	if !dev.Stopped() {
		t.Fatal("device not closed")
	}
	if strings.Join(console.calls, ",") != "graphics,text" {
		t.Fatalf("console calls = %v", console.calls)
	}
	if snap := store.Snapshot(); snap.Stop.Name != "Walnut Creek" {
		t.Fatalf("stop name = %q", snap.Stop.Name)
	}
}

func TestAppDeviceUnavailable(t *testing.T) {
	cfg := testConfig()
	dev := render.NewFBDevice("/nonexistent/fb9", 64, 32, nil)
	a := New(cfg, state.NewStore(), dev, &stubFeed{})
	err := a.Start(context.Background())
	if !errors.Is(err, render.ErrRenderTargetUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestAppStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	a := New(cfg, state.NewStore(), render.NewMemoryDevice(32, 16, nil), &stubFeed{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop on cancel")
	}
}

type shutdownLog struct {
	mu    sync.Mutex
	order []string
}

func (l *shutdownLog) add(what string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, what)
}

func (l *shutdownLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

type orderedServer struct{ log *shutdownLog }

func (s orderedServer) Start(ctx context.Context) error { s.log.add("web start"); return nil }
func (s orderedServer) Stop() error                     { s.log.add("web stop"); return nil }

type orderedRecorder struct{ log *shutdownLog }

func (r orderedRecorder) RecordPoll(persistence.PollRecord) {}
func (r orderedRecorder) RecordStop(persistence.StopRecord) {}
func (r orderedRecorder) Close() error                      { r.log.add("history close"); return nil }

func TestAppStopsWebBeforeHistory(t *testing.T) {
	cfg := testConfig()
	log := &shutdownLog{}
	a := New(cfg, state.NewStore(), render.NewMemoryDevice(32, 16, nil), &stubFeed{})
	a.Web = orderedServer{log: log}
	a.Recorder = orderedRecorder{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	waitFor(t, "web start", func() bool { return len(log.get()) > 0 })
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop on cancel")
	}

	want := []string{"web start", "web stop", "history close"}
	got := log.get()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("shutdown order = %v, want %v", got, want)
	}
}

func TestOpenHistory(t *testing.T) {
	dir := t.TempDir()
	h := OpenHistory(config.StorageConfig{DataDir: dir, Index: true, Journal: true}, NoopLogger{})
	if h.Index == nil || h.Journal == nil {
		t.Fatalf("history = %+v", h)
	}
	h.Recorder.RecordPoll(persistence.PollRecord{At: time.Now(), Kind: "status", OK: true})
	if err := h.Recorder.Close(); err != nil {
		t.Fatal(err)
	}

	off := OpenHistory(config.StorageConfig{}, NoopLogger{})
	if off.Index != nil || off.Journal != nil {
		t.Fatal("empty data dir should disable history")
	}
	if _, ok := off.Recorder.(persistence.Nop); !ok {
		t.Fatalf("recorder = %T", off.Recorder)
	}
}

func TestFileLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileLogger(&buf)
	l.Infof("worker", "polled %s", "WCRK")
	l.Errorf("feed", "boom")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], " [INFO] worker: polled WCRK") || !strings.Contains(lines[1], " [ERROR] feed: boom") {
		t.Fatalf("lines = %q", lines)
	}
}
