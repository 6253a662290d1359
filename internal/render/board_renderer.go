package render

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/craigm26/BARTDepartureBoard/internal/state"
)

const defaultFPS = 30

// BoardRenderer paints the current screen onto a Device at a fixed rate.
// It only ever reads store snapshots.
type BoardRenderer struct {
	Device Device
	Screen Screen
	Logger Logger
	FPS    int

	// Splash is drawn once by DrawSplash, centred and fitted to the canvas.
	Splash image.Image

	running atomic.Bool
	frames  atomic.Int64
}

func NewBoardRenderer(device Device, screen Screen) *BoardRenderer {
	return &BoardRenderer{Device: device, Screen: screen, FPS: defaultFPS}
}

func (r *BoardRenderer) Start(ctx context.Context) error {
	if err := r.Device.Start(ctx); err != nil {
		return err
	}
	r.running.Store(true)
	return nil
}

// Stop blanks the display and releases the device.
func (r *BoardRenderer) Stop() error {
	if !r.running.Swap(false) {
		return nil
	}
	r.Device.Clear(Background)
	if err := r.Device.Swap(); err != nil && r.Logger != nil {
		r.Logger.Errorf("render", "final clear failed: %v", err)
	}
	return r.Device.Stop()
}

// DrawSplash shows the splash image until the first frame replaces it.
func (r *BoardRenderer) DrawSplash() {
	if !r.running.Load() {
		return
	}
	r.Device.Clear(Background)
	if r.Splash != nil {
		w, h := r.Device.Size()
		r.Device.DrawImageInRect(r.Splash, image.Rect(0, 0, w, h), ScaleModeFit)
	}
	if err := r.Device.Swap(); err != nil && r.Logger != nil {
		r.Logger.Errorf("render", "splash swap failed: %v", err)
	}
}

// RedrawWithState paints one frame from snap.
func (r *BoardRenderer) RedrawWithState(snap state.State) {
	if !r.running.Load() || r.Screen == nil {
		return
	}
	r.Device.Clear(Background)
	r.Screen.Draw(r.Device, snap)
	if err := r.Device.Swap(); err != nil {
		if r.Logger != nil {
			r.Logger.Errorf("render", "swap failed: %v", err)
		}
		return
	}
	r.frames.Add(1)
}

// Frames is the number of frames presented by RedrawWithState.
func (r *BoardRenderer) Frames() int64 { return r.frames.Load() }

// RunLoop redraws at FPS until the context is done.
func (r *BoardRenderer) RunLoop(ctx context.Context, store *state.Store) {
	fps := r.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	lastLog := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := store.Snapshot()
			r.RedrawWithState(snap)
			if r.Logger != nil && time.Since(lastLog) > time.Minute {
				r.Logger.Infof("render", "heartbeat frames=%d version=%d stop=%s", r.Frames(), snap.Version, snap.StopCode())
				lastLog = time.Now()
			}
		}
	}
}
