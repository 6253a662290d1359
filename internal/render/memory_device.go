package render

import (
	"context"
	"sync/atomic"
)

// MemoryDevice keeps frames in memory only. The simulator and tests use it,
// and the web preview reads Frame from it like from any other device.
type MemoryDevice struct {
	*Canvas
	swaps   atomic.Int64
	stopped atomic.Bool
}

func NewMemoryDevice(width, height int, fonts *Fonts) *MemoryDevice {
	return &MemoryDevice{Canvas: NewCanvas(width, height, fonts)}
}

func (d *MemoryDevice) Start(ctx context.Context) error { return nil }

func (d *MemoryDevice) Stop() error {
	d.stopped.Store(true)
	return nil
}

func (d *MemoryDevice) Swap() error {
	d.present()
	d.swaps.Add(1)
	return nil
}

// Swaps is the number of frames presented so far.
func (d *MemoryDevice) Swaps() int64 { return d.swaps.Load() }

func (d *MemoryDevice) Stopped() bool { return d.stopped.Load() }
