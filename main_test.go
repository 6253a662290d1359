package main

import (
	"testing"

	"github.com/craigm26/BARTDepartureBoard/internal/app"
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
)

func TestNewDevice(t *testing.T) {
	cfg := config.Defaults().Display
	for _, device := range []string{config.DeviceFramebuffer, config.DeviceTerminal, config.DeviceMemory} {
		t.Run(device, func(t *testing.T) {
			cfg.Device = device
			dev := newDevice(cfg, nil, app.NoopLogger{})
			w, h := dev.Size()
			if w != cfg.Width || h != cfg.Height {
				t.Fatalf("size = %dx%d", w, h)
			}
			// Every device keeps its last frame for the preview page.
			if frameSource(dev) == nil {
				t.Fatal("no frame source")
			}
		})
	}

	cfg.Device = config.DeviceMemory
	if _, ok := newDevice(cfg, nil, app.NoopLogger{}).(*render.MemoryDevice); !ok {
		t.Fatal("memory device not selected")
	}
}
