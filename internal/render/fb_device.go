package render

import (
	"context"
	"fmt"
	"image"
	"image/color"

	fb "github.com/gonutz/framebuffer"
)

// FBDevice renders to the Linux framebuffer. The logical canvas is scaled
// to the framebuffer resolution on every Swap.
type FBDevice struct {
	*Canvas
	Path   string
	Logger Logger

	fbDev *fb.Device
}

func NewFBDevice(path string, width, height int, fonts *Fonts) *FBDevice {
	if path == "" {
		path = "/dev/fb0"
	}
	return &FBDevice{Canvas: NewCanvas(width, height, fonts), Path: path}
}

func (d *FBDevice) Start(ctx context.Context) error {
	dev, err := fb.Open(d.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrRenderTargetUnavailable, d.Path, err)
	}
	d.fbDev = dev
	if d.Logger != nil {
		bounds := dev.Bounds()
		w, h := d.Size()
		d.Logger.Infof("fb", "framebuffer open, bounds=%dx%d canvas=%dx%d", bounds.Dx(), bounds.Dy(), w, h)
	}
	return nil
}

func (d *FBDevice) Stop() error {
	if d.fbDev != nil {
		d.fbDev.Close()
		d.fbDev = nil
	}
	return nil
}

func (d *FBDevice) Swap() error {
	d.present()
	return blitToFB(d.fbDev, d.Back())
}

// Helper: blit canvas to framebuffer via nearest-neighbor scaling.
func blitToFB(dev *fb.Device, canvas *image.RGBA) error {
	if dev == nil {
		return nil
	}
	bounds := dev.Bounds()
	fbWidth := bounds.Dx()
	fbHeight := bounds.Dy()
	canvasWidth := canvas.Bounds().Dx()
	canvasHeight := canvas.Bounds().Dy()
	for y := 0; y < fbHeight; y++ {
		sy := (y * canvasHeight) / fbHeight
		for x := 0; x < fbWidth; x++ {
			sx := (x * canvasWidth) / fbWidth
			pixel := canvas.RGBAAt(sx, sy)
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
	return nil
}
