//go:build linux

package system

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

var consolePaths = []string{"/dev/tty", "/dev/tty0"}

// Console switches the active virtual terminal between text and graphics
// mode so the kernel cursor and console text do not bleed through the
// framebuffer.
type Console struct {
	Logger Logger
	Paths  []string
}

func NewConsole(logger Logger) *Console {
	return &Console{Logger: logger, Paths: consolePaths}
}

// EnterGraphics sets KD_GRAPHICS and hides the cursor. Failures are logged
// and returned; the board still runs without them.
func (c *Console) EnterGraphics() error {
	err := c.setMode(kdGraphics)
	c.log(err, "KD_GRAPHICS set", "KD_GRAPHICS failed")
	if cursorErr := c.writeVT("\x1b[?25l"); cursorErr != nil {
		c.log(cursorErr, "", "hide cursor failed")
		if err == nil {
			err = cursorErr
		}
	}
	return err
}

// Restore shows the cursor and puts the console back in text mode.
func (c *Console) Restore() error {
	_ = c.writeVT("\x1b[?25h")
	err := c.setMode(kdText)
	c.log(err, "KD_TEXT set", "KD_TEXT failed")
	return err
}

func (c *Console) setMode(mode int) error {
	var lastErr error
	for _, p := range c.paths() {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			lastErr = fmt.Errorf("open %s: %w", p, err)
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		_ = unix.Close(fd)
		if err != nil {
			lastErr = fmt.Errorf("KDSETMODE %d on %s: %w", mode, p, err)
			continue
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("KDSETMODE %d: no console device", mode)
}

func (c *Console) writeVT(s string) error {
	var lastErr error
	for _, p := range c.paths() {
		f, err := os.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = f.WriteString(s)
		_ = f.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("write VT failed: %v", lastErr)
}

func (c *Console) paths() []string {
	if len(c.Paths) == 0 {
		return consolePaths
	}
	return c.Paths
}

func (c *Console) log(err error, ok, failed string) {
	if c.Logger == nil {
		return
	}
	if err != nil {
		c.Logger.Errorf("tty", "%s: %v", failed, err)
		return
	}
	if ok != "" {
		c.Logger.Infof("tty", "%s", ok)
	}
}
