//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const evKey = 0x01

// WatchKeys watches Linux evdev devices under /dev/input/event* and calls
// onKey for every press of one of keys. onKey may be called from several
// goroutines.
//
// It is best-effort: if no input devices are available, it logs and returns.
func WatchKeys(ctx context.Context, logger Logger, keys []Key, onKey func(Key)) {
	if onKey == nil || len(keys) == 0 {
		return
	}
	wanted := make(map[Key]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if logger != nil {
			logger.Infof("input", "no evdev devices found, function keys disabled")
		}
		return
	}

	// input_event = timeval + u16 type + u16 code + s32 value.
	tvSize := binary.Size(unix.Timeval{})

	for _, path := range paths {
		p := path
		go func() {
			fd, err := unix.Open(p, unix.O_RDONLY|unix.O_NONBLOCK, 0)
			if err != nil {
				return
			}
			f := os.NewFile(uintptr(fd), p)
			defer func() {
				_ = f.Close()
			}()

			buf := make([]byte, 4096)
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
				if _, pollErr := unix.Poll(pollFds, 250); pollErr != nil {
					if pollErr == unix.EINTR {
						continue
					}
					// Device might have gone away.
					return
				}
				if pollFds[0].Revents&unix.POLLIN == 0 {
					continue
				}

				n, readErr := unix.Read(fd, buf)
				if readErr != nil {
					if readErr == unix.EAGAIN || readErr == unix.EINTR {
						continue
					}
					return
				}
				for _, key := range parseKeyPresses(buf[:n], tvSize) {
					if !wanted[key] {
						continue
					}
					if logger != nil {
						logger.Infof("input", "%s pressed", key)
					}
					onKey(key)
				}
			}
		}()
	}
}

// parseKeyPresses decodes a run of input_event records and returns the
// keys that went down. Repeats and releases are ignored.
func parseKeyPresses(buf []byte, tvSize int) []Key {
	eventSize := tvSize + 2 + 2 + 4
	var pressed []Key
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		// type and code are immediately after timeval.
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ == evKey && value == 1 {
			pressed = append(pressed, Key(code))
		}
	}
	return pressed
}
