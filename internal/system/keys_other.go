//go:build !linux

package system

import "context"

// WatchKeys is unavailable outside Linux.
func WatchKeys(ctx context.Context, logger Logger, keys []Key, onKey func(Key)) {
	if logger != nil {
		logger.Infof("input", "function keys are only supported on linux")
	}
}
