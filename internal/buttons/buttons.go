package buttons

import (
	"context"
	"sync"

	"github.com/craigm26/BARTDepartureBoard/internal/system"
)

type Event string

const (
	// Exit stops the board.
	Exit Event = "exit"
	// Next rotates to the next stop on the following worker tick.
	Next Event = "next"
)

type Buttons interface {
	Start(ctx context.Context) error
	Stop() error
	Events() <-chan Event
}

type NoopButtons struct{ ch chan Event }

func NewNoopButtons() *NoopButtons { return &NoopButtons{ch: make(chan Event)} }

func (n *NoopButtons) Start(ctx context.Context) error { return nil }
func (n *NoopButtons) Stop() error                     { close(n.ch); return nil }
func (n *NoopButtons) Events() <-chan Event            { return n.ch }

// Keymap binds function keys to events.
var Keymap = map[system.Key]Event{
	system.KeyF4: Exit,
	system.KeyF5: Next,
}

// KeyboardButtons turns evdev function key presses into events. Presses
// arriving while the channel is full are dropped.
type KeyboardButtons struct {
	Logger system.Logger

	ch     chan Event
	cancel context.CancelFunc
	once   sync.Once
}

func NewKeyboardButtons(logger system.Logger) *KeyboardButtons {
	return &KeyboardButtons{Logger: logger, ch: make(chan Event, 8)}
}

func (k *KeyboardButtons) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	keys := make([]system.Key, 0, len(Keymap))
	for key := range Keymap {
		keys = append(keys, key)
	}
	system.WatchKeys(watchCtx, k.Logger, keys, k.press)
	return nil
}

func (k *KeyboardButtons) press(key system.Key) {
	event, ok := Keymap[key]
	if !ok {
		return
	}
	select {
	case k.ch <- event:
	default:
	}
}

// Stop ends the watchers. The events channel stays open since watcher
// goroutines may still be delivering.
func (k *KeyboardButtons) Stop() error {
	k.once.Do(func() {
		if k.cancel != nil {
			k.cancel()
		}
	})
	return nil
}

func (k *KeyboardButtons) Events() <-chan Event { return k.ch }
