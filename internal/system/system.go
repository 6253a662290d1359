// Package system holds the Linux console and input plumbing of the board:
// virtual terminal mode switching and evdev function key watching.
package system

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Key is a Linux input-event-codes.h key code.
type Key uint16

const (
	KeyF4 Key = 62
	KeyF5 Key = 63
)

func (k Key) String() string {
	switch k {
	case KeyF4:
		return "F4"
	case KeyF5:
		return "F5"
	default:
		return "key"
	}
}
