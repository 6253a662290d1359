//go:build !linux

package system

// Console is a no-op outside Linux; there is no virtual terminal to switch.
type Console struct {
	Logger Logger
	Paths  []string
}

func NewConsole(logger Logger) *Console { return &Console{Logger: logger} }

func (c *Console) EnterGraphics() error { return nil }
func (c *Console) Restore() error       { return nil }
