package buttons

import (
	"testing"

	"github.com/craigm26/BARTDepartureBoard/internal/system"
)

func TestKeyboardPressMapsAndDrops(t *testing.T) {
	k := NewKeyboardButtons(nil)
	k.press(system.KeyF5)
	k.press(system.Key(30)) // unmapped
	k.press(system.KeyF4)
	if got := <-k.Events(); got != Next {
		t.Fatalf("first event = %s", got)
	}
	if got := <-k.Events(); got != Exit {
		t.Fatalf("second event = %s", got)
	}

	for i := 0; i < cap(k.ch)+4; i++ {
		k.press(system.KeyF5)
	}
	if len(k.ch) != cap(k.ch) {
		t.Fatalf("buffered = %d", len(k.ch))
	}
	if err := k.Stop(); err != nil {
		t.Fatal(err)
	}
}
