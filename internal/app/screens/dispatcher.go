package screens

import (
	"sync"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
)

// ScrollReporter receives the stop code whose departures ticker finished
// a pass. *state.Store implements it.
type ScrollReporter interface {
	ReportScrollPass(stopCode string)
}

// Dispatcher resolves the screen for each frame and paints exactly one
// board. It implements render.Screen and is only used from the render loop,
// except Last which is safe for concurrent use.
type Dispatcher struct {
	Policy   Policy
	Reporter ScrollReporter
	Logger   Logger

	Departures   *DeparturesBoard
	Status       *StatusBoard
	Offday       *OffdayBoard
	NetworkError *NetworkErrorBoard

	newsRouted bool

	mu   sync.Mutex
	last Selection
	seen bool
}

func NewDispatcher(cfg config.Config, reporter ScrollReporter, logger Logger) *Dispatcher {
	speed := cfg.Display.ScrollingSpeed
	offday := NewOffdayBoard(cfg.Display.TimeFormat, cfg.Screens.ServiceHours, cfg.Screens.InfoURL, speed)
	offday.Logger = logger
	return &Dispatcher{
		Policy:       PolicyFromConfig(cfg.Screens),
		Reporter:     reporter,
		Logger:       logger,
		Departures:   NewDeparturesBoard(cfg.Display.TimeFormat, speed),
		Status:       NewStatusBoard(speed),
		Offday:       offday,
		NetworkError: &NetworkErrorBoard{FramesPerDot: framesPerDot(cfg.Display.FPS)},
	}
}

func (disp *Dispatcher) Draw(d render.Drawer, snap state.State) {
	sel := Select(snap, disp.Policy)
	disp.setLast(sel)

	if sel.NetworkError {
		disp.NetworkError.Draw(d, snap)
		return
	}
	switch sel.Screen {
	case Departures:
		disp.Departures.Draw(d, snap)
		if disp.Departures.Finished() && disp.Reporter != nil {
			disp.Reporter.ReportScrollPass(snap.StopCode())
		}
	case SystemStatus:
		disp.Status.Draw(d, snap)
	case News, PreferredStationOffday:
		if sel.Screen == News && !disp.newsRouted {
			disp.newsRouted = true
			if disp.Logger != nil {
				disp.Logger.Infof("render", "news screen shown on the offday board")
			}
		}
		disp.Offday.Draw(d, snap)
	case SystemOffday:
		disp.Offday.Draw(d, snap)
	}
}

// Last returns the selection of the most recent frame.
func (disp *Dispatcher) Last() (Selection, bool) {
	disp.mu.Lock()
	defer disp.mu.Unlock()
	return disp.last, disp.seen
}

func (disp *Dispatcher) setLast(sel Selection) {
	disp.mu.Lock()
	disp.last, disp.seen = sel, true
	disp.mu.Unlock()
}

// Two dot steps per second.
func framesPerDot(fps int) int {
	if fps <= 1 {
		return 1
	}
	return fps / 2
}
