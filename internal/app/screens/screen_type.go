package screens

import (
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
)

// ScreenType is the board selected for a frame. It is derived from a
// snapshot every time and never stored.
type ScreenType int

const (
	News ScreenType = iota
	SystemStatus
	SystemOffday
	// PreferredStationOffday is kept for boards that distinguish a closed
	// home station from a closed system. Resolve never returns it; it is
	// drawn as the offday board.
	PreferredStationOffday
	Departures
)

func (t ScreenType) String() string {
	switch t {
	case News:
		return "news"
	case SystemStatus:
		return "system_status"
	case SystemOffday:
		return "system_offday"
	case PreferredStationOffday:
		return "preferred_station_offday"
	case Departures:
		return "departures"
	default:
		return "unknown"
	}
}

// DefaultPrecedence is the rule order used when a Policy has none.
var DefaultPrecedence = []string{config.RuleAlwaysNews, config.RuleAlwaysStatus, config.RuleDepartures}

// Policy holds the configured screen overrides and their order.
type Policy struct {
	AlwaysNews   bool
	AlwaysStatus bool
	Precedence   []string
}

func PolicyFromConfig(c config.ScreensConfig) Policy {
	return Policy{
		AlwaysNews:   c.AlwaysNews,
		AlwaysStatus: c.AlwaysStatus,
		Precedence:   append([]string(nil), c.Precedence...),
	}
}

func (p Policy) rules() []string {
	if len(p.Precedence) == 0 {
		return DefaultPrecedence
	}
	return p.Precedence
}

// Resolve picks the board for a snapshot. Rules are tried in precedence
// order; when none applies the system status board is shown. Network
// issues are not considered here, see Select.
func Resolve(snap state.State, policy Policy) ScreenType {
	for _, rule := range policy.rules() {
		switch rule {
		case config.RuleAlwaysNews:
			if policy.AlwaysNews && snap.NewsAvailable() {
				return News
			}
		case config.RuleAlwaysStatus:
			if policy.AlwaysStatus {
				return SystemStatus
			}
		case config.RuleDepartures:
			if snap.Stop != nil {
				if snap.Stop.HasDepartures() {
					return Departures
				}
				return SystemOffday
			}
		}
	}
	return SystemStatus
}

// Selection is the outcome for one frame: either the network error board
// or a resolved screen.
type Selection struct {
	NetworkError bool
	Screen       ScreenType
}

func (s Selection) String() string {
	if s.NetworkError {
		return "network_error"
	}
	return s.Screen.String()
}

// Select applies the network override on top of Resolve.
func Select(snap state.State, policy Policy) Selection {
	if snap.NetworkIssues {
		return Selection{NetworkError: true}
	}
	return Selection{Screen: Resolve(snap, policy)}
}
