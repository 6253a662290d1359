// Package config loads the board configuration from YAML.
//
// A Config is read-only once Load returns. Problems that have a safe
// fallback (an empty rotation list, a stop without a code) are not errors:
// the fallback is applied and the reason is recorded in Notes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

// ErrConfigurationMissing marks a note about a required value that was
// missing and replaced by a fallback.
var ErrConfigurationMissing = errors.New("configuration missing")

const (
	DeviceFramebuffer = "framebuffer"
	DeviceTerminal    = "terminal"
	DeviceMemory      = "memory"

	TimeFormat12h = "12h"
	TimeFormat24h = "24h"

	RuleAlwaysNews   = "always_news"
	RuleAlwaysStatus = "always_status"
	RuleDepartures   = "departures"
)

// DefaultServiceHours is the off-day ticker text when screens.service_hours
// is empty.
const DefaultServiceHours = "Service hours: Mon-Fri 5am-midnight, Sat 6am-midnight, Sun 8am-midnight"

type Config struct {
	Display  DisplayConfig  `yaml:"display"`
	Feed     FeedConfig     `yaml:"feed"`
	Rotation RotationConfig `yaml:"rotation"`
	Polling  PollingConfig  `yaml:"polling"`
	Screens  ScreensConfig  `yaml:"screens"`
	Storage  StorageConfig  `yaml:"storage"`
	Web      WebConfig      `yaml:"web"`

	// Notes lists fallbacks applied while loading. Each wraps
	// ErrConfigurationMissing.
	Notes []error `yaml:"-"`
}

type DisplayConfig struct {
	Device      string `yaml:"device"`
	Framebuffer string `yaml:"framebuffer"`

	// Width and Height are the logical canvas size in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`

	// TimeFormat is "12h" or "24h".
	TimeFormat string `yaml:"time_format"`

	// ScrollingSpeed is in pixels per rendered frame.
	ScrollingSpeed float64 `yaml:"scrolling_speed"`
	Logo           bool    `yaml:"logo"`
}

type FeedConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	News    bool          `yaml:"news"`
	Weather bool          `yaml:"weather"`
}

type StopSpec struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type RotationConfig struct {
	Stops        []StopSpec `yaml:"stops"`
	FallbackStop StopSpec   `yaml:"fallback_stop"`
	Rates        RateConfig `yaml:"rates"`
}

// RateConfig is the minimum time a stop stays on screen, by severity.
type RateConfig struct {
	Normal  time.Duration `yaml:"normal"`
	Alert   time.Duration `yaml:"alert"`
	Unknown time.Duration `yaml:"unknown"`
}

func (r RateConfig) For(severity transit.Severity) time.Duration {
	switch severity {
	case transit.SeverityNormal:
		return r.Normal
	case transit.SeverityAlert:
		return r.Alert
	default:
		return r.Unknown
	}
}

type PollingConfig struct {
	Tick       time.Duration `yaml:"tick"`
	Departures time.Duration `yaml:"departures"`
	Status     time.Duration `yaml:"status"`
	News       time.Duration `yaml:"news"`
	Weather    time.Duration `yaml:"weather"`
}

type ScreensConfig struct {
	AlwaysNews       bool     `yaml:"always_news"`
	AlwaysStatus     bool     `yaml:"always_status"`
	StatusOnNoTrains bool     `yaml:"status_on_no_trains"`
	NewsOnNoTrains   bool     `yaml:"news_on_no_trains"`
	Precedence       []string `yaml:"precedence"`
	InfoURL          string   `yaml:"info_url"`
	ServiceHours     string   `yaml:"service_hours"`
}

type StorageConfig struct {
	// DataDir holds index.db and journal/. Empty disables history.
	DataDir string `yaml:"data_dir"`
	Index   bool   `yaml:"index"`
	Journal bool   `yaml:"journal"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
	Dev    bool   `yaml:"dev"`
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Display: DisplayConfig{
			Device:         DeviceFramebuffer,
			Framebuffer:    "/dev/fb0",
			Width:          192,
			Height:         96,
			FPS:            30,
			TimeFormat:     TimeFormat12h,
			ScrollingSpeed: 1,
			Logo:           true,
		},
		Feed: FeedConfig{
			BaseURL: "http://127.0.0.1:8080/feed",
			Timeout: 10 * time.Second,
			News:    true,
			Weather: true,
		},
		Rotation: RotationConfig{
			Stops:        []StopSpec{{Code: "WCRK", Name: "Walnut Creek"}},
			FallbackStop: StopSpec{Code: "WCRK", Name: "Walnut Creek"},
			Rates: RateConfig{
				Normal:  15 * time.Second,
				Alert:   30 * time.Second,
				Unknown: 15 * time.Second,
			},
		},
		Polling: PollingConfig{
			Tick:       500 * time.Millisecond,
			Departures: 30 * time.Second,
			Status:     60 * time.Second,
			News:       5 * time.Minute,
			Weather:    10 * time.Minute,
		},
		Screens: ScreensConfig{
			StatusOnNoTrains: true,
			NewsOnNoTrains:   true,
			Precedence:       []string{RuleAlwaysNews, RuleAlwaysStatus, RuleDepartures},
			ServiceHours:     DefaultServiceHours,
		},
		Storage: StorageConfig{
			DataDir: "./data",
			Index:   true,
			Journal: true,
		},
	}
}

// Normalize canonicalises codes and names and applies the stop fallback.
// It is idempotent.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Display.Device = strings.ToLower(strings.TrimSpace(c.Display.Device))
	c.Display.TimeFormat = strings.ToLower(strings.TrimSpace(c.Display.TimeFormat))
	c.Feed.BaseURL = strings.TrimRight(strings.TrimSpace(c.Feed.BaseURL), "/")

	for i := range c.Screens.Precedence {
		c.Screens.Precedence[i] = strings.ToLower(strings.TrimSpace(c.Screens.Precedence[i]))
	}
	if len(c.Screens.Precedence) > 0 {
		if c.Screens.AlwaysNews && !c.Screens.hasRule(RuleAlwaysNews) {
			c.note("screens.always_news is set but screens.precedence has no %q rule, ignored", RuleAlwaysNews)
		}
		if c.Screens.AlwaysStatus && !c.Screens.hasRule(RuleAlwaysStatus) {
			c.note("screens.always_status is set but screens.precedence has no %q rule, ignored", RuleAlwaysStatus)
		}
	}

	c.Rotation.FallbackStop = normalizeStop(c.Rotation.FallbackStop)
	if c.Rotation.FallbackStop.Code == "" {
		c.Rotation.FallbackStop = StopSpec{Code: "WCRK", Name: "Walnut Creek"}
	}

	stops := make([]StopSpec, 0, len(c.Rotation.Stops))
	for i, s := range c.Rotation.Stops {
		s = normalizeStop(s)
		if s.Code == "" {
			c.note("rotation.stops[%d] has no code, skipped", i)
			continue
		}
		stops = append(stops, s)
	}
	if len(stops) == 0 {
		fb := c.Rotation.FallbackStop
		c.note("rotation.stops is empty, using %s %q", fb.Code, fb.Name)
		stops = append(stops, fb)
	}
	c.Rotation.Stops = stops
}

func (s ScreensConfig) hasRule(rule string) bool {
	for _, r := range s.Precedence {
		if r == rule {
			return true
		}
	}
	return false
}

func normalizeStop(s StopSpec) StopSpec {
	s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" && s.Code != "" {
		if name, ok := transit.StationName(s.Code); ok {
			s.Name = name
		} else {
			s.Name = s.Code
		}
	}
	return s
}

func (c *Config) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for _, n := range c.Notes {
		if strings.HasSuffix(n.Error(), msg) {
			return
		}
	}
	c.Notes = append(c.Notes, fmt.Errorf("%w: %s", ErrConfigurationMissing, msg))
}

func (c Config) Validate() error {
	switch c.Display.Device {
	case DeviceFramebuffer, DeviceTerminal, DeviceMemory:
	default:
		return fmt.Errorf("display.device %q must be one of framebuffer, terminal, memory", c.Display.Device)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size must be > 0 (got %dx%d)", c.Display.Width, c.Display.Height)
	}
	if c.Display.FPS <= 0 || c.Display.FPS > 120 {
		return fmt.Errorf("display.fps must be in [1, 120]")
	}
	if c.Display.TimeFormat != TimeFormat12h && c.Display.TimeFormat != TimeFormat24h {
		return fmt.Errorf("display.time_format must be 12h or 24h")
	}
	if c.Display.ScrollingSpeed <= 0 {
		return fmt.Errorf("display.scrolling_speed must be > 0")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be > 0")
	}
	if c.Rotation.Rates.Normal < 0 || c.Rotation.Rates.Alert < 0 || c.Rotation.Rates.Unknown < 0 {
		return fmt.Errorf("rotation.rates must be >= 0")
	}
	if c.Polling.Tick <= 0 {
		return fmt.Errorf("polling.tick must be > 0")
	}
	if c.Polling.Departures < 0 || c.Polling.Status < 0 || c.Polling.News < 0 || c.Polling.Weather < 0 {
		return fmt.Errorf("polling intervals must be >= 0")
	}

	seen := map[string]bool{}
	for _, rule := range c.Screens.Precedence {
		switch rule {
		case RuleAlwaysNews, RuleAlwaysStatus, RuleDepartures:
		default:
			return fmt.Errorf("screens.precedence: unknown rule %q", rule)
		}
		if seen[rule] {
			return fmt.Errorf("screens.precedence: duplicate rule %q", rule)
		}
		seen[rule] = true
	}
	if !seen[RuleDepartures] {
		return fmt.Errorf("screens.precedence must include %q", RuleDepartures)
	}

	codes := map[string]bool{}
	for _, s := range c.Rotation.Stops {
		if codes[s.Code] {
			return fmt.Errorf("rotation.stops: duplicate code %s", s.Code)
		}
		codes[s.Code] = true
	}
	return nil
}
