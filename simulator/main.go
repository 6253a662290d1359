package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/craigm26/BARTDepartureBoard/internal/app"
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaults, err := web.DefaultServerConfigFromEnv(":8080", false)
	if err != nil {
		fmt.Println("server config error:", err)
		return 2
	}

	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable dev mode; also configurable via "+web.EnvDevMode)
	configPath := flag.String("config", "", "optional board config; the simulator forces its own feed")
	scenario := flag.String("scenario", ScenarioDepartures, "simulated feed scenario: "+strings.Join(scenarioNames, " | "))
	device := flag.String("device", config.DeviceMemory, "render target: memory | terminal")
	dataDir := flag.String("data-dir", "", "record poll history here (disabled when empty)")
	debug := flag.Bool("debug", false, "log to ./departureboard-sim.log")
	flag.Parse()

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./departureboard-sim.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println("debug log open error:", err)
		} else {
			defer f.Close()
			logger = app.NewFileLogger(f)
		}
	}

	cfg, err := simConfig(*configPath, *device, *dataDir)
	if err != nil {
		fmt.Println("config error:", err)
		return 2
	}

	simFeed, err := NewSimFeed(*scenario)
	if err != nil {
		fmt.Println("scenario init error:", err)
		return 2
	}
	control := NewSimControl(simFeed, *scenario)

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	fonts := render.LoadFonts(logger)
	var dev render.Device
	if cfg.Display.Device == config.DeviceTerminal {
		td := render.NewTerminalDevice(cfg.Display.Width, cfg.Display.Height, fonts)
		td.Logger = logger
		dev = td
	} else {
		dev = render.NewMemoryDevice(cfg.Display.Width, cfg.Display.Height, fonts)
	}

	a := app.New(cfg, store, dev, simFeed)
	a.Logger = logger
	a.NoLogo = !cfg.Display.Logo

	history := app.OpenHistory(cfg.Storage, logger)
	a.Recorder = history.Recorder

	server := newSimServer(web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode}, a, history, control)
	a.Web = server

	// The terminal device owns stdout once started.
	if cfg.Display.Device != config.DeviceTerminal {
		fmt.Println("Departure board simulator listening on", displayAddr(*listenAddr))
		fmt.Println("Scenario:", simFeed.Scenario())
		fmt.Println("Preview: http://" + displayAddr(*listenAddr) + "/")
		fmt.Println("Feed:    http://" + displayAddr(*listenAddr) + "/feed")
	}

	if err := a.Start(processCtx); err != nil {
		fmt.Println("simulator error:", err)
		return 1
	}
	return 0
}

// simConfig starts from the defaults (or a config file) and points the
// board at the simulator: no framebuffer, no real feed.
func simConfig(path, device, dataDir string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	switch device {
	case config.DeviceMemory, config.DeviceTerminal:
		cfg.Display.Device = device
	default:
		return cfg, fmt.Errorf("simulator device must be %s or %s (got %q)", config.DeviceMemory, config.DeviceTerminal, device)
	}
	cfg.Storage.DataDir = dataDir
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newSimServer(cfg web.ServerConfig, a *app.App, history app.History, control *SimControl) *web.HTTPServer {
	deps := web.APIV1Deps{
		Store:   a.Store,
		Screens: a.Dispatcher,
		Advance: a.Scheduler,
		Logger:  a.Logger,
	}
	if fs, ok := a.Device.(web.FrameSource); ok {
		deps.Frames = fs
	}
	if history.Index != nil {
		deps.Polls = history.Index
	}
	server := web.NewHTTPServer(cfg, deps)
	server.Mount = func(mux *http.ServeMux) {
		registerSimEndpoints(mux, control)
		registerFeedEndpoints(mux, control.Feed)
	}
	return server
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	return addr
}
