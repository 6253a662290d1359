package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/craigm26/BARTDepartureBoard/internal/app"
	"github.com/craigm26/BARTDepartureBoard/internal/buttons"
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/feed"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/system"
	"github.com/craigm26/BARTDepartureBoard/internal/web"
)

const envStdioLog = "DEPARTUREBOARD_STDIO_LOG"

func main() {
	os.Exit(run())
}

func run() int {
	// Flags
	configPath := flag.String("config", "", "path to the YAML config file (defaults are used when empty)")
	device := flag.String("device", "", "override display.device: framebuffer, terminal or memory")
	listen := flag.String("listen", "", "override web.listen, e.g. :8080; also configurable via "+web.EnvListenAddr)
	debug := flag.Bool("debug", false, "enable debug logging to ./departureboard-debug.log")
	noLogo := flag.Bool("no-logo", false, "skip the startup splash")
	stdioLog := flag.String("stdio-log", "", "redirect stderr (including panics), and stdout unless drawing on the terminal, to this file; also configurable via "+envStdioLog)
	flag.Parse()

	// Local file logger when debug enabled
	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./departureboard-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		return 2
	}
	if *device != "" {
		cfg.Display.Device = *device
		if err := cfg.Validate(); err != nil {
			fmt.Println("config error:", err)
			return 2
		}
	}

	// Redirect after the config is known: the terminal device needs stdout.
	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv(envStdioLog)
	}
	if err := redirectStdIO(logPath, cfg.Display.Device == config.DeviceTerminal); err != nil {
		fmt.Println("stdio log redirect error:", err)
	}
	for _, note := range cfg.Notes {
		logger.Infof("config", "%v", note)
	}

	webDefault := cfg.Web.Listen
	if *listen != "" {
		webDefault = *listen
	}
	webCfg, err := web.DefaultServerConfigFromEnv(webDefault, cfg.Web.Dev)
	if err != nil {
		fmt.Println("web config error:", err)
		return 2
	}

	source, err := feed.NewHTTPClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.Timeout)
	if err != nil {
		fmt.Println("feed error:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	fonts := render.LoadFonts(logger)
	dev := newDevice(cfg.Display, fonts, logger)

	a := app.New(cfg, store, dev, source)
	a.Logger = logger
	a.NoLogo = *noLogo || !cfg.Display.Logo
	if cfg.Display.Device == config.DeviceFramebuffer {
		a.Console = system.NewConsole(logger)
		a.Buttons = buttons.NewKeyboardButtons(logger)
	}

	history := app.OpenHistory(cfg.Storage, logger)
	a.Recorder = history.Recorder

	if webCfg.ListenAddr != "" {
		deps := web.APIV1Deps{
			Store:   store,
			Frames:  frameSource(dev),
			Screens: a.Dispatcher,
			Advance: a.Scheduler,
			Logger:  logger,
		}
		if history.Index != nil {
			deps.Polls = history.Index
		}
		a.Web = web.NewHTTPServer(webCfg, deps)
	}

	if err := a.Start(ctx); err != nil {
		if errors.Is(err, render.ErrRenderTargetUnavailable) {
			fmt.Println("display error:", err)
			return 1
		}
		fmt.Println("app error:", err)
		return 1
	}
	return 0
}

func newDevice(cfg config.DisplayConfig, fonts *render.Fonts, logger app.Logger) render.Device {
	switch cfg.Device {
	case config.DeviceTerminal:
		d := render.NewTerminalDevice(cfg.Width, cfg.Height, fonts)
		d.Logger = logger
		return d
	case config.DeviceMemory:
		return render.NewMemoryDevice(cfg.Width, cfg.Height, fonts)
	default:
		d := render.NewFBDevice(cfg.Framebuffer, cfg.Width, cfg.Height, fonts)
		d.Logger = logger
		return d
	}
}

// frameSource exposes the device's last frame to the preview endpoint.
func frameSource(dev render.Device) web.FrameSource {
	if fs, ok := dev.(web.FrameSource); ok {
		return fs
	}
	return nil
}
