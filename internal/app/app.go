package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"sync/atomic"

	"github.com/craigm26/BARTDepartureBoard/internal/app/screens"
	"github.com/craigm26/BARTDepartureBoard/internal/assets"
	"github.com/craigm26/BARTDepartureBoard/internal/buttons"
	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/feed"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/render"
	"github.com/craigm26/BARTDepartureBoard/internal/scheduler"
	"github.com/craigm26/BARTDepartureBoard/internal/state"
	"github.com/craigm26/BARTDepartureBoard/internal/web"
)

// Console puts the virtual terminal out of the way of the framebuffer.
// *system.Console implements it.
type Console interface {
	EnterGraphics() error
	Restore() error
}

// App owns the two long-running loops: the scheduler (worker) polling the
// feed into Store, and the renderer painting Store at its own pace.
type App struct {
	Config     config.Config
	Store      *state.Store
	Device     render.Device
	Renderer   *render.BoardRenderer
	Dispatcher *screens.Dispatcher
	Scheduler  *scheduler.Scheduler
	Web        web.Server
	Buttons    buttons.Buttons
	Recorder   persistence.Recorder
	Console    Console
	Logger     Logger
	NoLogo     bool

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(cfg config.Config, store *state.Store, device render.Device, source feed.Source) *App {
	dispatcher := screens.NewDispatcher(cfg, store, nil)
	renderer := render.NewBoardRenderer(device, dispatcher)
	renderer.FPS = cfg.Display.FPS
	return &App{
		Config:     cfg,
		Store:      store,
		Device:     device,
		Renderer:   renderer,
		Dispatcher: dispatcher,
		Scheduler:  scheduler.New(cfg, store, source),
		Web:        &web.NoopServer{},
		Buttons:    buttons.NewNoopButtons(),
		Recorder:   persistence.Nop{},
		Logger:     NoopLogger{},
		exitCh:     make(chan error, 1),
	}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start runs the board until ctx is done or Exit is called. A device that
// cannot be opened is returned as render.ErrRenderTargetUnavailable.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	app.wireLoggers()

	// Entered first so the display is cleared before text mode returns.
	if app.Console != nil {
		_ = app.Console.EnterGraphics()
		defer func() { _ = app.Console.Restore() }()
	}

	if err := app.Renderer.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		return err
	}
	defer func() {
		if err := app.Renderer.Stop(); err != nil {
			app.Logger.Errorf("app", "renderer stop error: %v", err)
		}
	}()

	if !app.NoLogo {
		app.Renderer.Splash = decodeSplash(app.Logger)
	}
	app.Renderer.DrawSplash()

	if app.Web != nil {
		if err := app.Web.Start(ctx); err != nil {
			app.Logger.Errorf("web", "web server start failed: %v", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.Buttons != nil {
		if err := app.Buttons.Start(loopCtx); err != nil {
			app.Logger.Errorf("input", "buttons start failed: %v", err)
		}
		go app.handleButtons(loopCtx)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.Scheduler.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		app.Renderer.RunLoop(loopCtx, app.Store)
	}()
	app.Logger.Infof("app", "board running, stops=%d device=%s", len(app.Scheduler.Stops), app.Config.Display.Device)

	var err error
	select {
	case <-ctx.Done():
	case err = <-app.exitCh:
	}
	cancel()
	// The worker finishes its current tick before returning.
	wg.Wait()

	if app.Buttons != nil {
		_ = app.Buttons.Stop()
	}
	// Handlers read the poll index, so the server goes down before history.
	if app.Web != nil {
		if werr := app.Web.Stop(); werr != nil {
			app.Logger.Errorf("web", "web server stop error: %v", werr)
		}
	}
	if app.Recorder != nil {
		if cerr := app.Recorder.Close(); cerr != nil {
			app.Logger.Errorf("app", "history close error: %v", cerr)
		}
	}
	app.Logger.Infof("app", "board stopped")
	return err
}

// Stop asks a running Start to return.
func (app *App) Stop() error {
	app.Exit(nil)
	return nil
}

func (app *App) handleButtons(ctx context.Context) {
	events := app.Buttons.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev {
			case buttons.Exit:
				app.Logger.Infof("input", "exit requested")
				app.Exit(nil)
			case buttons.Next:
				app.Scheduler.RequestAdvance()
			}
		}
	}
}

func (app *App) wireLoggers() {
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	app.Renderer.Logger = app.Logger
	app.Dispatcher.Logger = app.Logger
	app.Dispatcher.Offday.Logger = app.Logger
	app.Scheduler.Logger = app.Logger
	if app.Recorder != nil {
		app.Scheduler.Recorder = app.Recorder
	}
}

func decodeSplash(logger Logger) image.Image {
	img, err := png.Decode(bytes.NewReader(assets.LogoPNG))
	if err != nil {
		logger.Errorf("render", "logo load failed: %v", err)
		return nil
	}
	return img
}
