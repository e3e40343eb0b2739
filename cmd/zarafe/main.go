package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"zarafe/internal/controllers"
	"zarafe/internal/eventbus"
	"zarafe/internal/importer"
	"zarafe/internal/logger"
	"zarafe/internal/media"
	"zarafe/internal/project"
	"zarafe/internal/services"
	"zarafe/internal/settings"
	"zarafe/internal/shutdown"
	"zarafe/internal/store"
	"zarafe/internal/video"
	"zarafe/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName = "Zarafe"
	AppID   = "fi.zarafe.annotator"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Application holds the wired components and their lifecycle.
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger

	controller *controllers.MainController
	view       *views.MainView

	settings *settings.Settings
	store    *store.Store
	bus      *eventbus.Bus
	shutdown *shutdown.Manager
}

func main() {
	application, err := NewApplication()
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}

	application.Run()
}

// NewApplication loads settings and wires settings -> logger -> store -> services -> controller -> view.
func NewApplication() (*Application, error) {
	dir, err := settings.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := settings.Load(dir)
	if err != nil {
		return nil, err
	}

	appLogger := logger.New(cfg.Log.Format, determineLogLevel(cfg.Log.Level), os.Stderr)
	appLogger.Info("main", "application starting", map[string]interface{}{
		"version":    version,
		"settings":   cfg.Path(),
		"go_version": runtime.Version(),
	})

	st, err := store.Open(cfg.State.DBPath, appLogger)
	if err != nil {
		// the app works without persisted state
		appLogger.Error("main", err, map[string]interface{}{"path": cfg.State.DBPath})
		st = nil
	}

	tools := media.NewTools(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, appLogger)
	if !tools.Available() {
		appLogger.Warning("main", "ffmpeg/ffprobe not found; import of non-mp4 videos and fps probing are disabled", map[string]interface{}{
			"ffmpeg":  cfg.Tools.FFmpeg,
			"ffprobe": cfg.Tools.FFprobe,
		})
	}

	shutdownManager := shutdown.NewManager(appLogger)
	bus := eventbus.NewBus(64, appLogger)
	if st != nil {
		bus.Subscribe(eventbus.SessionSaved, services.NewStatusRecorder(st, appLogger))
	}

	projectService := services.NewProjectService(
		project.NewService(), st, importer.New(tools, appLogger), cfg.State.RecentLimit, appLogger,
	)
	annotationService := services.NewAnnotationService(
		video.NewManager(tools, appLogger),
		video.NewRenderer(cfg.Playback.GazeDotRadius),
		bus,
		cfg.Annotation.UndoDepth,
		appLogger,
	)

	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: version,
	})
	fyneApp := app.NewWithID(AppID)

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	window.CenterOnScreen()

	controllers.AppVersion = version
	mainController := controllers.NewMainController(
		shutdownManager.Context(), projectService, annotationService, bus, cfg, appLogger,
	)
	mainView := views.NewMainView(window, cfg.Playback.JumpFrames)
	mainController.SetMainView(mainView)
	mainController.SetWindow(window)

	application := &Application{
		fyneApp:    fyneApp,
		window:     window,
		logger:     appLogger,
		controller: mainController,
		view:       mainView,
		settings:   cfg,
		store:      st,
		bus:        bus,
		shutdown:   shutdownManager,
	}

	// Shutdown runs in reverse registration order.
	if st != nil {
		shutdownManager.Register("store", shutdown.Func(func() {
			if err := st.Close(); err != nil {
				appLogger.Error("main", err, map[string]interface{}{"component": "store"})
			}
		}))
	}
	shutdownManager.Register("eventbus", shutdown.Func(bus.Shutdown))
	shutdownManager.Register("controller", shutdown.Func(mainController.Shutdown))

	application.setupWindowEvents()

	appLogger.Info("main", "application initialized", map[string]interface{}{
		"window_size": fmt.Sprintf("%.0fx%.0f", cfg.Window.Width, cfg.Window.Height),
		"log_level":   determineLogLevel(cfg.Log.Level).String(),
		"state_db":    st != nil,
	})
	return application, nil
}

// Run shows the window and blocks until the app quits.
func (a *Application) Run() {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	fyne.Do(func() {
		a.view.Show()
		a.controller.Start()
	})

	a.fyneApp.Run()

	a.shutdown.Shutdown()
	a.logger.Info("main", "application terminated", nil)
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("main", "window close requested", nil)
		a.controller.RequestClose(func() {
			a.shutdown.Shutdown()
			a.window.Close()
		})
	})
}

// determineLogLevel reads LOG_LEVEL, then DEBUG=1, then the settings file value.
func determineLogLevel(configured string) logger.LogLevel {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		return logger.ParseLevel(env)
	}
	if os.Getenv("DEBUG") == "1" {
		return logger.DebugLevel
	}
	return logger.ParseLevel(configured)
}

// Interface checks for the collaborators wired above.
var (
	_ video.Prober          = (*media.Tools)(nil)
	_ importer.Transcoder   = (*media.Tools)(nil)
	_ eventbus.EventHandler = (*services.StatusRecorder)(nil)
	_ shutdown.Shutdownable = shutdown.Func(nil)
)
