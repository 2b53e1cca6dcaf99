// Package app wires the application components together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/meditrack/meditrack/internal/alert"
	"github.com/meditrack/meditrack/internal/api"
	"github.com/meditrack/meditrack/internal/config"
	apperrors "github.com/meditrack/meditrack/internal/errors"
	"github.com/meditrack/meditrack/internal/medication"
	"github.com/meditrack/meditrack/internal/notify"
	"github.com/meditrack/meditrack/internal/reminder"
	"github.com/meditrack/meditrack/internal/schedule"
	"github.com/meditrack/meditrack/internal/scheduler"
	"github.com/meditrack/meditrack/internal/store"
	remotesync "github.com/meditrack/meditrack/internal/sync"
)

// App holds the application components
type App struct {
	Config    *config.Config
	Store     *store.Store
	Logger    *zap.Logger
	Reminders *reminder.Store
	Scheduler *scheduler.Scheduler
	Presenter *alert.Presenter
	Version   string
}

// New creates the app shell; components are built in RunServer.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, version string) *App {
	return &App{
		Config:  cfg,
		Store:   st,
		Logger:  logger,
		Version: version,
	}
}

// RunServer builds the component graph, starts the scheduler and HTTP
// server, and blocks until an interrupt arrives.
func (app *App) RunServer() {
	remote := remotesync.NewClient(app.Config.Remote, app.Logger)
	reminders := reminder.NewStore(remote, app.Logger)
	app.Reminders = reminders

	presenter := alert.New(nil, app.Logger)
	app.Presenter = presenter

	sched := scheduler.New(reminders, presenter, app.Logger).
		WithSnoozeDuration(time.Duration(app.Config.Scheduler.SnoozeMinutes) * time.Minute)
	presenter.SetSnoozer(sched)
	app.Scheduler = sched

	if app.Config.Scheduler.Vibration {
		// No vibration hardware on a headless host; the hook reports
		// unsupported and the scheduler degrades silently.
		sched.WithVibrator(func() error {
			return apperrors.ErrVibrationUnsupported
		})
	}

	if app.Config.Notify.WhatsApp.Enabled {
		sender, err := notify.NewWhatsAppSender(app.Config.Notify.WhatsApp, app.Logger)
		if err != nil {
			app.Logger.Warn("WhatsApp channel unavailable", zap.Error(err))
		} else {
			sched.WithNotifier(sender)
			app.Logger.Info("WhatsApp channel enabled")
		}
	}

	medications := medication.NewService(app.Store.DB(), app.Logger)
	events := schedule.NewService(app.Store.DB(), app.Logger)

	sched.WithMidnightJob(func() {
		if err := medications.ResetDaily(); err != nil {
			app.Logger.Warn("Daily medication reset failed", zap.Error(err))
		}
	})

	// Hydrate from the backend; fall back to the cached snapshot when it
	// is unreachable so reminders survive a backend outage.
	app.hydrate(reminders)

	if err := sched.Start(); err != nil {
		app.Logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	server := api.New(app.Config, api.Deps{
		Reminders:   reminders,
		Presenter:   presenter,
		Scheduler:   sched,
		Medications: medications,
		Events:      events,
	}, app.Logger)

	go func() {
		if err := server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
		zap.String("version", app.Version),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	// Timers must be torn down before the server stops answering, so no
	// fire lands on a dead presenter.
	sched.Close()

	if err := app.saveSnapshot(reminders); err != nil {
		app.Logger.Warn("Failed to save reminder snapshot", zap.Error(err))
	}

	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
}

func (app *App) hydrate(reminders *reminder.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reminders.Hydrate(ctx); err != nil {
		app.Logger.Warn("Backend hydration failed, trying cached snapshot", zap.Error(err))

		cached, cacheErr := app.Store.LoadReminderSnapshot()
		if cacheErr != nil {
			app.Logger.Warn("No cached reminder snapshot, starting empty", zap.Error(cacheErr))
			return
		}
		reminders.Replace(cached)
		app.Logger.Info("Reminders restored from cache", zap.Int("count", len(cached)))
		return
	}

	if err := app.Store.SaveReminderSnapshot(reminders.List()); err != nil {
		app.Logger.Warn("Failed to cache reminder snapshot", zap.Error(err))
	}
}

func (app *App) saveSnapshot(reminders *reminder.Store) error {
	return app.Store.SaveReminderSnapshot(reminders.List())
}
