// Package app wires the ledger bot: storage, the form engine, commands,
// reminders, and the optional spreadsheet export on top of the reusable
// telegram core.
package app

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/bootstrap"
	"github.com/m3rciful/ledgerbot/core/logger"
	coretelegram "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/router"
	"github.com/m3rciful/ledgerbot/internal/export/sheets"
	"github.com/m3rciful/ledgerbot/internal/forms"
	"github.com/m3rciful/ledgerbot/internal/reminders"
	"github.com/m3rciful/ledgerbot/internal/schedule"
	"github.com/m3rciful/ledgerbot/internal/storage"
	"github.com/m3rciful/ledgerbot/internal/storage/sqldb"
)

// App holds the bot's long-lived components.
type App struct {
	cfg       *Config
	store     storage.Store
	engine    *forms.Engine
	scheduler *schedule.Scheduler
	reminders *reminders.Service
	exporter  *sheets.Exporter
	registry  *coretelegram.Registry
}

// Bootstrap initializes infrastructure and assembles the application.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := sqldb.New(res.DB)
	engine := forms.NewEngine()
	if err := registerForms(engine, store); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		store:     store,
		engine:    engine,
		scheduler: schedule.New(),
		registry:  coretelegram.NewRegistry(),
	}

	if cfg.Export.Enabled {
		exporter, err := sheets.New(context.Background(),
			cfg.Export.CredentialsFile, cfg.Export.SpreadsheetID, cfg.Export.Range)
		if err != nil {
			return nil, fmt.Errorf("app: export init: %w", err)
		}
		a.exporter = exporter
	}

	a.registerCommands()
	return a, nil
}

// reminderInterval returns how often the per-chat reminder job ticks.
func (a *App) reminderInterval() time.Duration {
	return time.Duration(a.cfg.Reminders.CheckIntervalHours) * time.Hour
}

// onStart wires the pieces that need the live bot: the reminder
// service's notify path goes through the async sender, then expiry
// jobs are re-registered for every chat that has filters on record.
func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if !a.cfg.Reminders.Enabled {
		return nil
	}
	bot, dispatcher := rt.Bot, rt.Dispatcher
	notify := func(ctx context.Context, chatID int64, text string) error {
		return dispatcher.Enqueue(ctx, "send.reminder", "sendMessage", func() error {
			_, err := bot.Send(tele.ChatID(chatID), text)
			return err
		})
	}
	a.reminders = reminders.New(a.store, notify)

	if err := a.resumeFilterWatches(ctx); err != nil {
		// Recoverable: the interactive handlers re-register on contact.
		logger.Warn(ctx, "service.reminders", "resume.failed",
			slog.String("err", err.Error()))
	}
	return nil
}

// resumeFilterWatches registers the expiry check for every chat with
// filters. Filters survive a restart, jobs do not; without this a chat
// that never messages again would never be reminded.
func (a *App) resumeFilterWatches(ctx context.Context) error {
	chats, err := a.store.ListFilterChats(ctx)
	if err != nil {
		return fmt.Errorf("list filter chats: %w", err)
	}
	for _, chatID := range chats {
		a.watchFilters(chatID)
	}
	return nil
}

// watchFilters (re)registers the chat's recurring expiry check. Safe to
// call repeatedly; the scheduler replaces the previous job.
func (a *App) watchFilters(chatID int64) {
	if a.reminders == nil {
		return
	}
	a.scheduler.Register(chatID, a.reminderInterval(), func(ctx context.Context) error {
		return a.reminders.Check(ctx, chatID)
	})
}

// TelegramRunOptions builds the run options consumed by the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.fsm(), a.registry, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.scheduler.Close()
			return nil
		},
	}, nil
}
