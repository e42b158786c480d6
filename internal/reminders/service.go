// Package reminders notifies chats about filters nearing the end of
// their lifetime. The check is cheap and idempotent: a filter is
// reminded about exactly once, guarded by its reminded flag in storage.
package reminders

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/storage"
)

// window is how many days before expiry the reminder fires.
const window = 3

// NotifyFunc delivers a reminder message to a chat.
type NotifyFunc func(ctx context.Context, chatID int64, text string) error

// Service checks a chat's filters and sends due reminders.
type Service struct {
	store  storage.Store
	notify NotifyFunc
	now    func() time.Time
}

func New(store storage.Store, notify NotifyFunc) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// Check sends a reminder for every filter of the chat that is within
// the reminder window and has not been reminded about yet. The reminded
// flag is set before notifying; a failed delivery is logged, not resent.
func (s *Service) Check(ctx context.Context, chatID int64) error {
	filters, err := s.store.ListFilters(ctx, chatID)
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}

	today := truncateToDay(s.now())
	for _, f := range filters {
		if f.Reminded || !due(f, today) {
			continue
		}
		if err := s.store.MarkFilterReminded(ctx, chatID, f.Name); err != nil {
			logger.Error(ctx, "service.reminders", "reminder.mark_failed",
				slog.Int64("chat_id", chatID),
				slog.String("filter", f.Name),
				slog.String("err", err.Error()),
			)
			continue
		}
		text := fmt.Sprintf("⏰ Filter %q expires on %s — time to plan a replacement.",
			f.Name, f.ExpiryDate().Format(domain.DateLayout))
		if err := s.notify(ctx, chatID, text); err != nil {
			logger.Warn(ctx, "service.reminders", "reminder.notify_failed",
				slog.Int64("chat_id", chatID),
				slog.String("filter", f.Name),
				slog.String("err", err.Error()),
			)
			continue
		}
		logger.Info(ctx, "service.reminders", "reminder.sent",
			slog.Int64("chat_id", chatID),
			slog.String("filter", f.Name),
		)
	}
	return nil
}

// due reports whether today is within the reminder window (inclusive)
// of the filter's expiry. Already expired filters are due as well, so a
// bot that was down through the window still reminds once on recovery.
func due(f domain.Filter, today time.Time) bool {
	threshold := truncateToDay(f.ExpiryDate()).AddDate(0, 0, -window)
	return !today.Before(threshold)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
