package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/reminders"
	"github.com/m3rciful/ledgerbot/internal/schedule"
	"github.com/m3rciful/ledgerbot/internal/storage/memory"
)

func TestResumeFilterWatchesAfterRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	install := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateFilter(ctx, domain.Filter{ChatID: 11, Name: "Air", InstallDate: install, LifetimeDays: 90}))
	require.NoError(t, store.CreateFilter(ctx, domain.Filter{ChatID: 11, Name: "Water", InstallDate: install, LifetimeDays: 30}))
	require.NoError(t, store.CreateFilter(ctx, domain.Filter{ChatID: 12, Name: "Air", InstallDate: install, LifetimeDays: 60}))

	// A fresh app over the persisted store, as after a process restart.
	a := &App{
		cfg:       &Config{Reminders: RemindersConfig{Enabled: true, CheckIntervalHours: 24}},
		store:     store,
		scheduler: schedule.New(),
	}
	defer a.scheduler.Close()
	a.reminders = reminders.New(store, func(context.Context, int64, string) error { return nil })

	require.NoError(t, a.resumeFilterWatches(ctx))
	assert.True(t, a.scheduler.Active(11))
	assert.True(t, a.scheduler.Active(12))
	assert.False(t, a.scheduler.Active(13), "chats without filters get no job")
}
