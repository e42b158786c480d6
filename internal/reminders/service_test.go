package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/domain"
	"github.com/m3rciful/ledgerbot/internal/storage/memory"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

type sink struct {
	sent []string
	err  error
}

func (s *sink) notify(_ context.Context, _ int64, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, text)
	return nil
}

func newService(t *testing.T, now string, filters ...domain.Filter) (*Service, *sink) {
	t.Helper()
	store := memory.New()
	for _, f := range filters {
		require.NoError(t, store.CreateFilter(context.Background(), f))
	}
	out := &sink{}
	svc := New(store, out.notify)
	svc.now = func() time.Time { return day(now) }
	return svc, out
}

func TestReminderFiresThreeDaysBeforeExpiry(t *testing.T) {
	// Installed 01.01.2024 with 90 days of lifetime: expiry 30.03.2024,
	// reminder window opens 27.03.2024.
	f := domain.Filter{ChatID: 7, Name: "Air", InstallDate: day("01.01.2024"), LifetimeDays: 90}

	svc, out := newService(t, "26.03.2024", f)
	require.NoError(t, svc.Check(context.Background(), 7))
	assert.Empty(t, out.sent)

	svc, out = newService(t, "27.03.2024", f)
	require.NoError(t, svc.Check(context.Background(), 7))
	require.Len(t, out.sent, 1)
	assert.Contains(t, out.sent[0], "Air")
	assert.Contains(t, out.sent[0], "30.03.2024")
}

func TestReminderFiresExactlyOnce(t *testing.T) {
	f := domain.Filter{ChatID: 7, Name: "Air", InstallDate: day("01.01.2024"), LifetimeDays: 90}
	svc, out := newService(t, "28.03.2024", f)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Check(context.Background(), 7))
	}
	assert.Len(t, out.sent, 1)
}

func TestExpiredFilterStillRemindsOnce(t *testing.T) {
	f := domain.Filter{ChatID: 7, Name: "Air", InstallDate: day("01.01.2024"), LifetimeDays: 90}
	svc, out := newService(t, "15.04.2024", f)

	require.NoError(t, svc.Check(context.Background(), 7))
	require.NoError(t, svc.Check(context.Background(), 7))
	assert.Len(t, out.sent, 1)
}

func TestNotifyFailureDoesNotResend(t *testing.T) {
	f := domain.Filter{ChatID: 7, Name: "Air", InstallDate: day("01.01.2024"), LifetimeDays: 90}
	svc, out := newService(t, "28.03.2024", f)
	out.err = errors.New("chat blocked the bot")

	require.NoError(t, svc.Check(context.Background(), 7))
	out.err = nil
	require.NoError(t, svc.Check(context.Background(), 7))
	assert.Empty(t, out.sent)
}

func TestOnlyDueFiltersRemind(t *testing.T) {
	due := domain.Filter{ChatID: 7, Name: "Air", InstallDate: day("01.01.2024"), LifetimeDays: 90}
	fresh := domain.Filter{ChatID: 7, Name: "Water", InstallDate: day("01.03.2024"), LifetimeDays: 180}
	svc, out := newService(t, "28.03.2024", due, fresh)

	require.NoError(t, svc.Check(context.Background(), 7))
	require.Len(t, out.sent, 1)
	assert.Contains(t, out.sent[0], "Air")
}
