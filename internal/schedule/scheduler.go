// Package schedule runs recurring per-chat jobs on wall-clock tickers.
// Jobs are keyed by chat: registering a new job for a chat replaces the
// previous one, so a chat never has two concurrent recurring jobs.
package schedule

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/m3rciful/ledgerbot/core/logger"
)

// JobFunc is one tick of a recurring job. Errors are logged and do not
// stop the job.
type JobFunc func(ctx context.Context) error

// Handle identifies a registered job for cancellation.
type Handle struct {
	chatID int64
	seq    uint64
}

type job struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns the recurring jobs. Close stops them all and waits for
// in-flight ticks to finish.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[int64]*job
	seq    uint64
	closed bool
}

func New() *Scheduler {
	return &Scheduler{jobs: make(map[int64]*job)}
}

// Register starts a recurring job for the chat, replacing any previous
// job registered for the same chat.
func (s *Scheduler) Register(chatID int64, interval time.Duration, fn JobFunc) Handle {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return Handle{}
	}
	if prev, ok := s.jobs[chatID]; ok {
		prev.cancel()
	}
	s.seq++
	j := &job{seq: s.seq, cancel: cancel, done: make(chan struct{})}
	s.jobs[chatID] = j
	s.mu.Unlock()

	go s.run(ctx, chatID, interval, fn, j)
	return Handle{chatID: chatID, seq: j.seq}
}

// Active reports whether the chat currently has a registered job.
func (s *Scheduler) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

// Cancel stops the job behind the handle. A handle whose job was already
// replaced or cancelled is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	j, ok := s.jobs[h.chatID]
	if ok && j.seq == h.seq {
		delete(s.jobs, h.chatID)
	} else {
		j = nil
	}
	s.mu.Unlock()
	if j != nil {
		j.cancel()
		<-j.done
	}
}

// Close cancels every job and waits for them to stop.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	jobs := make([]*job, 0, len(s.jobs))
	for chatID, j := range s.jobs {
		jobs = append(jobs, j)
		delete(s.jobs, chatID)
	}
	s.mu.Unlock()

	for _, j := range jobs {
		j.cancel()
		<-j.done
	}
}

func (s *Scheduler) run(ctx context.Context, chatID int64, interval time.Duration, fn JobFunc, j *job) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, chatID, fn)
		}
	}
}

// tick runs one callback invocation; a panicking job must not take the
// scheduler down with it.
func (s *Scheduler) tick(ctx context.Context, chatID int64, fn JobFunc) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "schedule", "job.panic",
				slog.Int64("chat_id", chatID),
				slog.Any("panic", r),
			)
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Warn(ctx, "schedule", "job.failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
