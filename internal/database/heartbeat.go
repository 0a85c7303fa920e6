package database

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/simonhust/trailer/internal/logger"
	"github.com/simonhust/trailer/internal/retry"
)

const (
	// DefaultHeartbeatInterval is the period between liveness writes.
	DefaultHeartbeatInterval = 12 * time.Hour

	// beatTimeout bounds a single liveness write.
	beatTimeout = 10 * time.Second
)

// Heartbeat periodically writes the liveness singleton row. Failures are
// logged and retried after a reconnect attempt; they never stop the task
// or propagate to foreground operations.
type Heartbeat struct {
	db        *sqlx.DB
	log       logger.Logger
	interval  time.Duration
	onFailure func()

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewHeartbeat creates a heartbeat task. onFailure is invoked once per
// failed beat and may be nil.
func NewHeartbeat(db *sqlx.DB, log logger.Logger, interval time.Duration, onFailure func()) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{
		db:        db,
		log:       log,
		interval:  interval,
		onFailure: onFailure,
		stopChan:  make(chan struct{}),
	}
}

// Start fires an immediate beat and then beats on a fixed interval until
// Stop is called.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run()

	h.log.Info("heartbeat started",
		logger.Duration("interval", h.interval))
}

// Stop cancels the task and waits for it to finish. Safe to call when
// Start was never invoked.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	h.mu.Unlock()

	close(h.stopChan)
	h.wg.Wait()
	h.log.Info("heartbeat stopped")
}

func (h *Heartbeat) run() {
	defer h.wg.Done()

	h.Beat()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Beat()
		case <-h.stopChan:
			return
		}
	}
}

// Beat updates the liveness row. On failure it attempts a ping-based
// reconnect with backoff and one more write; a beat that still fails is
// only logged.
func (h *Heartbeat) Beat() {
	ctx, cancel := context.WithTimeout(context.Background(), beatTimeout)
	defer cancel()

	err := h.touch(ctx)
	if err == nil {
		return
	}
	h.log.Warn("heartbeat write failed, attempting reconnect",
		logger.Error(err))

	if h.onFailure != nil {
		h.onFailure()
	}

	reconnectErr := retry.Do(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}, func() error {
		if err := h.db.PingContext(ctx); err != nil {
			return err
		}
		return h.touch(ctx)
	})
	if reconnectErr != nil {
		h.log.Error("heartbeat reconnect failed",
			logger.Error(reconnectErr))
	}
}

func (h *Heartbeat) touch(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO heartbeat (id, last_beat) VALUES (1, now())
		ON CONFLICT (id) DO UPDATE SET last_beat = EXCLUDED.last_beat`)
	return err
}
