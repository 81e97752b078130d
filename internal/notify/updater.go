package notify

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/ratelimit"
	"github.com/mayvqt/StatusBot/internal/store"
)

var (
	mUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusbot_notifications_sent_total", Help: "Successful status message updates",
	})
	mUpdateErrs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusbot_notification_failures_total", Help: "Status message updates that exhausted retries",
	})
)

// Saver persists the current state; the updater calls it when the message
// handle changes so a restart reuses the same message.
type Saver interface {
	Save(ctx context.Context) error
}

type UpdaterConfig struct {
	Cooldown     time.Duration // interval between message updates
	Attempts     int           // publish attempts per cycle
	RetryBackoff time.Duration // base backoff, doubled per attempt
}

// Updater keeps the persistent chat message in sync with the store. Sink
// failures are retried with exponential backoff within a cycle and otherwise
// dropped; the next cycle repairs the message.
type Updater struct {
	logger   *zap.Logger
	store    *store.Store
	saver    Saver
	sink     Sink
	renderer *Renderer
	limiter  *ratelimit.Limiter
	cfg      UpdaterConfig
}

func NewUpdater(
	logger *zap.Logger,
	st *store.Store,
	saver Saver,
	sink Sink,
	renderer *Renderer,
	limiter *ratelimit.Limiter,
	cfg UpdaterConfig,
) *Updater {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Updater{
		logger:   logger,
		store:    st,
		saver:    saver,
		sink:     sink,
		renderer: renderer,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Run updates the message once immediately, then on every cooldown tick,
// until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) {
	t := time.NewTicker(u.cfg.Cooldown)
	defer t.Stop()

	u.updateOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			u.logger.Info("notifier_stopped")
			return
		case <-t.C:
			u.updateOnce(ctx)
		}
	}
}

func (u *Updater) updateOnce(ctx context.Context) {
	snapshot := u.store.Snapshot()
	if len(snapshot) == 0 {
		return
	}
	summary := u.renderer.Render(snapshot, time.Now())

	if !u.limiter.WaitConsume(ctx, u.cfg.Cooldown) {
		u.logger.Warn("notifier_rate_limited")
		return
	}

	prev, _ := u.store.Handle()
	handle := prev
	backoff := u.cfg.RetryBackoff

	for attempt := 1; attempt <= u.cfg.Attempts; attempt++ {
		next, err := u.sink.Publish(ctx, handle, summary)
		if err == nil {
			mUpdates.Inc()
			if next.MessageID != prev.MessageID {
				u.store.SetHandle(next)
				if saveErr := u.saver.Save(ctx); saveErr != nil {
					u.logger.Warn("notifier_handle_save_failed", zap.Error(saveErr))
				}
				u.logger.Info("notifier_message_created", zap.String("message_id", next.MessageID))
			} else {
				u.store.SetHandle(next)
			}
			return
		}

		u.logger.Warn("notifier_publish_failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == u.cfg.Attempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
	}

	mUpdateErrs.Inc()
	u.logger.Error("notifier_update_dropped", zap.Int("attempts", u.cfg.Attempts))
}
