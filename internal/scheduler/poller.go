// Package scheduler drives the poll loop: probe every configured entity on a
// fixed cadence, fold the observations into the status store, mirror the
// store to disk.
package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/domain"
	"github.com/mayvqt/StatusBot/internal/probe"
	"github.com/mayvqt/StatusBot/internal/store"
	"github.com/mayvqt/StatusBot/internal/uptime"
)

var (
	mCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusbot_poll_cycles_total", Help: "Completed poll cycles",
	})
	mProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statusbot_probes_total", Help: "Probe observations by result",
	}, []string{"result"})
	mSaveErrs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusbot_state_save_failures_total", Help: "State saves that exhausted retries",
	})
)

// Saver mirrors the store to durable storage after each cycle. Failures are
// non-fatal; the next cycle retries with fresh data.
type Saver interface {
	Save(state domain.PersistedState) error
}

type Poller struct {
	logger   *zap.Logger
	store    *store.Store
	saver    Saver
	checkers probe.Set
	interval time.Duration

	entities []domain.Entity
	updates  <-chan []domain.Entity

	now func() time.Time // test hook
}

func NewPoller(
	logger *zap.Logger,
	st *store.Store,
	saver Saver,
	checkers probe.Set,
	interval time.Duration,
	entities []domain.Entity,
	updates <-chan []domain.Entity,
) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		logger:   logger,
		store:    st,
		saver:    saver,
		checkers: checkers,
		interval: interval,
		entities: entities,
		updates:  updates,
		now:      time.Now,
	}
}

// Run does an immediate cycle, then one per tick until ctx is cancelled. A
// pending entity-list update is consumed at the top of each cycle.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller_stopped")
			return
		case <-t.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	p.consumeUpdate()

	updated := 0
	for _, ent := range p.entities {
		// cancellation is checked per entity, not only per cycle
		if ctx.Err() != nil {
			return
		}
		if p.observe(ctx, ent) {
			updated++
		}
	}
	if ctx.Err() != nil {
		return
	}

	if updated > 0 {
		if err := p.saver.Save(p.store.Export()); err != nil {
			mSaveErrs.Inc()
			// the engine already logged the details; in-memory state stays
			// authoritative and the next cycle retries
		}
	}
	mCycles.Inc()
}

// observe probes one entity and folds the result into the store. Reports
// whether a status was produced (misconfigured entities are skipped).
func (p *Poller) observe(ctx context.Context, ent domain.Entity) bool {
	if ent.Name == "" || ent.Target == "" {
		p.logger.Warn("entity_misconfigured",
			zap.String("name", ent.Name),
			zap.String("target", ent.Target),
		)
		return false
	}
	checker, err := probe.ForKind(ent.Kind, p.checkers)
	if err != nil {
		p.logger.Warn("entity_skipped", zap.String("name", ent.Name), zap.Error(err))
		return false
	}

	out := checker.Check(ctx, ent.Target)
	now := p.now().UTC()

	result := "offline"
	if out.Online {
		result = "online"
	}
	mProbes.WithLabelValues(result).Inc()

	prev, _ := p.store.Get(ent.Name)
	next := uptime.Update(prev, out.Online, now)
	p.store.Upsert(ent.Name, next)

	if prev.Online != next.Online && prev.TotalChecks > 0 {
		p.logger.Info("entity_state_changed",
			zap.String("name", ent.Name),
			zap.Bool("online", next.Online),
			zap.String("reason", out.Reason),
		)
	} else {
		p.logger.Debug("entity_checked",
			zap.String("name", ent.Name),
			zap.Bool("online", next.Online),
			zap.Float64("latency_ms", out.LatencyMS),
			zap.Float64("uptime_percent", next.UptimePercent),
		)
	}
	return true
}

// consumeUpdate swaps in a reloaded entity list if one is pending.
func (p *Poller) consumeUpdate() {
	if p.updates == nil {
		return
	}
	select {
	case ents := <-p.updates:
		p.entities = ents
		p.logger.Info("poller_entities_updated", zap.Int("count", len(ents)))
	default:
	}
}
