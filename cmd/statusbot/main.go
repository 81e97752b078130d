package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mayvqt/StatusBot/internal/config"
	"github.com/mayvqt/StatusBot/internal/domain"
	"github.com/mayvqt/StatusBot/internal/httpapi"
	"github.com/mayvqt/StatusBot/internal/logging"
	"github.com/mayvqt/StatusBot/internal/notify"
	"github.com/mayvqt/StatusBot/internal/persist"
	"github.com/mayvqt/StatusBot/internal/probe"
	"github.com/mayvqt/StatusBot/internal/ratelimit"
	"github.com/mayvqt/StatusBot/internal/scheduler"
	"github.com/mayvqt/StatusBot/internal/store"
)

// storeSaver adapts the persistence engine to the notifier's Saver: persist
// whatever the store currently holds.
type storeSaver struct {
	store  *store.Store
	engine *persist.Engine
}

func (s storeSaver) Save(ctx context.Context) error {
	return s.engine.Save(s.store.Export())
}

func main() {
	configPath := flag.String("config", "statusbot.yaml", "path to the YAML config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, levelErr := zapcore.ParseLevel(cfg.LogLevel)
	if levelErr != nil {
		level = zapcore.InfoLevel
	}
	logger, err := logging.NewLogger(cfg.LogDir, level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	engine := persist.NewEngine(logger, cfg.StatePath)
	state, err := engine.Load()
	if err != nil {
		// the state directory or file is unreadable at the OS level;
		// monitoring can still run, just without history
		logger.Error("state_load_failed", zap.Error(err))
		state = domain.NewPersistedState()
	}

	st := store.New()
	st.Seed(state)
	logger.Info("state_loaded",
		zap.Int("statuses", len(state.Statuses)),
		zap.Bool("has_handle", state.Handle != nil),
	)

	entities := cfg.Targets()
	if len(entities) == 0 {
		logger.Warn("no_entities_configured")
	}

	checkers := probe.Set{
		HTTP: probe.NewHTTPChecker(cfg.HTTPTimeout),
		TCP:  probe.NewTCPChecker(cfg.ProbeTimeout),
		ICMP: probe.NewICMPChecker(cfg.ProbeTimeout),
	}

	updates := make(chan []domain.Entity, 1)
	loader.WatchEntities(logger, updates)

	poller := scheduler.NewPoller(logger, st, engine, checkers, cfg.PollInterval, entities, updates)

	api := httpapi.NewServer(logger, st, cfg.APIRequestsPerMin, cfg.APIBurst)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: api.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	if sink := notify.NewWebhookSink(cfg.WebhookURL); sink != nil {
		updater := notify.NewUpdater(
			logger,
			st,
			storeSaver{store: st, engine: engine},
			sink,
			notify.NewRenderer("Service Status"),
			ratelimit.New(cfg.NotifyBurst, cfg.NotifyWindow),
			notify.UpdaterConfig{
				Cooldown:     cfg.NotifyCooldown,
				Attempts:     4,
				RetryBackoff: time.Second,
			},
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			updater.Run(ctx)
		}()
	} else {
		logger.Info("notifier_disabled")
	}

	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	// wait for the loops so no save races the final flush
	wg.Wait()

	if err := engine.Save(st.Export()); err != nil {
		logger.Error("final_save_failed", zap.Error(err))
	} else {
		logger.Info("final_save_done")
	}
}
