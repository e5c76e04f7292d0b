package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Kishanx08/ticket-master/internal/ai"
	"github.com/Kishanx08/ticket-master/internal/bot"
	"github.com/Kishanx08/ticket-master/internal/bot/handlers"
	"github.com/Kishanx08/ticket-master/internal/config"
	"github.com/Kishanx08/ticket-master/internal/database"
	"github.com/Kishanx08/ticket-master/internal/delivery"
	"github.com/Kishanx08/ticket-master/internal/logging"
	"github.com/Kishanx08/ticket-master/internal/metrics"
	"github.com/Kishanx08/ticket-master/internal/reminders"
	"github.com/Kishanx08/ticket-master/internal/repository"
	"github.com/Kishanx08/ticket-master/internal/scheduler"
	"github.com/Kishanx08/ticket-master/internal/server"
)

type stores struct {
	reminders   repository.ReminderStore
	communities repository.CommunityStore
	settings    repository.SettingsStore
	ping        server.Pinger
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogConsole)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shut down")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}

	svc := reminders.NewService(st.reminders, logging.Component(log, "reminders"))
	pipeline := delivery.New(api, st.communities, m, logging.Component(log, "delivery"), delivery.Config{
		RatePerSec: cfg.SendRatePerSec,
	})
	sched := scheduler.New(st.reminders, pipeline, svc, m, logging.Component(log, "scheduler"),
		scheduler.WithInterval(cfg.PollInterval))

	cleanup := scheduler.NewCleanup(st.reminders, cfg.InactiveRetention, m, logging.Component(log, "cleanup"))
	if err := cleanup.Schedule(ctx, cfg.CleanupSchedule); err != nil {
		return err
	}

	deps := handlers.Deps{
		Service:     svc,
		Communities: st.communities,
		Settings:    st.settings,
		Fallbacks:   pipeline,
		Notify:      sched.Notify,
	}
	if cfg.AIEnabled() {
		deps.AI = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Info().Str("model", cfg.AIModel).Msg("AI client initialized")
	} else {
		log.Info().Msg("AI client not configured, free-text reminders disabled")
	}
	b := bot.New(api, deps, logging.Component(log, "bot"))

	srv := server.New(":"+cfg.Port, m, st.ping, logging.Component(log, "http"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	err = b.Start(ctx)
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")
		return &stores{
			reminders:   repository.NewSQLiteReminderRepository(db),
			communities: repository.NewSQLiteCommunityRepository(db),
			settings:    repository.NewSQLiteUserSettingsRepository(db),
			ping:        db.PingContext,
			close:       func() { _ = db.Close() },
		}, nil
	default:
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to database")
		if err := db.Migrate(ctx, logging.Component(log, "migrate")); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &stores{
			reminders:   repository.NewReminderRepository(db),
			communities: repository.NewCommunityRepository(db),
			settings:    repository.NewUserSettingsRepository(db),
			ping:        db.Pool.Ping,
			close:       db.Close,
		}, nil
	}
}
