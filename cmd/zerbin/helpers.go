package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Veraticus/zerbin/internal/config"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/lifecycle"
	"github.com/Veraticus/zerbin/internal/lock"
	"github.com/Veraticus/zerbin/internal/notify"
	"github.com/Veraticus/zerbin/internal/priority"
	"github.com/Veraticus/zerbin/internal/rewards"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/storage"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

// app bundles the services a command needs.
type app struct {
	store   *storage.SQLiteStorage
	ledger  *ledger.Ledger
	reports *lifecycle.Controller
	catalog *rewards.Catalog
	closers []func() error
}

// Close releases every resource opened by newApp.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newApp wires storage, locking, notification and the domain services from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, closers: []func() error{store.Close}}

	locker, err := newLocker(ctx, cfg, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	notifier, err := newNotifier(cfg, store, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	points, err := pointsTable(cfg.Points)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	normalizer := wastetype.DefaultNormalizer()
	engine := priority.NewWithConfig(normalizer, store, priority.Config{
		Keywords:       cfg.Scoring.Keywords,
		DefaultWeight:  cfg.Scoring.DefaultWeight,
		AlertThreshold: cfg.Scoring.AlertThreshold,
	})

	a.ledger = ledger.New(store, locker, normalizer, points)
	a.catalog = rewards.NewWithConfig(store, locker, rewards.Config{
		CodePrefix:    cfg.Rewards.CodePrefix,
		PickupMessage: cfg.Rewards.PickupMessage,
	})
	a.reports = lifecycle.New(lifecycle.Deps{
		Storage:    store,
		Engine:     engine,
		Ledger:     a.ledger,
		Locker:     locker,
		Notifier:   notifier,
		Normalizer: normalizer,
	})
	return a, nil
}

func newLocker(ctx context.Context, cfg *config.Config, a *app) (service.Locker, error) {
	if cfg.Lock.Backend != config.LockRedis {
		return lock.NewKeyedMutex(), nil
	}

	redisCfg := lock.DefaultRedisConfig()
	redisCfg.Addr = cfg.Lock.Redis.Addr
	redisCfg.Password = cfg.Lock.Redis.Password
	redisCfg.DB = cfg.Lock.Redis.DB
	if cfg.Lock.Redis.Prefix != "" {
		redisCfg.Prefix = cfg.Lock.Redis.Prefix
	}
	if cfg.Lock.Redis.TTL > 0 {
		redisCfg.TTL = cfg.Lock.Redis.TTL
	}
	if cfg.Lock.Redis.Wait > 0 {
		redisCfg.Wait = cfg.Lock.Redis.Wait
	}

	locker, err := lock.NewRedisLocker(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, locker.Close)
	slog.Debug("Using redis lock backend", "addr", redisCfg.Addr)
	return locker, nil
}

func newNotifier(cfg *config.Config, store *storage.SQLiteStorage, a *app) (service.Notifier, error) {
	var sinks notify.Multi
	if cfg.Notify.Store {
		sinks = append(sinks, notify.NewStoreNotifier(store))
	}
	if cfg.Notify.Log {
		sinks = append(sinks, notify.LogNotifier{})
	}
	if cfg.Notify.AMQP.URL != "" {
		publisher, err := notify.NewAMQPNotifier(notify.AMQPConfig{
			URL:        cfg.Notify.AMQP.URL,
			Exchange:   cfg.Notify.AMQP.Exchange,
			RoutingKey: cfg.Notify.AMQP.RoutingKey,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		sinks = append(sinks, publisher)
	}
	return sinks, nil
}

func pointsTable(cfg config.PointsConfig) (ledger.PointsTable, error) {
	points := ledger.DefaultPoints()
	for wasteType, value := range cfg.Table {
		points[wasteType] = value
	}
	return ledger.NewPointsTable(points, cfg.Default, cfg.CompletionBonus)
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	if appConfig == nil {
		return errors.New("configuration not loaded")
	}
	a, err := newApp(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", "error", err)
		}
	}()
	return fn(a)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}
