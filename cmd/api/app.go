package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cmsapi/internal/audit"
	"cmsapi/internal/auth"
	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/database"
	"cmsapi/internal/database/migration"
	"cmsapi/internal/logging"
	"cmsapi/internal/metrics"
	"cmsapi/internal/model"
	"cmsapi/internal/repository"
	"cmsapi/internal/repository/memory"
	"cmsapi/internal/repository/postgres"
	"cmsapi/internal/service"
	"cmsapi/internal/storage"
)

// app holds everything the subcommands share.
type app struct {
	cfg      *config.AppConfig
	db       *sql.DB // nil on the in-memory store
	registry *prometheus.Registry
	metrics  *metrics.Engine
	deps     service.Deps
	svcs     *service.Services
}

// bootstrap connects the store and object storage and builds the services.
// Without DB_HOST the process runs on the in-memory store and is seeded so
// that someone can log in.
func bootstrap(ctx context.Context, cfg *config.AppConfig, c clock.Clock) (*app, error) {
	logging.SetLocation(cfg.Location())
	if cfg.ReminderErr != nil {
		logging.Warn("config", "reminder_days_discarded", map[string]any{
			"error_message": cfg.ReminderErr.Error(),
			"kept":          cfg.Reminders.String(),
		})
	}

	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewEngine(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	var kv repository.KV
	if cfg.Database.Enabled() {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		kv = postgres.NewKVPostgres(db)
	} else {
		logging.Warn("app", "memory_store", map[string]any{"msg": "DB_HOST not set, records are lost on exit"})
		kv = memory.NewKVMemory()
	}

	var objStore storage.Storage
	if cfg.MinIO.Enabled() {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = randomSecret()
		logging.Warn("auth", "ephemeral_secret", map[string]any{"msg": "AUTH_SECRET not set, sessions end on restart"})
	}
	tokens, err := auth.NewTokens(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL(), c.Now)
	if err != nil {
		a.close()
		return nil, err
	}

	store := repository.NewStore(kv)
	a.deps = service.Deps{
		Store:    store,
		Trail:    audit.NewTrail(store, c),
		Clock:    c,
		Metrics:  m,
		Storage:  objStore,
		Tokens:   tokens,
		Defaults: model.Settings{SiteName: cfg.SiteName, ReminderDays: cfg.Reminders.Thresholds},
	}
	a.svcs = service.New(a.deps)

	if a.db == nil {
		if _, err := a.seed(ctx, cfg.SeedFile); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) seed(ctx context.Context, path string) (*service.SeedResult, error) {
	seed := config.DefaultSeed()
	if path != "" {
		var err error
		if seed, err = config.LoadSeed(path); err != nil {
			return nil, err
		}
	}
	res, err := service.Seed(ctx, a.deps, seed)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	logging.Info("app", "seeded", map[string]any{
		"users_created":    res.UsersCreated,
		"settings_created": res.SettingsCreated,
		"seed_file":        path,
	})
	return res, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			logging.Error("database", "db_close_failed", err, nil)
		}
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
