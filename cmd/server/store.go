package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/repositories"
)

// store bundles the repositories for the configured DB_DRIVER.
type store struct {
	users     repositories.UserRepository
	diagnoses repositories.DiagnosisRepository
	pinger    repositories.Pinger
	close     func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		if err := database.Connect(cfg); err != nil {
			return nil, err
		}
		if err := database.Migrate(); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		diagnoses := repositories.NewGormDiagnosisRepository(database.DB)
		return &store{
			users:     repositories.NewGormUserRepository(database.DB),
			diagnoses: diagnoses,
			pinger:    diagnoses,
			close:     func(context.Context) error { return database.Close() },
		}, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := repositories.EnsureMongoIndexes(idxCtx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo index setup failed: %w", err)
		}
		diagnoses := repositories.NewMongoDiagnosisRepository(db)
		return &store{
			users:     repositories.NewMongoUserRepository(db),
			diagnoses: diagnoses,
			pinger:    diagnoses,
			close:     client.Disconnect,
		}, nil

	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		mem := repositories.NewMemoryStore()
		return &store{
			users:     mem.Users(),
			diagnoses: mem.Diagnoses(),
			pinger:    mem,
			close:     func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}
