package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/replaylog/internal/config"
	"github.com/foxseedlab/replaylog/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		p, err := Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("startup: database ready", "max_conns", p.Config().MaxConns)
		return NewPostgresRepository(p), nil
	})
}

// Open connects, pings and migrates.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return p, nil
}
