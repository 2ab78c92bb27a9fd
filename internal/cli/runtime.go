package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fleet_finance_engine/internal/core/ports/services"
	"github.com/SscSPs/fleet_finance_engine/internal/core/services"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/lock"
	"github.com/SscSPs/fleet_finance_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/fleet_finance_engine/internal/repositories/memory"
	"github.com/SscSPs/fleet_finance_engine/pkg/database"
)

// runtime is everything a command needs to call the engine.
type runtime struct {
	cfg      *config.Config
	services *portssvc.ServiceContainer
	logger   *slog.Logger
	dryRun   bool
	closers  []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// newRuntime wires the services against PostgreSQL, or against a fixture-seeded memory store.
// The returned context carries the CLI logger so services log through it.
func newRuntime(ctx context.Context, opts *rootOptions) (context.Context, *runtime, error) {
	logger := opts.logger()
	ctx = middleware.WithLogger(ctx, logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return ctx, nil, fmt.Errorf("loading config: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger}
	var repos portsrepo.RepositoryProvider
	var locker lock.Locker

	if opts.fixture != "" {
		store, err := loadFixtureStore(opts.fixture)
		if err != nil {
			return ctx, nil, err
		}
		repos = store.Provider()
		locker = lock.NewLocalLocker()
		rt.dryRun = true
		logger.Info("Dry run against fixture", slog.String("fixture", opts.fixture))
	} else {
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
		if err != nil {
			return ctx, nil, err
		}
		rt.closers = append(rt.closers, func() { database.ClosePgxPool(pool) })
		repos = pgsql.NewRepositoryProvider(pool)

		var closeLocker func()
		locker, closeLocker, err = lock.FromConfig(ctx, cfg.RedisURL, cfg.LockTTL)
		if err != nil {
			rt.Close()
			return ctx, nil, err
		}
		rt.closers = append(rt.closers, closeLocker)
	}

	rt.services = services.NewServiceContainer(cfg, repos, services.WithLocker(locker))
	return ctx, rt, nil
}

func loadFixtureStore(path string) (*memory.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	store := memory.NewStore()
	if err := store.LoadFixture(f); err != nil {
		return nil, err
	}
	return store, nil
}
