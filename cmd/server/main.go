package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/portalgo/internal/classes"
	"github.com/udisondev/portalgo/internal/config"
	"github.com/udisondev/portalgo/internal/db"
	"github.com/udisondev/portalgo/internal/level"
	"github.com/udisondev/portalgo/internal/patch"
	"github.com/udisondev/portalgo/internal/world"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.Path()
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	slog.Info("portalgo server starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"map", cfg.Map,
		"tick_rate", cfg.TickRate)

	var store level.SaveStore = level.NewMemoryStore()
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		store = db.NewSaveRepository(database.Pool())
	}

	m := level.NewManager(level.Options{
		FS:      os.DirFS(cfg.MapsDir),
		Factory: classes.NewFactory(),
		Store:   store,
		Seed:    cfg.RandomSeed,
	})
	m.AddSystem(patch.NewSystem(patch.Options{
		AllowPatches:    func() bool { return cfg.AllowPatches },
		DebugAssertions: cfg.DebugAssertions,
	}))

	if err := m.LoadLevel(ctx, cfg.Map, world.LoadNewMap, uuid.Nil); err != nil {
		return fmt.Errorf("loading map: %w", err)
	}
	defer m.Shutdown()

	loop := level.NewLoop(m, cfg.TickRate)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Start(gctx)
	})
	g.Go(func() error {
		return level.Autosave(gctx, m, cfg.AutosaveInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("portalgo server stopped", "frames", loop.Frames())
	return nil
}
