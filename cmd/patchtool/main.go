package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/udisondev/portalgo/internal/classes"
	"github.com/udisondev/portalgo/internal/patch"
)

var CLI struct {
	Dir   string `help:"Game directory that holds maps/." default:"." short:"d" type:"existingdir"`
	Debug bool   `help:"Enable debug logging."`

	Check struct {
		Maps []string `arg:"" name:"map" help:"Maps whose patch files to check."`
	} `cmd:"" help:"Parse patch files and report problems."`

	Fingerprint struct {
		Map string `arg:"" name:"map" help:"Map whose patch file to fingerprint."`
	} `cmd:"" help:"Print the fingerprint stored with save games."`

	Watch struct{} `cmd:"" help:"Check patch files whenever they change."`
}

func main() {
	ctx := kong.Parse(&CLI, options()...)

	level := slog.LevelInfo
	if CLI.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	switch ctx.Command() {
	case "check <map>":
		err = check(CLI.Check.Maps)
	case "fingerprint <map>":
		err = fingerprint(CLI.Fingerprint.Map)
	case "watch":
		err = watch()
	}
	ctx.FatalIfErrorf(err)
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("patchtool"),
		kong.Description("inspect map patch files"),
		kong.UsageOnError(),
	}
}

func check(maps []string) error {
	fsys := os.DirFS(CLI.Dir)
	f := classes.NewFactory()

	bad := 0
	for _, name := range maps {
		v, err := patch.Validate(fsys, name, f)
		if err != nil {
			if errors.Is(err, patch.ErrNoPatch) {
				fmt.Printf("%s: no patch file\n", name)
				continue
			}
			return err
		}
		fmt.Printf("%s: %d entities, fingerprint %s\n", v.Path, v.Entities, v.Fingerprint)
		for _, p := range v.Problems {
			fmt.Printf("  %s\n", p)
		}
		for _, n := range v.Notes {
			fmt.Printf("  note: %s\n", n)
		}
		if !v.OK() {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d patch files have problems", bad)
	}
	return nil
}

func fingerprint(mapName string) error {
	data, err := os.ReadFile(filepath.Join(CLI.Dir, patch.Path(mapName)))
	if err != nil {
		return fmt.Errorf("reading patch file: %w", err)
	}
	fmt.Println(patch.Fingerprint(data))
	return nil
}

func watch() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir := filepath.Join(CLI.Dir, "maps")
	slog.Info("watching patch files", "dir", dir)
	return patch.Watch(ctx, dir, func(mapName string) {
		if err := check([]string{mapName}); err != nil {
			slog.Warn("patch check failed", "map", mapName, "error", err)
		}
	})
}
