// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// actorctl starts one runtime process: an actor.Actor running whatever
// modules -module names, optionally dialing a parent and registering
// with an arbiter.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/config"
	"github.com/nyric/actorio/internal/xlog"
	"github.com/nyric/actorio/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string

	flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML config file path; flags below override its fields",
		},
		cli.StringFlag{
			Name:  "name",
			Usage: "actor name",
		},
		cli.StringFlag{
			Name:  "listen",
			Value: ":0",
			Usage: "listen address",
		},
		cli.StringFlag{
			Name:  "parent",
			Usage: "parent actor address to dial at startup",
		},
		cli.StringFlag{
			Name:  "arbiter",
			Usage: "arbiter address to register with",
		},
		cli.StringFlag{
			Name:  "nat",
			Value: "none",
			Usage: "port mapping mechanism (any|none|upnp|pmp|extip:<IP>)",
		},
		cli.StringFlag{
			Name:  "admin",
			Usage: "admin HTTP/WS listen address, empty disables it",
		},
		cli.StringSliceFlag{
			Name:  "module",
			Usage: "RPC module to register, may be repeated (see moduleRegistry)",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "collect Prometheus metrics (exposed under the admin surface at /admin/metrics)",
		},
		cli.IntFlag{
			Name:  "verbosity",
			Value: 3,
			Usage: "log verbosity (0=crit 1=error 2=warn 3=info 4=debug 5=trace)",
		},
	}
)

func run(ctx *cli.Context) error {
	cfg, verbosity, err := buildConfig(ctx)
	if err != nil {
		return err
	}
	setVerbosity(verbosity)

	if ctx.Bool("metrics") {
		metrics.InitializePrometheusMetrics()
	}

	a, err := actor.New(cfg)
	if err != nil {
		return errors.Wrap(err, "construct actor")
	}

	if err := a.Start(context.Background()); err != nil {
		return errors.Wrap(err, "start actor")
	}
	fmt.Println("Running", a.Self.String(), "at", a.ListenAddr())
	if url := a.AdminURL(); url != "" {
		fmt.Println("Admin surface at", url)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		a.Cancel(context.Background())
	}()

	a.Run()
	return a.Err()
}

// defaultVerbosity matches the "verbosity" flag's own declared default,
// used when neither a config file nor the flag supplies one.
const defaultVerbosity = 3

func buildConfig(ctx *cli.Context) (actor.Config, int, error) {
	var cfg actor.Config
	verbosity := defaultVerbosity

	if path := ctx.String("config"); path != "" {
		f, err := config.Load(path)
		if err != nil {
			return cfg, verbosity, errors.Wrap(err, "-config")
		}
		cfg = f.ActorConfig(resolveModules(f.Modules)...)
		if f.Verbosity != nil {
			verbosity = *f.Verbosity
		}
	}

	if v := ctx.String("name"); v != "" {
		cfg.Name = v
	}
	// listen and nat have non-empty flag defaults, which apply only when
	// the file leaves the field empty.
	if v := ctx.String("listen"); v != "" && (ctx.IsSet("listen") || cfg.ListenAddr == "") {
		cfg.ListenAddr = v
	}
	if v := ctx.String("parent"); v != "" {
		cfg.ParentAddr = v
	}
	if v := ctx.String("arbiter"); v != "" {
		cfg.ArbiterAddr = v
	}
	if v := ctx.String("nat"); v != "" && (ctx.IsSet("nat") || cfg.NAT == "") {
		cfg.NAT = v
	}
	if v := ctx.String("admin"); v != "" {
		cfg.AdminAddr = v
	}
	if mods := ctx.StringSlice("module"); len(mods) > 0 {
		cfg.Modules = append(cfg.Modules, resolveModules(mods)...)
	}
	// the CLI flag always has some value (its own default is 3), so it
	// only overrides the file's verbosity when the user actually passed it.
	if ctx.IsSet("verbosity") {
		verbosity = ctx.Int("verbosity")
	}

	if cfg.Name == "" {
		return cfg, verbosity, errors.New("-name or config.name is required")
	}
	return cfg, verbosity, nil
}

func resolveModules(names []string) []actor.Module {
	mods := make([]actor.Module, 0, len(names))
	for _, name := range names {
		mod, ok := moduleRegistry[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "actorctl: unknown module %q, skipping\n", name)
			continue
		}
		mods = append(mods, mod)
	}
	return mods
}

func setVerbosity(v int) {
	level := xlog.Level()
	switch {
	case v <= 0:
		level.Set(xlog.LevelCrit)
	case v == 1:
		level.Set(xlog.LevelError)
	case v == 2:
		level.Set(xlog.LevelWarn)
	case v == 3:
		level.Set(xlog.LevelInfo)
	case v == 4:
		level.Set(xlog.LevelDebug)
	default:
		level.Set(xlog.LevelTrace)
	}
}

func main() {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	app := cli.App{
		Version:   fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta),
		Name:      "actorctl",
		Usage:     "run one actor process",
		Copyright: "2026 Nyric",
		Flags:     flags,
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
