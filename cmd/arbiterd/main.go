// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// arbiterd runs the name-to-address registry described in spec.md §4.7:
// the central point every actor in a deployment registers itself
// against and looks other actors up through.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/arbiter"
	"github.com/nyric/actorio/internal/xlog"
	"github.com/nyric/actorio/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string

	flags = []cli.Flag{
		cli.StringFlag{
			Name:  "name",
			Value: "arbiter",
			Usage: "arbiter's own actor name",
		},
		cli.StringFlag{
			Name:  "addr",
			Value: ":5700",
			Usage: "listen address",
		},
		cli.StringFlag{
			Name:  "nat",
			Value: "none",
			Usage: "port mapping mechanism (any|none|upnp|pmp|extip:<IP>)",
		},
		cli.StringFlag{
			Name:  "admin",
			Value: ":5701",
			Usage: "admin HTTP/WS listen address, empty disables it",
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
	setVerbosity(ctx.Int("verbosity"))

	if ctx.Bool("metrics") {
		metrics.InitializePrometheusMetrics()
	}

	cfg := actor.Config{
		Name:       ctx.String("name"),
		ListenAddr: ctx.String("addr"),
		NAT:        ctx.String("nat"),
		AdminAddr:  ctx.String("admin"),
	}

	arb, err := arbiter.New(cfg)
	if err != nil {
		return errors.Wrap(err, "construct arbiter")
	}

	if err := arb.Start(context.Background()); err != nil {
		return errors.Wrap(err, "start arbiter")
	}
	fmt.Println("Running", arb.Self.String(), "at", arb.ListenAddr())
	if url := arb.AdminURL(); url != "" {
		fmt.Println("Admin surface at", url)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		arb.Cancel(context.Background())
	}()

	arb.Run()
	return arb.Err()
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
		Name:      "arbiterd",
		Usage:     "run the actor name-to-address registry",
		Copyright: "2026 Nyric",
		Flags:     flags,
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
