// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ChainSafe/loom/internal/log"

	"github.com/urfave/cli"
)

var (
	// AuthoritiesFlag sets the number of in-process authorities
	AuthoritiesFlag = cli.IntFlag{
		Name:  "authorities",
		Usage: "Number of in-process authority nodes (max 6, one dev keyring key each)",
		Value: 3,
	}
	// SlotDurationFlag sets the slot duration
	SlotDurationFlag = cli.DurationFlag{
		Name:  "slot-duration",
		Usage: "Slot duration, eg. 500ms or 6s",
		Value: time.Second,
	}
	// EpochLengthFlag sets the epoch length in slots
	EpochLengthFlag = cli.Uint64Flag{
		Name:  "epoch-length",
		Usage: "Epoch length in slots",
		Value: 20,
	}
	// RunTimeFlag sets how long the simulation runs
	RunTimeFlag = cli.DurationFlag{
		Name:  "time",
		Usage: "How long to run the simulation",
		Value: time.Minute,
	}
	// LogFlag sets the global log level
	LogFlag = cli.StringFlag{
		Name:  "log",
		Usage: "Global log level. Supports levels crit (silent), eror, warn, info, dbug and trce (trace)",
		Value: "info",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "loom"
	app.Usage = "Slot-based VRF block production simulator"
	app.Flags = []cli.Flag{
		AuthoritiesFlag,
		SlotDurationFlag,
		EpochLengthFlag,
		RunTimeFlag,
		LogFlag,
	}
	app.Action = runSimulation

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSimulation(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String(LogFlag.Name))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.PatchLevel(level)

	cfg := &simulationConfig{
		authorities:  ctx.Int(AuthoritiesFlag.Name),
		slotDuration: ctx.Duration(SlotDurationFlag.Name),
		epochLength:  ctx.Uint64(EpochLengthFlag.Name),
		runTime:      ctx.Duration(RunTimeFlag.Name),
	}

	sim, err := newSimulation(cfg)
	if err != nil {
		return err
	}
	return sim.run()
}
