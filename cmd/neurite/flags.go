package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/neurite"
)

// analysisFlags are shared by every command that runs the detection pipeline.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:    "threshold-factor",
			Aliases: []string{"t"},
			Usage:   "Detection threshold in standard deviations above the mean",
			Value:   neurite.DefaultOptions().ThresholdFactor,
		},
		&cli.IntFlag{
			Name:  "half-width",
			Usage: "Samples on each side of a spike for SNR and peak-to-trough",
			Value: neurite.DefaultOptions().HalfWidth,
		},
		&cli.IntFlag{
			Name:  "event-gap",
			Usage: "Crossings at most this many samples apart form one spike event",
			Value: neurite.DefaultOptions().EventGap,
		},
		&cli.StringFlag{
			Name:  "resolution",
			Usage: "Where metrics are measured: sample (every crossing), event (event peaks)",
			Value: "sample",
		},
		&cli.FloatFlag{
			Name:  "refractory-ms",
			Usage: "Drop events peaking within this many milliseconds of the previous one (0 = off)",
		},
		&cli.FloatFlag{
			Name:  "min-width-ms",
			Usage: "Drop events narrower than this (0 = off)",
		},
		&cli.FloatFlag{
			Name:  "max-width-ms",
			Usage: "Drop events wider than this (0 = off)",
		},
		&cli.FloatFlag{
			Name:  "baseline-tolerance",
			Usage: "Drop events whose baseline does not recover within this fraction of their height (0 = off)",
		},
		&cli.BoolFlag{
			Name:  "line-noise",
			Usage: "Check every channel for 50/60Hz mains interference",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			Usage:   "Channels analyzed in parallel (0 = number of CPUs)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include per-spike data in output",
		},
	}
}

func optionsFromFlags(cmd *cli.Command) (neurite.Options, error) {
	resolution, err := neurite.ParseResolution(cmd.String("resolution"))
	if err != nil {
		return neurite.Options{}, err
	}

	// Zero fields fall back to defaults in the library; an explicit zero here is a user error.
	if factor := cmd.Float("threshold-factor"); !(factor > 0) {
		return neurite.Options{}, fmt.Errorf("%w: --threshold-factor must be positive, got %v", neurite.ErrData, factor)
	}

	if halfWidth := cmd.Int("half-width"); halfWidth <= 0 {
		return neurite.Options{}, fmt.Errorf("%w: --half-width must be positive, got %d", neurite.ErrData, halfWidth)
	}

	opts := neurite.DefaultOptions()
	opts.ThresholdFactor = cmd.Float("threshold-factor")
	opts.HalfWidth = cmd.Int("half-width")
	opts.EventGap = cmd.Int("event-gap")
	opts.Resolution = resolution
	opts.RefractoryMs = cmd.Float("refractory-ms")
	opts.MinWidthMs = cmd.Float("min-width-ms")
	opts.MaxWidthMs = cmd.Float("max-width-ms")
	opts.BaselineTolerance = cmd.Float("baseline-tolerance")
	opts.LineNoise = cmd.Bool("line-noise")
	opts.Workers = cmd.Int("workers")

	return opts, nil
}
