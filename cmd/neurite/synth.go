//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/neurite/internal/integration/edf"
	"github.com/farcloser/neurite/internal/synth"
)

var errSynthArgs = errors.New("synth takes no arguments")

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "Write a synthetic recording (Gaussian noise plus spikes at known positions) as EDF",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Destination EDF file",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Number of channels",
				Value:   3,
			},
			&cli.IntFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Sample rate in Hz (channels x rate must stay within 30720 for EDF records)",
				Value:   10000,
			},
			&cli.IntFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Duration in seconds",
				Value:   10,
			},
			&cli.IntFlag{
				Name:  "spikes",
				Usage: "Spikes per channel, at random non-overlapping positions",
				Value: 50,
			},
			&cli.FloatFlag{
				Name:  "amplitude",
				Usage: "Spike amplitude in noise units",
				Value: 10,
			},
			&cli.FloatFlag{
				Name:  "noise",
				Usage: "Background noise standard deviation",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "flat",
				Usage: "Comma-separated channels held at zero (no noise, no spikes)",
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
				Usage:   "Include spike positions in output",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 0 {
				return fmt.Errorf("%w: got %d", errSynthArgs, cmd.NArg())
			}

			flat, err := parseChannelList(cmd.String("flat"))
			if err != nil {
				return err
			}

			rate := cmd.Int("sample-rate")

			result, err := synth.Generate(synth.Options{
				Channels:   cmd.Int("channels"),
				Samples:    rate * cmd.Int("duration"),
				SampleRate: float64(rate),
				Seed:       uint64(cmd.Int("seed")), //nolint:gosec // any bit pattern is a valid seed
				NoiseStd:   cmd.Float("noise"),
				Amplitude:  cmd.Float("amplitude"),
				Waveform:   synth.DefaultWaveform,
				Count:      cmd.Int("spikes"),
				Flat:       flat,
			})
			if err != nil {
				return err
			}

			outputPath := cmd.String("output")

			if err = edf.SaveFile(outputPath, result.Recording, edf.Meta{RecordingID: "synthetic"}); err != nil {
				return fmt.Errorf("saving recording: %w", err)
			}

			formatter, err := format.GetFormatter(cmd.String("format"))
			if err != nil {
				return err
			}

			meta := map[string]any{
				"channels":    result.Recording.Channels(),
				"samples":     result.Recording.Length(),
				"sample_rate": result.Recording.SampleRate,
			}

			counts := make([]int, len(result.Spikes))
			for ch, positions := range result.Spikes {
				counts[ch] = len(positions)
			}

			meta["spikes"] = counts

			if cmd.Bool("debug") {
				meta["positions"] = result.Spikes
			}

			return formatter.PrintAll([]*format.Data{{Object: outputPath, Meta: meta}}, os.Stdout)
		},
	}
}

func parseChannelList(raw string) ([]int, error) {
	var channels []int

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		ch, err := strconv.Atoi(name)
		if err != nil || ch < 0 {
			return nil, fmt.Errorf("invalid channel %q", name)
		}

		channels = append(channels, ch)
	}

	return channels, nil
}
