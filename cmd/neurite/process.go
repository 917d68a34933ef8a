//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/neurite"
	"github.com/farcloser/neurite/internal/integration/edf"
)

var errProcessArgs = errors.New("expected exactly one argument: file path")

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Detect spikes in every channel of an EDF recording",
		ArgsUsage: "<file.edf>",
		Flags: append([]cli.Flag{
			&cli.FloatFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Override the sample rate declared in the file header (Hz)",
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			rec, err := edf.LoadFile(filePath)
			if err != nil {
				return fmt.Errorf("loading recording: %w", err)
			}

			if rate := cmd.Float("sample-rate"); rate > 0 {
				rec.SampleRate = rate
			}

			result, err := neurite.AnalyzeRecording(ctx, rec, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputResult(filePath, result, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}
