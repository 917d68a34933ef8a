//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/neurite"
	"github.com/farcloser/neurite/internal/integration/raw"
	"github.com/farcloser/neurite/internal/types"
)

var errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Detect spikes in raw interleaved samples",
		ArgsUsage: "<file | ->",
		Flags: append([]cli.Flag{
			// SampleFormat flags.
			&cli.FloatFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Sample rate in Hz (e.g., 20000, 30000); 0 disables rate dependent metrics",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "Sample encoding: s16, s24, s32, f32, f64 (little endian)",
				Value:   string(types.EncodingS16),
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Number of interleaved channels",
				Value:   1,
			},
			&cli.FloatFlag{
				Name:    "gain",
				Aliases: []string{"g"},
				Usage:   "Physical units per raw count for integer encodings (e.g., 0.195 for uV)",
				Value:   1,
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			format, err := parseSampleFormat(cmd)
			if err != nil {
				return err
			}

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			input, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer input.Close()

			rec, err := raw.Decode(input, format)
			if err != nil {
				return fmt.Errorf("decoding samples: %w", err)
			}

			result, err := neurite.AnalyzeRecording(ctx, rec, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputResult(inputPath, result, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}

var errInvalidChannels = errors.New("--channels must be positive")

func parseSampleFormat(cmd *cli.Command) (types.SampleFormat, error) {
	encoding := types.Encoding(cmd.String("encoding"))
	if encoding.BytesPerSample() == 0 {
		return types.SampleFormat{}, fmt.Errorf("--encoding: unknown encoding %q (valid: s16, s24, s32, f32, f64)", encoding)
	}

	channels := cmd.Int("channels")
	if channels <= 0 {
		return types.SampleFormat{}, errInvalidChannels
	}

	return types.SampleFormat{
		SampleRate: cmd.Float("sample-rate"),
		Encoding:   encoding,
		Channels:   uint(channels), //nolint:gosec // validated positive value
		Gain:       cmd.Float("gain"),
	}, nil
}

// openInput opens a file, or returns stdin for "-".
func openInput(source string) (io.ReadCloser, error) {
	if source == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(source) //nolint:gosec // CLI tool opens user-specified recordings
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", source, err)
	}

	return file, nil
}
