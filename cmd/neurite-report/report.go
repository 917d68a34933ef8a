//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/neurite"
	"github.com/farcloser/neurite/internal/integration/edf"
	"github.com/farcloser/neurite/internal/output"
)

const outputFile = "neurite-report.jsonl"

var (
	errNotDirectory = errors.New("not a directory")
	errNoRecordings = errors.New("no .edf files found")
	errReportArgs   = errors.New("expected exactly one argument: folder path")
)

type reportOptions struct {
	folder      string
	output      string
	parquetPath string
	redact      bool
	workers     int
	sampleRate  float64
	analysis    neurite.Options
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a folder of EDF recordings and write a neurite JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file (a gzip copy is written next to it)",
				Value:   outputFile,
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "Also write one row per channel to this Parquet file",
			},
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			&cli.FloatFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Override the sample rate declared in every file header (Hz)",
			},
			&cli.FloatFlag{
				Name:    "threshold-factor",
				Aliases: []string{"t"},
				Usage:   "Detection threshold in standard deviations above the mean",
				Value:   neurite.DefaultOptions().ThresholdFactor,
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
			&cli.BoolFlag{
				Name:  "line-noise",
				Usage: "Check every channel for 50/60Hz mains interference",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			resolution, err := neurite.ParseResolution(cmd.String("resolution"))
			if err != nil {
				return err
			}

			if factor := cmd.Float("threshold-factor"); !(factor > 0) {
				return fmt.Errorf("%w: --threshold-factor must be positive, got %v", neurite.ErrData, factor)
			}

			analysis := neurite.DefaultOptions()
			analysis.ThresholdFactor = cmd.Float("threshold-factor")
			analysis.Resolution = resolution
			analysis.RefractoryMs = cmd.Float("refractory-ms")
			analysis.LineNoise = cmd.Bool("line-noise")
			// Files are the unit of parallelism here.
			analysis.Workers = 1

			return runReport(ctx, reportOptions{
				folder:      cmd.Args().First(),
				output:      cmd.String("output"),
				parquetPath: cmd.String("parquet"),
				redact:      cmd.Bool("redact-path"),
				workers:     max(cmd.Int("workers"), 1),
				sampleRate:  cmd.Float("sample-rate"),
				analysis:    analysis,
			})
		},
	}
}

func runReport(ctx context.Context, opts reportOptions) error {
	info, err := os.Stat(opts.folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", opts.folder, errNotDirectory)
	}

	files, err := collectRecordings(opts.folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", opts.folder, errNoRecordings)
	}

	fmt.Fprintf(os.Stderr, "Found %d recordings to analyze (%d workers)\n", len(files), opts.workers)

	// Process files concurrently.
	startTime := time.Now()
	results := make([]Record, len(files))
	rows := make([][]channelRow, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, opts.workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}

			defer func() { <-sem }()

			results[idx], rows[idx] = processFile(ctx, filePath, opts)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	// Write results in file order.
	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalLoad, totalAnalyze time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalLoad += millisToDuration(record.Timing.LoadMs)
			totalAnalyze += millisToDuration(record.Timing.AnalyzeMs)
		}

		if opts.redact {
			record.File = ""
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	out.Close()

	// Compress.
	if err := compressFile(opts.output); err != nil {
		slog.Error("compressing report", "error", err)
	}

	if opts.parquetPath != "" {
		if err := writeParquet(opts.parquetPath, slices.Concat(rows...), opts.redact); err != nil {
			return fmt.Errorf("writing parquet: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Channel rows written to %s\n", opts.parquetPath)
	}

	elapsed := time.Since(startTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %dm %ds (%d failed)\n", len(files), minutes, seconds, failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", opts.output, opts.output)

	// Timing breakdown.
	analyzed := len(files) - failed
	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  loading:     %s (cumulative)\n", totalLoad.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  analysis:    %s (cumulative)\n", totalAnalyze.Truncate(time.Millisecond))

	if analyzed > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s (load: %s, analyze: %s)\n",
			(totalLoad+totalAnalyze)/time.Duration(analyzed),
			totalLoad/time.Duration(analyzed),
			totalAnalyze/time.Duration(analyzed),
		)
	}

	// Print digest summary.
	fmt.Fprintln(os.Stderr)

	return runDigest(opts.output, "")
}

func processFile(ctx context.Context, filePath string, opts reportOptions) (Record, []channelRow) {
	fileStart := time.Now()
	timing := &RecordTiming{}

	rec, err := edf.LoadFile(filePath)

	timing.LoadMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("load failed: %v", err), Timing: timing}, nil
	}

	if opts.sampleRate > 0 {
		rec.SampleRate = opts.sampleRate
	}

	analyzeStart := time.Now()

	result, err := neurite.AnalyzeRecording(ctx, rec, opts.analysis)

	timing.AnalyzeMs = durationMs(time.Since(analyzeStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("analysis failed: %v", err), Timing: timing}, nil
	}

	record := Record{
		File: filePath,
		Recording: &RecordingInfo{
			Channels:   rec.Channels(),
			Samples:    rec.Length(),
			SampleRate: rec.SampleRate,
			Labels:     rec.Labels,
		},
		Analysis: output.ResultToMap(result, false),
		Timing:   timing,
	}

	return record, channelRows(filePath, result)
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectRecordings(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) == ".edf" {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
