package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a neurite JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "quality",
				Usage: "List channels graded with a given quality (mild, moderate, severe, silent)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("quality"))
		},
	}
}

func runDigest(reportPath, qualityFilter string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if qualityFilter != "" {
		printQualityDetail(records, qualityFilter)
	}

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 16 * 1024 * 1024 // 16MB, recordings can have many channels
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

type digestTotals struct {
	recordings int
	failed     int
	channels   int
	silent     int
	spikes     int
	worst      map[string]int // per recording
	quality    map[string]int // per channel
}

func summarize(records []digestRecord) digestTotals {
	totals := digestTotals{
		recordings: len(records),
		worst:      map[string]int{"severe": 0, "moderate": 0, "mild": 0, "clean": 0},
		quality:    map[string]int{"severe": 0, "moderate": 0, "mild": 0, "clean": 0},
	}

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			totals.failed++

			continue
		}

		totals.worst[severityBucket(rec.Analysis.Summary.WorstSeverity)]++
		totals.spikes += rec.Analysis.Summary.SpikeTotal
		totals.silent += rec.Analysis.Summary.SilentChannels

		for _, ch := range rec.Analysis.Channels {
			totals.channels++

			if !ch.Silent {
				totals.quality[severityBucket(ch.Quality)]++
			}
		}
	}

	return totals
}

func severityBucket(severity string) string {
	if severity == "" || severity == "no issue" {
		return "clean"
	}

	return severity
}

func printDigest(records []digestRecord) {
	totals := summarize(records)

	fmt.Println("=== Neurite Report Digest ===")
	fmt.Println()
	fmt.Printf("Recordings:    %d\n", totals.recordings)
	fmt.Printf("Failed:        %d\n", totals.failed)
	fmt.Printf("Analyzed:      %d\n", totals.recordings-totals.failed)
	fmt.Printf("Channels:      %d (%d silent)\n", totals.channels, totals.silent)
	fmt.Printf("Spikes:        %d\n", totals.spikes)
	fmt.Println()

	fmt.Println("--- Worst Channel Per Recording ---")
	fmt.Printf("  Clean:     %d\n", totals.worst["clean"])
	fmt.Printf("  Mild:      %d\n", totals.worst["mild"])
	fmt.Printf("  Moderate:  %d\n", totals.worst["moderate"])
	fmt.Printf("  Severe:    %d\n", totals.worst["severe"])
	fmt.Println()

	fmt.Println("--- Channel Quality (spiking channels) ---")
	fmt.Printf("  Clean:     %d\n", totals.quality["clean"])
	fmt.Printf("  Mild:      %d\n", totals.quality["mild"])
	fmt.Printf("  Moderate:  %d\n", totals.quality["moderate"])
	fmt.Printf("  Severe:    %d\n", totals.quality["severe"])
}

type channelEntry struct {
	file    string
	channel digestChannel
}

func printQualityDetail(records []digestRecord, quality string) {
	fmt.Println()

	var entries []channelEntry

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		for _, ch := range rec.Analysis.Channels {
			matched := ch.Quality == quality && !ch.Silent
			if quality == "silent" {
				matched = ch.Silent
			}

			if !matched {
				continue
			}

			file := rec.File
			if file == "" {
				file = "(redacted)"
			}

			entries = append(entries, channelEntry{file: file, channel: ch})
		}
	}

	if len(entries) == 0 {
		fmt.Printf("No channels graded %s\n", quality)

		return
	}

	// Worst SNR first; silent channels have none.
	slices.SortStableFunc(entries, func(a, b channelEntry) int {
		return compareSNR(a.channel.AverageSNR, b.channel.AverageSNR)
	})

	fmt.Printf("=== %s: %d channels ===\n\n", quality, len(entries))

	for _, entry := range entries {
		fmt.Printf("  %s channel %d %s\n", entry.file, entry.channel.Channel, entry.channel.Label)
		fmt.Printf("    spikes: %d\n", entry.channel.SpikeCount)
		fmt.Printf("    %s\n", entry.channel.Summary)
		fmt.Println()
	}
}

func compareSNR(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}

	return 0
}
