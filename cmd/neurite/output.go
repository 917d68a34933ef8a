//nolint:wrapcheck
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/neurite"
	"github.com/farcloser/neurite/internal/output"
)

func outputResult(filePath string, result *neurite.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result, true)
	} else {
		meta = buildFriendlyOutput(result)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the analysis results.
func buildFriendlyOutput(result *neurite.Result) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf("%d spikes over %d channels, %d silent, %d flagged (worst: %s)",
			result.SpikeTotal, len(result.Channels), result.SilentChannels, result.IssueCount, result.WorstSeverity),
	}

	channels := make([]any, 0, len(result.Channels))

	for i := range result.Channels {
		report := &result.Channels[i]

		marker := "  "
		if report.Detected {
			marker = "!!"
		}

		channels = append(channels, fmt.Sprintf("%s [%s] %s: %s%s",
			marker, report.Quality, channelName(report), report.Summary, properties(report, result.SampleRate)))
	}

	meta["channels"] = channels

	return meta
}

func channelName(report *neurite.ChannelReport) string {
	if report.Label != "" {
		return fmt.Sprintf("%d (%s)", report.Channel, report.Label)
	}

	return strconv.Itoa(report.Channel)
}

func properties(report *neurite.ChannelReport, sampleRate float64) string {
	if report.Silent {
		return ""
	}

	props := fmt.Sprintf(" - peak-to-trough %.3g", report.AveragePeakToTrough)

	if sampleRate > 0 {
		props += fmt.Sprintf(", %.2f Hz", report.FiringRateHz)
	}

	if report.Rejected > 0 {
		props += fmt.Sprintf(", %d rejected", report.Rejected)
	}

	return props
}
