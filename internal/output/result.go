// Package output provides shared result serialization for neurite JSON output.
package output

import (
	"math"

	"github.com/farcloser/neurite"
	"github.com/farcloser/neurite/internal/types"
)

// ResultToMap converts an analysis result into the canonical map structure
// used for JSON and JSONL serialization. Per-spike data is included when detailed is set.
func ResultToMap(result *neurite.Result, detailed bool) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"samples":         result.Samples,
			"sample_rate":     Number(result.SampleRate),
			"spike_total":     result.SpikeTotal,
			"silent_channels": result.SilentChannels,
			"issue_count":     result.IssueCount,
			"worst_severity":  result.WorstSeverity.String(),
		},
	}

	channels := make([]any, 0, len(result.Channels))
	for i := range result.Channels {
		channels = append(channels, ChannelToMap(&result.Channels[i], detailed))
	}

	meta["channels"] = channels

	return meta
}

// ChannelToMap converts a channel report. Silent channels carry nil metrics.
func ChannelToMap(report *neurite.ChannelReport, detailed bool) map[string]any {
	meta := map[string]any{
		"channel":                report.Channel,
		"label":                  report.Label,
		"threshold":              Number(report.Threshold),
		"crossings":              report.Crossings,
		"spike_count":            report.SpikeCount,
		"rejected":               report.Rejected,
		"average_snr":            Number(report.AverageSNR),
		"average_peak_to_trough": Number(report.AveragePeakToTrough),
		"firing_rate_hz":         Number(report.FiringRateHz),
		"silent":                 report.Silent,
		"quality":                report.Quality.String(),
		"summary":                report.Summary,
	}

	if r := report.LineNoise; r != nil {
		meta["line_noise"] = LineNoiseToMap(r)
	}

	if r := report.Saturation; r != nil && r.Events > 0 {
		meta["saturation"] = map[string]any{
			"events":            r.Events,
			"saturated_samples": r.SaturatedSamples,
			"longest_run":       r.LongestRun,
		}
	}

	if detailed {
		events := make([]any, 0, len(report.Events))
		for _, event := range report.Events {
			events = append(events, map[string]any{
				"start": event.Start,
				"end":   event.End,
				"peak":  event.Peak,
			})
		}

		meta["events"] = events
		meta["indices"] = report.Indices
		meta["snr"] = Numbers(report.SNR)
		meta["peak_to_trough"] = Numbers(report.PeakToTrough)
	}

	return meta
}

// LineNoiseToMap converts a line noise result.
func LineNoiseToMap(r *types.LineNoiseResult) map[string]any {
	return map[string]any{
		"has_50hz":  r.Has50Hz,
		"has_60hz":  r.Has60Hz,
		"level_db":  Number(r.LevelDb),
		"windows":   r.Windows,
		"fft_size":  r.FFTSize,
		"bin_width": Number(r.BinWidth),
	}
}

// Number returns nil for values JSON cannot represent (NaN and infinities).
func Number(value float64) any {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	return value
}

// Numbers applies Number to every value.
func Numbers(values []float64) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = Number(value)
	}

	return out
}
