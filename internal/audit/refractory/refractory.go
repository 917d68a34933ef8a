// Package refractory refines grouped spike events with physiological plausibility checks.
// It runs after detection and grouping and never changes the threshold logic itself.
package refractory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

// Options selects the criteria to apply. Every criterion is disabled when left at zero.
type Options struct {
	SampleRate float64 // Hz, required by any enabled criterion

	MinWidthMs float64 // shortest accepted event
	MaxWidthMs float64 // longest accepted event

	// RefractoryMs drops events whose peak follows the previous kept peak by less than this.
	RefractoryMs float64

	// BaselineTolerance requires the mean level after the event to come back within
	// tolerance * (peak - pre-event baseline) of the mean level before it.
	BaselineTolerance float64
	BaselineMs        float64 // span averaged on each side (default 1)
}

// Enabled reports whether any criterion is active.
func (o Options) Enabled() bool {
	return o.MinWidthMs > 0 || o.MaxWidthMs > 0 || o.RefractoryMs > 0 || o.BaselineTolerance > 0
}

// Filter returns the events satisfying every enabled criterion, and how many were rejected.
func Filter(signal []float64, events []types.SpikeEvent, opts Options) ([]types.SpikeEvent, int, error) {
	if !opts.Enabled() {
		return events, 0, nil
	}

	if !(opts.SampleRate > 0) {
		return nil, 0, fmt.Errorf("%w: refractory and width criteria need a sample rate", shared.ErrData)
	}

	if opts.MaxWidthMs > 0 && opts.MinWidthMs > opts.MaxWidthMs {
		return nil, 0, fmt.Errorf("%w: minimum width %vms exceeds maximum %vms",
			shared.ErrData, opts.MinWidthMs, opts.MaxWidthMs)
	}

	if opts.BaselineMs == 0 {
		opts.BaselineMs = 1
	}

	samplesPerMs := opts.SampleRate / 1000
	refractory := int(math.Round(opts.RefractoryMs * samplesPerMs))
	baseline := max(int(math.Round(opts.BaselineMs*samplesPerMs)), 1)

	kept := make([]types.SpikeEvent, 0, len(events))
	lastPeak := -1

	for _, event := range events {
		widthMs := float64(event.Width()) / samplesPerMs

		if opts.MinWidthMs > 0 && widthMs < opts.MinWidthMs {
			continue
		}

		if opts.MaxWidthMs > 0 && widthMs > opts.MaxWidthMs {
			continue
		}

		if opts.BaselineTolerance > 0 && !returnsToBaseline(signal, event, baseline, opts.BaselineTolerance) {
			continue
		}

		if refractory > 0 && lastPeak >= 0 && event.Peak-lastPeak < refractory {
			continue
		}

		kept = append(kept, event)
		lastPeak = event.Peak
	}

	return kept, len(events) - len(kept), nil
}

// returnsToBaseline compares the mean level on both sides of the event.
// Events too close to either edge to measure a baseline are accepted.
func returnsToBaseline(signal []float64, event types.SpikeEvent, span int, tolerance float64) bool {
	before := signal[max(0, event.Start-span):event.Start]
	after := signal[event.End:min(len(signal), event.End+span)]

	if len(before) == 0 || len(after) == 0 {
		return true
	}

	pre := stat.Mean(before, nil)
	post := stat.Mean(after, nil)
	height := signal[event.Peak] - pre

	return math.Abs(post-pre) <= tolerance*height
}
