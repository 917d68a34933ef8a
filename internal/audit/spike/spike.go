// Package spike finds threshold crossings in a channel and groups them into events.
package spike

import (
	"github.com/farcloser/neurite/internal/audit/threshold"
	"github.com/farcloser/neurite/internal/types"
)

// Detect returns the index of every sample strictly above mean + factor * std.
// A spike spanning k samples above threshold yields k indices; use Group to merge them.
func Detect(signal []float64, factor float64) ([]int, error) {
	limit, err := threshold.Estimate(signal, factor)
	if err != nil {
		return nil, err
	}

	return Crossings(signal, limit), nil
}

// Crossings returns the ascending indices of samples strictly above limit.
func Crossings(signal []float64, limit float64) []int {
	indices := []int{}

	for i, sample := range signal {
		if sample > limit {
			indices = append(indices, i)
		}
	}

	return indices
}

// Group merges ascending crossing indices into events. An index at most maxGap samples after
// the previous one extends the current event; maxGap below 1 is treated as 1 (strictly consecutive).
func Group(signal []float64, indices []int, maxGap int) []types.SpikeEvent {
	maxGap = max(maxGap, 1)
	events := []types.SpikeEvent{}

	if len(indices) == 0 {
		return events
	}

	current := types.SpikeEvent{Start: indices[0], End: indices[0] + 1, Peak: indices[0]}

	for _, idx := range indices[1:] {
		if idx-(current.End-1) <= maxGap {
			current.End = idx + 1
			if signal[idx] > signal[current.Peak] {
				current.Peak = idx
			}

			continue
		}

		events = append(events, current)
		current = types.SpikeEvent{Start: idx, End: idx + 1, Peak: idx}
	}

	return append(events, current)
}

// Peaks returns the peak index of every event.
func Peaks(events []types.SpikeEvent) []int {
	peaks := make([]int, 0, len(events))
	for _, event := range events {
		peaks = append(peaks, event.Peak)
	}

	return peaks
}

// Within returns the indices that fall inside one of the events. Both inputs must be ascending.
func Within(indices []int, events []types.SpikeEvent) []int {
	kept := []int{}
	next := 0

	for _, idx := range indices {
		for next < len(events) && events[next].End <= idx {
			next++
		}

		if next == len(events) {
			break
		}

		if idx >= events[next].Start {
			kept = append(kept, idx)
		}
	}

	return kept
}
