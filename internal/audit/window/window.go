// Package window extracts bounds-clamped sample ranges around a reference index.
package window

import "github.com/farcloser/neurite/internal/types"

// Extract returns [max(0, center-halfWidth), min(n, center+halfWidth)), clamped so that
// 0 <= Start <= End <= n holds for any center.
func Extract(n, center, halfWidth int) types.Window {
	// Bounds saturate instead of computing center±halfWidth, which overflows for large widths.
	start := 0
	if center > halfWidth {
		start = min(center-halfWidth, n)
	}

	end := n
	if center < 0 {
		end = min(n, center+halfWidth)
	} else if halfWidth < n-center {
		end = center + halfWidth
	}

	end = max(end, start)

	return types.Window{Start: start, End: end}
}

// Segment returns the window around center and the corresponding sub-slice of signal.
// The segment shares memory with signal and must not be modified.
func Segment(signal []float64, center, halfWidth int) (types.Window, []float64) {
	win := Extract(len(signal), center, halfWidth)

	return win, signal[win.Start:win.End:win.End]
}
