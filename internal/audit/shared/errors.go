package shared

import "errors"

var (
	// ErrData indicates an empty or malformed signal, or an option that cannot be applied to it.
	ErrData = errors.New("invalid signal data")

	// ErrNoSpikes indicates a metric was requested against an empty spike index list.
	ErrNoSpikes = errors.New("no spikes detected")
)
