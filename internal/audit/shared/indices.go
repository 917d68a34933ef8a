package shared

import "fmt"

// CheckSpikes validates the common inputs of windowed spike metrics.
func CheckSpikes(signal []float64, indices []int, halfWidth int) error {
	if len(signal) == 0 {
		return fmt.Errorf("%w: empty signal", ErrData)
	}

	if halfWidth <= 0 {
		return fmt.Errorf("%w: half width must be positive, got %d", ErrData, halfWidth)
	}

	if len(indices) == 0 {
		return ErrNoSpikes
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(signal) {
			return fmt.Errorf("%w: spike index %d outside [0, %d)", ErrData, idx, len(signal))
		}
	}

	return nil
}
