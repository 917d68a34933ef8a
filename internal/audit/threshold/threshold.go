// Package threshold computes spike detection thresholds from channel baseline statistics.
package threshold

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/neurite/internal/audit/shared"
)

// Estimate returns mean(signal) + factor * std(signal), using the population standard deviation.
func Estimate(signal []float64, factor float64) (float64, error) {
	if len(signal) == 0 {
		return 0, fmt.Errorf("%w: empty signal", shared.ErrData)
	}

	if !(factor > 0) || math.IsInf(factor, 0) {
		return 0, fmt.Errorf("%w: threshold factor must be a positive number, got %v", shared.ErrData, factor)
	}

	mean, std := stat.PopMeanStdDev(signal, nil)

	return mean + factor*std, nil
}
