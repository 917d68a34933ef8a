// Package linenoise detects mains interference (50/60 Hz and harmonics) on a single channel.
package linenoise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/types"
)

type Options struct {
	FFTSize      int     // default: next power of two >= sample rate (1 Hz bins or finer)
	WindowsMax   int     // max windows to analyze (default 32)
	MinLevelDb   float64 // harmonic prominence needed to flag interference (default 15)
	MaxVariation float64 // max coefficient of variation across windows (default 0.3)
}

func DefaultOptions() Options {
	return Options{
		WindowsMax:   32,
		MinLevelDb:   15,
		MaxVariation: 0.3,
	}
}

// Detect measures mains interference. Signals shorter than one FFT window yield a result with Windows == 0.
func Detect(signal []float64, sampleRate float64, opts Options) (*types.LineNoiseResult, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: line noise detection needs a sample rate", shared.ErrData)
	}

	defaults := DefaultOptions()

	if opts.FFTSize == 0 {
		opts.FFTSize = nextPowerOfTwo(int(math.Ceil(sampleRate)))
	}

	if opts.WindowsMax == 0 {
		opts.WindowsMax = defaults.WindowsMax
	}

	if opts.MinLevelDb == 0 {
		opts.MinLevelDb = defaults.MinLevelDb
	}

	if opts.MaxVariation == 0 {
		opts.MaxVariation = defaults.MaxVariation
	}

	fftSize := opts.FFTSize
	result := &types.LineNoiseResult{
		FFTSize:  fftSize,
		BinWidth: sampleRate / float64(fftSize),
	}

	positions := windowPositions(len(signal), fftSize, opts.WindowsMax)
	if len(positions) == 0 {
		return result, nil
	}

	hann := makeHannWindow(fftSize)
	fft := fourier.NewFFT(fftSize)
	fftIn := make([]float64, fftSize)
	binCount := fftSize/2 + 1

	windowMagnitudes := make([][]float64, len(positions))

	for wi, pos := range positions {
		segment := signal[pos : pos+fftSize]
		mean := stat.Mean(segment, nil)

		for i, sample := range segment {
			fftIn[i] = (sample - mean) * hann[i]
		}

		coeffs := fft.Coefficients(nil, fftIn)

		windowMagnitudes[wi] = make([]float64, binCount)
		for i, c := range coeffs {
			windowMagnitudes[wi][i] = math.Hypot(real(c), imag(c))
		}
	}

	result.Windows = len(positions)

	level50, variation50 := prominence(windowMagnitudes, 50, result.BinWidth)
	level60, variation60 := prominence(windowMagnitudes, 60, result.BinWidth)

	if level50 > opts.MinLevelDb && variation50 < opts.MaxVariation {
		result.Has50Hz = true
		result.LevelDb = level50
	}

	if level60 > opts.MinLevelDb && variation60 < opts.MaxVariation {
		result.Has60Hz = true
		result.LevelDb = max(result.LevelDb, level60)
	}

	return result, nil
}

// prominence returns the mean, across windows, of the strongest harmonic peak above its surrounding bins,
// and the coefficient of variation of that value. Interference is steady, physiology is not.
func prominence(windowMagnitudes [][]float64, fundamental, binHz float64) (level, variation float64) {
	harmonics := []float64{1, 2, 3, 4, 5, 6}
	windowPeaks := make([]float64, len(windowMagnitudes))

	for wi, mag := range windowMagnitudes {
		magDb := toDb(mag)

		var strongest float64

		for _, h := range harmonics {
			bin := int(math.Round(fundamental * h / binHz))
			if bin <= 5 || bin >= len(magDb)-5 {
				continue
			}

			peak := max(magDb[bin-1], magDb[bin], magDb[bin+1])

			var surroundSum float64

			surroundCount := 0

			for i := bin - 5; i <= bin+5; i++ {
				if i < bin-2 || i > bin+2 {
					surroundSum += magDb[i]
					surroundCount++
				}
			}

			strongest = max(strongest, peak-surroundSum/float64(surroundCount))
		}

		windowPeaks[wi] = strongest
	}

	mean, std := stat.PopMeanStdDev(windowPeaks, nil)
	if mean <= 0 {
		return mean, 1
	}

	return mean, std / mean
}

// windowPositions spreads up to maxWindows non-overlapping windows evenly over the signal.
func windowPositions(length, size, maxWindows int) []int {
	if length < size {
		return nil
	}

	count := min(maxWindows, length/size)
	if count <= 1 {
		return []int{0}
	}

	step := float64(length-size) / float64(count-1)
	positions := make([]int, count)

	for i := range positions {
		positions[i] = int(float64(i) * step)
	}

	return positions
}

func makeHannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	return window
}

func toDb(magnitude []float64) []float64 {
	db := make([]float64, len(magnitude))

	for i, m := range magnitude {
		if m > 0 {
			db[i] = 20 * math.Log10(m)
		} else {
			db[i] = -120
		}
	}

	return db
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
