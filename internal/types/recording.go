package types

import "gonum.org/v1/gonum/mat"

// Encoding of raw interleaved sample data.
type Encoding string

const (
	EncodingS16 Encoding = "s16" // signed 16-bit little endian
	EncodingS24 Encoding = "s24" // signed 24-bit little endian, packed
	EncodingS32 Encoding = "s32" // signed 32-bit little endian
	EncodingF32 Encoding = "f32" // IEEE 754 float32 little endian
	EncodingF64 Encoding = "f64" // IEEE 754 float64 little endian
)

// BytesPerSample returns the size of one sample, or 0 for an unknown encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingS16:
		return 2
	case EncodingS24:
		return 3
	case EncodingS32, EncodingF32:
		return 4
	case EncodingF64:
		return 8
	}

	return 0
}

// SampleFormat describes raw interleaved sample data handed over by an acquisition system.
type SampleFormat struct {
	SampleRate float64
	Encoding   Encoding
	Channels   uint
	Gain       float64 // physical units per raw count (integer encodings only), 0 = 1
}

// Recording is a multi-channel voltage recording.
// Samples has one row per sample and one column per channel.
type Recording struct {
	Samples    *mat.Dense
	SampleRate float64  // Hz, 0 when unknown
	Labels     []string // optional, one per channel
}

// Channels returns the number of channels (columns).
func (r *Recording) Channels() int {
	if r == nil || r.Samples == nil {
		return 0
	}

	_, cols := r.Samples.Dims()

	return cols
}

// Length returns the number of samples per channel (rows).
func (r *Recording) Length() int {
	if r == nil || r.Samples == nil {
		return 0
	}

	rows, _ := r.Samples.Dims()

	return rows
}

// Label returns the label for a channel, or an empty string.
func (r *Recording) Label(channel int) string {
	if channel < 0 || channel >= len(r.Labels) {
		return ""
	}

	return r.Labels[channel]
}

// Window is a half-open sample range [Start, End) clamped to the signal bounds.
type Window struct {
	Start int
	End   int
}

// Len returns the number of samples covered by the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// SpikeEvent is a run of threshold crossings merged into a single event.
// Start and End delimit the run as [Start, End), Peak is the index of the largest sample in it.
type SpikeEvent struct {
	Start int
	End   int
	Peak  int
}

// Width returns the event width in samples.
func (e SpikeEvent) Width() int {
	return e.End - e.Start
}

/*
SNR Interpretation

SNR here is the windowed ratio (max - min) / std over the samples around each spike.
A window of pure Gaussian noise of ~100 samples already yields a ratio of about 5,
so values are only meaningful relative to that floor.

| AverageSNR | Interpretation                                  |
|------------|-------------------------------------------------|
| < 5        | Noise. Crossings are likely threshold artifacts.|
| 5 - 6      | Marginal unit, or multi-unit hash.              |
| 6 - 7      | Usable single unit.                             |
| > 7        | Well isolated unit.                             |

The per-spike ratio is 0 when the window is flat (std = 0).
*/

// SNRResult contains the windowed SNR of every measured spike.
type SNRResult struct {
	Values  []float64 // one per spike index, in input order
	Average float64
}

// PeakTroughResult contains the windowed peak-to-trough amplitude of every measured spike.
type PeakTroughResult struct {
	Values  []float64 // one per spike index, in input order
	Average float64
}

/*
Line Noise Interpretation

| LevelDb   | Interpretation                          |
|-----------|-----------------------------------------|
| < 10 dB   | Clean or negligible                     |
| 10-20 dB  | Visible mains pickup                    |
| 20-30 dB  | Significant, check grounding/reference  |
| > 30 dB   | Severe, recording likely unusable       |

50Hz = European mains
60Hz = North American mains
*/

// LineNoiseResult contains mains interference measurements for a channel.
type LineNoiseResult struct {
	Has50Hz  bool
	Has60Hz  bool
	LevelDb  float64 // strongest harmonic prominence above surrounding bins
	Windows  int     // number of FFT windows analyzed
	FFTSize  int
	BinWidth float64 // Hz per FFT bin
}

// SaturationResult contains the runs of samples pinned at a channel's extremes.
type SaturationResult struct {
	Events           uint64 // runs of at least two samples
	SaturatedSamples uint64
	LongestRun       uint64
	Samples          uint64
}
