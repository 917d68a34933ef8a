//nolint:wrapcheck
package neurite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/farcloser/neurite/internal/audit/linenoise"
	"github.com/farcloser/neurite/internal/audit/peaktrough"
	"github.com/farcloser/neurite/internal/audit/refractory"
	"github.com/farcloser/neurite/internal/audit/saturation"
	"github.com/farcloser/neurite/internal/audit/shared"
	"github.com/farcloser/neurite/internal/audit/snr"
	"github.com/farcloser/neurite/internal/audit/spike"
	"github.com/farcloser/neurite/internal/audit/threshold"
	"github.com/farcloser/neurite/internal/types"
)

/*
Usage:

rec, err := neurite.NewRecording(channels, 30000)
result, err := neurite.AnalyzeRecording(ctx, rec, neurite.DefaultOptions())
for _, ch := range result.Channels {
    fmt.Printf("%d: %d spikes, SNR %.2f\n", ch.Channel, ch.SpikeCount, ch.AverageSNR)
}

// Measure at event peaks instead of every above-threshold sample
opts := neurite.DefaultOptions()
opts.Resolution = neurite.ResolutionEvent

// Reject implausible events (needs a sample rate)
opts.RefractoryMs = 1.5
opts.MinWidthMs = 0.1
opts.MaxWidthMs = 2

// Silent channels carry NaN metrics
if ch.Silent {
    fmt.Println("no spikes")
}

*/

// Resolution selects the indices the windowed metrics are measured at.
type Resolution int

const (
	ResolutionSample Resolution = iota // every above-threshold sample (default)
	ResolutionEvent                    // the peak of every grouped event
)

func (r Resolution) String() string {
	switch r {
	case ResolutionSample:
		return "sample"
	case ResolutionEvent:
		return "event"
	}

	return "unknown"
}

// ParseResolution converts a string to a Resolution value.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "sample", "":
		return ResolutionSample, nil
	case "event":
		return ResolutionEvent, nil
	default:
		return 0, fmt.Errorf("unknown resolution %q (valid: sample, event)", s)
	}
}

// Severity indicates how poor a channel is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Bands defines severity thresholds. Direction is implicit:
// if Mild < Severe, higher values are worse (ascending, e.g. line noise dB).
// If Mild > Severe, lower values are worse (descending, e.g. SNR).
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value does not reach the Mild threshold, or is NaN.
func (b Bands) Match(value float64) (Severity, bool) {
	if b.Mild <= b.Severe {
		if value >= b.Severe {
			return SeveritySevere, true
		}

		if value >= b.Moderate {
			return SeverityModerate, true
		}

		if value >= b.Mild {
			return SeverityMild, true
		}
	} else {
		if value <= b.Severe {
			return SeveritySevere, true
		}

		if value <= b.Moderate {
			return SeverityModerate, true
		}

		if value <= b.Mild {
			return SeverityMild, true
		}
	}

	return SeverityNone, false
}

// Options configures the analysis.
type Options struct {
	ThresholdFactor float64 // standard deviations above the mean (default 5)
	HalfWidth       int     // samples on each side of a spike for SNR and peak-to-trough (default 50)
	EventGap        int     // crossings at most this many samples apart form one event (default 1)
	Resolution      Resolution

	// Follow-on event filter, disabled when zero. Needs a sample rate.
	RefractoryMs      float64
	MinWidthMs        float64
	MaxWidthMs        float64
	BaselineTolerance float64

	LineNoise bool // run mains interference detection (needs a sample rate)

	// Severity bands (zero value = use defaults).
	SNR        Bands // descending
	LineLevel  Bands // ascending, dB
	Saturation Bands // ascending, fraction of saturated samples

	Workers int // concurrent channels (default: number of CPUs)
}

// DefaultOptions returns the standard detection parameters.
func DefaultOptions() Options {
	return Options{
		ThresholdFactor: shared.DefaultThresholdFactor,
		HalfWidth:       shared.DefaultHalfWidth,
		EventGap:        shared.DefaultEventGap,
		Resolution:      ResolutionSample,
		SNR:             Bands{Mild: 7, Moderate: 6, Severe: 5},
		LineLevel:       Bands{Mild: 15, Moderate: 20, Severe: 30},
		Saturation:      Bands{Mild: 0.0001, Moderate: 0.001, Severe: 0.01},
		Workers:         runtime.NumCPU(),
	}
}

func (o Options) refractory(sampleRate float64) refractory.Options {
	return refractory.Options{
		SampleRate:        sampleRate,
		MinWidthMs:        o.MinWidthMs,
		MaxWidthMs:        o.MaxWidthMs,
		RefractoryMs:      o.RefractoryMs,
		BaselineTolerance: o.BaselineTolerance,
	}
}

// ChannelReport contains the analysis of one channel.
type ChannelReport struct {
	Channel int
	Label   string

	Threshold float64
	Crossings int // above-threshold samples
	Rejected  int // events removed by the refractory filter

	// SpikeCount is the number of events after grouping and filtering.
	SpikeCount int
	Events     []types.SpikeEvent

	// Indices are the sample indices SNR and peak-to-trough were measured at.
	Indices []int

	AverageSNR          float64 // NaN when Silent
	SNR                 []float64
	AveragePeakToTrough float64 // NaN when Silent
	PeakToTrough        []float64

	FiringRateHz float64 // events per second, 0 when the sample rate is unknown

	LineNoise  *types.LineNoiseResult // nil unless requested
	Saturation *types.SaturationResult

	Silent   bool
	Quality  Severity
	Summary  string // human-readable summary
	Detected bool   // Quality above SeverityNone
}

// Result contains the analysis of every channel, in ascending channel order.
type Result struct {
	Channels   []ChannelReport
	Samples    int
	SampleRate float64

	SpikeTotal     int
	SilentChannels int
	IssueCount     int
	WorstSeverity  Severity
}

// Analyze runs the detection pipeline on every column of samples (rows = samples, columns = channels).
// An empty or malformed input fails with ErrData. A channel without spikes does not fail the run:
// its report is Silent with NaN metrics.
func Analyze(ctx context.Context, samples mat.Matrix, opts Options) (*Result, error) {
	return analyze(ctx, samples, 0, nil, opts)
}

// AnalyzeRecording is Analyze with the sample rate and channel labels of a recording.
func AnalyzeRecording(ctx context.Context, rec *Recording, opts Options) (*Result, error) {
	if rec == nil || rec.Samples == nil {
		return nil, fmt.Errorf("%w: no recording", ErrData)
	}

	return analyze(ctx, rec.Samples, rec.SampleRate, rec.Labels, opts)
}

func analyze(
	ctx context.Context,
	samples mat.Matrix,
	sampleRate float64,
	labels []string,
	opts Options,
) (*Result, error) {
	if samples == nil {
		return nil, fmt.Errorf("%w: no samples", ErrData)
	}

	rows, cols := samples.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty recording (%d samples, %d channels)", ErrData, rows, cols)
	}

	applyDefaults(&opts)

	if err := validate(opts, sampleRate); err != nil {
		return nil, err
	}

	slog.Debug("neurite.Analyze", "samples", rows, "channels", cols, "stage", "start")

	reports := make([]ChannelReport, cols)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Workers)

	for ch := range cols {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			report, err := AnalyzeChannel(ch, mat.Col(nil, ch, samples), sampleRate, opts)
			if err != nil {
				slog.Debug("neurite.Analyze", "channel", ch, "stage", "error")

				return fmt.Errorf("channel %d: %w", ch, err)
			}

			if ch < len(labels) {
				report.Label = labels[ch]
			}

			reports[ch] = *report

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Channels:   reports,
		Samples:    rows,
		SampleRate: sampleRate,
	}

	for _, report := range reports {
		result.SpikeTotal += report.SpikeCount

		if report.Silent {
			result.SilentChannels++
		}

		if report.Detected {
			result.IssueCount++
		}

		if report.Quality > result.WorstSeverity {
			result.WorstSeverity = report.Quality
		}
	}

	slog.Debug("neurite.Analyze", "spikes", result.SpikeTotal, "silent", result.SilentChannels, "stage", "done")

	return result, nil
}

// AnalyzeChannel runs the detection pipeline on a single channel.
func AnalyzeChannel(channel int, signal []float64, sampleRate float64, opts Options) (*ChannelReport, error) {
	applyDefaults(&opts)

	if err := validate(opts, sampleRate); err != nil {
		return nil, err
	}

	limit, err := threshold.Estimate(signal, opts.ThresholdFactor)
	if err != nil {
		return nil, err
	}

	crossings := spike.Crossings(signal, limit)
	grouped := spike.Group(signal, crossings, opts.EventGap)

	events, rejected, err := refractory.Filter(signal, grouped, opts.refractory(sampleRate))
	if err != nil {
		return nil, err
	}

	var indices []int

	switch {
	case opts.Resolution == ResolutionEvent:
		indices = spike.Peaks(events)
	case rejected > 0:
		indices = spike.Within(crossings, events)
	default:
		indices = crossings
	}

	report := &ChannelReport{
		Channel:    channel,
		Threshold:  limit,
		Crossings:  len(crossings),
		Rejected:   rejected,
		SpikeCount: len(events),
		Events:     events,
		Indices:    indices,
	}

	if sampleRate > 0 {
		report.FiringRateHz = float64(len(events)) / (float64(len(signal)) / sampleRate)
	}

	report.Saturation = saturation.Detect(signal)

	if err = measure(report, signal, opts); err != nil {
		return nil, err
	}

	if opts.LineNoise {
		report.LineNoise, err = linenoise.Detect(signal, sampleRate, linenoise.DefaultOptions())
		if err != nil {
			return nil, err
		}
	}

	interpret(report, opts)

	return report, nil
}

// measure fills the windowed metrics. An empty index list is recovered into NaN sentinels.
func measure(report *ChannelReport, signal []float64, opts Options) error {
	snrResult, err := snr.Estimate(signal, report.Indices, opts.HalfWidth)
	if errors.Is(err, ErrNoSpikes) {
		report.Silent = true
		report.AverageSNR = math.NaN()
		report.AveragePeakToTrough = math.NaN()

		return nil
	}

	if err != nil {
		return err
	}

	amplitude, err := peaktrough.Measure(signal, report.Indices, opts.HalfWidth)
	if err != nil {
		return err
	}

	report.AverageSNR = snrResult.Average
	report.SNR = snrResult.Values
	report.AveragePeakToTrough = amplitude.Average
	report.PeakToTrough = amplitude.Values

	return nil
}

func applyDefaults(opts *Options) {
	defaults := DefaultOptions()
	zeroBands := Bands{}

	if opts.ThresholdFactor == 0 {
		opts.ThresholdFactor = defaults.ThresholdFactor
	}

	if opts.HalfWidth == 0 {
		opts.HalfWidth = defaults.HalfWidth
	}

	if opts.EventGap == 0 {
		opts.EventGap = defaults.EventGap
	}

	if opts.SNR == zeroBands {
		opts.SNR = defaults.SNR
	}

	if opts.LineLevel == zeroBands {
		opts.LineLevel = defaults.LineLevel
	}

	if opts.Saturation == zeroBands {
		opts.Saturation = defaults.Saturation
	}

	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
}

func validate(opts Options, sampleRate float64) error {
	if opts.HalfWidth < 0 {
		return fmt.Errorf("%w: half width must be positive, got %d", ErrData, opts.HalfWidth)
	}

	if opts.EventGap < 0 {
		return fmt.Errorf("%w: event gap must not be negative, got %d", ErrData, opts.EventGap)
	}

	if opts.LineNoise && !(sampleRate > 0) {
		return fmt.Errorf("%w: line noise detection needs a sample rate", ErrData)
	}

	return nil
}

func interpret(report *ChannelReport, opts Options) {
	var (
		severity Severity
		detected bool
	)

	if report.Silent {
		report.Summary = fmt.Sprintf("No spikes above threshold (%.3g)", report.Threshold)
	} else {
		severity, detected = opts.SNR.Match(report.AverageSNR)

		switch severity {
		case SeverityNone:
			report.Summary = fmt.Sprintf("%d spikes, well isolated (SNR %.2f)", report.SpikeCount, report.AverageSNR)
		case SeverityMild:
			report.Summary = fmt.Sprintf("%d spikes, usable (SNR %.2f)", report.SpikeCount, report.AverageSNR)
		case SeverityModerate:
			report.Summary = fmt.Sprintf("%d spikes, marginal (SNR %.2f)", report.SpikeCount, report.AverageSNR)
		case SeveritySevere:
			report.Summary = fmt.Sprintf("%d spikes, likely noise (SNR %.2f)", report.SpikeCount, report.AverageSNR)
		}
	}

	if ln := report.LineNoise; ln != nil && (ln.Has50Hz || ln.Has60Hz) {
		lineSeverity, _ := opts.LineLevel.Match(ln.LevelDb)
		if lineSeverity == SeverityNone {
			// Detected but below band thresholds: default to mild.
			lineSeverity = SeverityMild
		}

		severity = max(severity, lineSeverity)
		detected = true
		report.Summary += fmt.Sprintf(", %s line noise (%.1f dB)", lineFrequencies(ln), ln.LevelDb)
	}

	if sat := report.Saturation; sat != nil && sat.Events > 0 {
		fraction := float64(sat.SaturatedSamples) / float64(sat.Samples)

		satSeverity, _ := opts.Saturation.Match(fraction)
		if satSeverity == SeverityNone {
			satSeverity = SeverityMild
		}

		severity = max(severity, satSeverity)
		detected = true
		report.Summary += fmt.Sprintf(", %d saturated runs (%.3f%% of samples)", sat.Events, fraction*100)
	}

	report.Quality = severity
	report.Detected = detected
}

func lineFrequencies(ln *types.LineNoiseResult) string {
	switch {
	case ln.Has50Hz && ln.Has60Hz:
		return "50Hz and 60Hz"
	case ln.Has50Hz:
		return "50Hz"
	default:
		return "60Hz"
	}
}
