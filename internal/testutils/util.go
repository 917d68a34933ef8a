// Package testutils provides test infrastructure for neurite integration tests.
package testutils

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/neurite/internal/integration/edf"
	"github.com/farcloser/neurite/internal/synth"
)

// BinaryPath returns the location of the built neurite binary.
func BinaryPath(name string) string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))

	return filepath.Join(projectRoot, "bin", name)
}

// Setup creates a test case configured to run the named binary, skipping the test when it has not been built.
func Setup(t *testing.T, name string) *test.Case {
	t.Helper()

	binaryPath := BinaryPath(name)
	if _, err := os.Stat(binaryPath); err != nil {
		t.Skipf("%s not built: %v", binaryPath, err)
	}

	return agar.Setup(binaryPath)
}

// Fixture is the default synthetic recording: three channels at 10kHz for two seconds,
// thirty spikes on channels 0 and 1, channel 2 flat.
func Fixture() synth.Options {
	return synth.Options{
		Channels:   3,
		Samples:    20000,
		SampleRate: 10000,
		Seed:       42,
		Waveform:   synth.DefaultWaveform,
		Count:      30,
		Flat:       []int{2},
	}
}

// WriteEDF generates a recording and saves it as EDF under dir.
func WriteEDF(t *testing.T, dir, name string, opts synth.Options) (string, *synth.Result) {
	t.Helper()

	result, err := synth.Generate(opts)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, edf.SaveFile(path, result.Recording, edf.Meta{RecordingID: name}))

	return path, result
}

// WriteRawS16 generates a recording and saves it as interleaved little endian int16,
// one raw count per 0.01 units.
func WriteRawS16(t *testing.T, dir, name string, opts synth.Options) (string, *synth.Result) {
	t.Helper()

	result, err := synth.Generate(opts)
	require.NoError(t, err)

	rec := result.Recording
	data := make([]byte, 0, rec.Length()*rec.Channels()*2)

	for i := range rec.Length() {
		for ch := range rec.Channels() {
			data = binary.LittleEndian.AppendUint16(data, uint16(int16(rec.Samples.At(i, ch)*100))) //nolint:gosec // bounded fixture values
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path, result
}
