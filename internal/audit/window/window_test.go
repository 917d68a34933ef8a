package window_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/neurite/internal/audit/window"
	"github.com/farcloser/neurite/internal/types"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		n         int
		center    int
		halfWidth int
		want      types.Window
	}{
		{name: "first sample", n: 200, center: 0, halfWidth: 50, want: types.Window{Start: 0, End: 50}},
		// center-halfWidth is 149; the prose example of [150,200) drops one sample the formula keeps.
		{name: "last sample", n: 200, center: 199, halfWidth: 50, want: types.Window{Start: 149, End: 200}},
		{name: "interior", n: 200, center: 100, halfWidth: 50, want: types.Window{Start: 50, End: 150}},
		{name: "wider than signal", n: 10, center: 5, halfWidth: 50, want: types.Window{Start: 0, End: 10}},
		{name: "center past end", n: 10, center: 80, halfWidth: 5, want: types.Window{Start: 10, End: 10}},
		{name: "center before start", n: 10, center: -20, halfWidth: 5, want: types.Window{Start: 0, End: 0}},
		{name: "maximal width", n: 200, center: 199, halfWidth: math.MaxInt, want: types.Window{Start: 0, End: 200}},
		{name: "maximal width at start", n: 200, center: 0, halfWidth: math.MaxInt, want: types.Window{Start: 0, End: 200}},
		{name: "maximal width before start", n: 10, center: -20, halfWidth: math.MaxInt, want: types.Window{Start: 0, End: 10}},
		{name: "maximal center", n: 10, center: math.MaxInt, halfWidth: 5, want: types.Window{Start: 10, End: 10}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, window.Extract(tc.n, tc.center, tc.halfWidth))
		})
	}
}

func TestExtractStaysInBounds(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 7, 100, 200} {
		for _, halfWidth := range []int{1, 3, 50, 500} {
			for center := range n {
				win := window.Extract(n, center, halfWidth)

				assert.GreaterOrEqual(t, win.Start, 0)
				assert.LessOrEqual(t, win.End, n)
				assert.LessOrEqual(t, win.Start, win.End)
				assert.Positive(t, win.Len(), "n=%d center=%d halfWidth=%d", n, center, halfWidth)
			}
		}
	}
}

func TestSegment(t *testing.T) {
	t.Parallel()

	signal := make([]float64, 200)
	for i := range signal {
		signal[i] = float64(i)
	}

	win, segment := window.Segment(signal, 199, 50)
	assert.Equal(t, types.Window{Start: 149, End: 200}, win)
	assert.Len(t, segment, 51)
	assert.InDelta(t, 149.0, segment[0], 0)
	assert.InDelta(t, 199.0, segment[len(segment)-1], 0)
}
