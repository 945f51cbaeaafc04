package placement_test

import (
	"contract-signing/internal/placement"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestMapStamp(t *testing.T) {
	vp := placement.Viewport{Scale: 1.25, PageHeightPixels: 990}

	rect, err := vp.MapStamp(120, 300, 170, 70)
	require.NoError(t, err)

	assert.InDelta(t, 96.0, rect.X, eps)
	assert.InDelta(t, (990.0-300-70)/1.25, rect.Y, eps)
	assert.InDelta(t, 136.0, rect.Width, eps)
	assert.InDelta(t, 56.0, rect.Height, eps)
}

func TestMapStampFlipRoundTrip(t *testing.T) {
	cases := []struct {
		scale, pageHeight, clickX, clickY, stampW, stampH float64
	}{
		{1, 792, 0, 0, 170, 70},
		{1.5, 1188, 10, 1000, 170, 70},
		{2, 1584, 333.3, 12.5, 40, 40},
		{0.75, 594, 50, 594, 1, 1},
	}

	for _, c := range cases {
		vp := placement.Viewport{Scale: c.scale, PageHeightPixels: c.pageHeight}
		rect, err := vp.MapStamp(c.clickX, c.clickY, c.stampW, c.stampH)
		require.NoError(t, err)

		assert.InDelta(t, (c.pageHeight-c.clickY)/c.scale, rect.Top(), eps)
	}
}

func TestMapStampScalesInversely(t *testing.T) {
	base := placement.Viewport{Scale: 1, PageHeightPixels: 792}
	want, err := base.MapStamp(100, 200, 170, 70)
	require.NoError(t, err)

	for _, k := range []float64{0.5, 1.25, 2, 3} {
		// rendering at k times the scale multiplies every pixel measure by k
		vp := placement.Viewport{Scale: k, PageHeightPixels: 792 * k}
		got, err := vp.MapStamp(100*k, 200*k, 170*k, 70*k)
		require.NoError(t, err)

		assert.InDelta(t, want.X, got.X, 1e-6)
		assert.InDelta(t, want.Y, got.Y, 1e-6)
		assert.InDelta(t, want.Width, got.Width, 1e-6)
		assert.InDelta(t, want.Height, got.Height, 1e-6)

		// at a fixed pick, raising the scale by k shrinks the result by 1/k
		fixed := placement.Viewport{Scale: k, PageHeightPixels: 792}
		shrunk, err := fixed.MapStamp(100, 200, 170, 70)
		require.NoError(t, err)
		assert.InDelta(t, want.X/k, shrunk.X, 1e-6)
		assert.InDelta(t, want.Y/k, shrunk.Y, 1e-6)
		assert.InDelta(t, want.Width/k, shrunk.Width, 1e-6)
		assert.InDelta(t, want.Height/k, shrunk.Height, 1e-6)
	}
}

func TestMapBox(t *testing.T) {
	vp := placement.Viewport{Scale: 1.5, PageHeightPixels: 1188}

	rect, err := vp.MapBox(30, 100, 150, 60)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, rect.X, eps)
	assert.InDelta(t, (1188.0-100-60)/1.5, rect.Y, eps)
	assert.InDelta(t, 100.0, rect.Width, eps)
	assert.InDelta(t, 40.0, rect.Height, eps)
}

func TestInvalidScale(t *testing.T) {
	for _, scale := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		vp := placement.Viewport{Scale: scale, PageHeightPixels: 792}

		_, err := vp.MapStamp(1, 1, 1, 1)
		assert.ErrorIs(t, err, placement.ErrInvalidScale)

		_, err = vp.MapBox(1, 1, 1, 1)
		assert.ErrorIs(t, err, placement.ErrInvalidScale)
	}
}

func TestOutOfCanvasIsNotClamped(t *testing.T) {
	vp := placement.Viewport{Scale: 1, PageHeightPixels: 100}

	rect, err := vp.MapStamp(-20, 150, 10, 10)
	require.NoError(t, err)
	assert.InDelta(t, -20.0, rect.X, eps)
	assert.InDelta(t, -60.0, rect.Y, eps)
}
