package calib

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/localnav/internal/geom"
)

func gridPixels(w, h int) []Pixel {
	px := make([]Pixel, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			px[j*w+i] = Pixel{X: float64(h - j), Y: float64(w/2 - i), Valid: true}
		}
	}
	return px
}

func TestNewRejectsMalformed(t *testing.T) {
	t.Parallel()

	base := Params{
		Width:              4,
		Height:             3,
		Envelope:           image.Rect(0, 0, 4, 3),
		MaxSensedDistance:  100,
		MaxClusterDistance: 100,
	}

	missing := gridPixels(4, 3)
	missing[1*4+2].Valid = false

	tests := []struct {
		name   string
		mutate func(p *Params)
		pixels []Pixel
	}{
		{"zero width", func(p *Params) { p.Width = 0 }, gridPixels(4, 3)},
		{"pixel count mismatch", func(p *Params) {}, gridPixels(3, 3)},
		{"zero sensed distance", func(p *Params) { p.MaxSensedDistance = 0 }, gridPixels(4, 3)},
		{"NaN cluster distance", func(p *Params) { p.MaxClusterDistance = math.NaN() }, gridPixels(4, 3)},
		{"envelope outside image", func(p *Params) { p.Envelope = image.Rect(0, 0, 5, 3) }, gridPixels(4, 3)},
		{"empty envelope", func(p *Params) { p.Envelope = image.Rectangle{} }, gridPixels(4, 3)},
		{"missing pixel inside envelope", func(p *Params) {}, missing},
		{"nothing within range", func(p *Params) { p.MaxSensedDistance = 0.5 }, gridPixels(4, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := New(p, tt.pixels)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedCalibration)
		})
	}
}

func TestNewAllowsMissingPixelOutsideEnvelope(t *testing.T) {
	t.Parallel()

	px := gridPixels(4, 3)
	px[0].Valid = false // (0,0) lies outside the envelope below

	c, err := New(Params{
		Width:              4,
		Height:             3,
		Envelope:           image.Rect(1, 0, 4, 3),
		MaxSensedDistance:  math.Inf(1),
		MaxClusterDistance: math.Inf(1),
	}, px)
	require.NoError(t, err)
	assert.False(t, c.At(0, 0).Valid)
	assert.True(t, c.At(1, 0).Valid)
	assert.False(t, c.At(-1, 0).Valid)
	assert.False(t, c.At(4, 0).Valid)
}

func TestSyntheticLayout(t *testing.T) {
	t.Parallel()

	p := DefaultSynthetic()
	c, err := Synthetic(p)
	require.NoError(t, err)

	assert.Equal(t, 81, c.Width())
	assert.Equal(t, 61, c.Height())
	assert.Equal(t, p.HoldWidth*p.HoldHeight, c.HoldPixelCount())

	// Bottom centre is the nearest point straight ahead and lies in the hold region.
	bc := c.At(40, 60)
	assert.Equal(t, geom.Point{X: 2, Y: 0}, bc.Point())
	assert.True(t, bc.HoldRegion)
	assert.False(t, bc.GripperBody)

	// Columns flanking the hold region are gripper body.
	assert.True(t, c.At(37, 60).GripperBody)
	assert.True(t, c.At(43, 60).GripperBody)
	assert.False(t, c.At(34, 60).GripperBody)

	// Left of the image is +Y.
	assert.Equal(t, geom.Point{X: 62, Y: 40}, c.At(0, 0).Point())

	i, j, ok := p.PixelFor(20, 0)
	require.True(t, ok)
	assert.Equal(t, geom.Point{X: 20, Y: 0}, c.At(i, j).Point())
	_, _, ok = p.PixelFor(-5, 0)
	assert.False(t, ok)
}

func TestExtentsRespectMaxSensedDistance(t *testing.T) {
	t.Parallel()

	c, err := Synthetic(DefaultSynthetic())
	require.NoError(t, err)

	ext := c.Extents()
	assert.Equal(t, 2.0, ext.MinX)
	assert.Equal(t, 62.0, ext.MaxX)
	assert.Equal(t, 40.0, ext.MaxY)
	assert.Equal(t, -40.0, ext.MinY)

	// Far corners lie beyond 65 and are excluded.
	assert.False(t, c.WithinSensed(c.At(0, 0)))
	assert.True(t, c.WithinSensed(c.At(40, 0)))
	assert.True(t, c.WithinClusterRange(geom.Point{X: 65}))
	assert.False(t, c.WithinClusterRange(geom.Point{X: 65.1}))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	sp := DefaultSynthetic()
	sp.Width, sp.Height = 21, 15
	want, err := Synthetic(sp)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Save(dir, want))

	got, err := Load(dir, Params{
		Width:              sp.Width,
		Height:             sp.Height,
		Envelope:           image.Rect(0, 0, sp.Width, sp.Height),
		MaxSensedDistance:  sp.MaxSensedDistance,
		MaxClusterDistance: sp.MaxClusterDistance,
	})
	require.NoError(t, err)

	if diff := cmp.Diff(want.pixels, got.pixels); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.HoldPixelCount(), got.HoldPixelCount())
}

func TestLoadSkipsCommentsAndDetectsGaps(t *testing.T) {
	t.Parallel()

	sp := DefaultSynthetic()
	sp.Width, sp.Height = 3, 2
	sp.HoldWidth, sp.HoldHeight, sp.BodyWidth = 1, 1, 0
	c, err := Synthetic(sp)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Save(dir, c))

	csvText := "px,py,x,y\n# generated by hand\n0,0,3,1\n1,0,3,0\n2,0,3,-1\n0,1,2,1\n1,1,2,0\n"
	require.NoError(t, os.WriteFile(CSVPath(dir, 3, 2), []byte(csvText), 0o644))

	params := Params{
		Width:              3,
		Height:             2,
		Envelope:           image.Rect(0, 0, 3, 2),
		MaxSensedDistance:  10,
		MaxClusterDistance: 10,
	}
	_, err = Load(dir, params)
	require.ErrorIs(t, err, ErrMalformedCalibration, "pixel (2,1) is missing")

	params.Envelope = image.Rect(0, 0, 3, 1)
	got, err := Load(dir, params)
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 3, Y: -1}, got.At(2, 0).Point())
	assert.True(t, got.At(1, 1).HoldRegion)
	assert.Equal(t, 1, got.HoldPixelCount())
}

func TestLoadMissingFiles(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope"), Params{Width: 2, Height: 2})
	assert.Error(t, err)
}
