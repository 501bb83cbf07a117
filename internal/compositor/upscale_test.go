package compositor

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func TestNeedsUpscaling(t *testing.T) {
	// The threshold is 75% of the target side, 450px for a 600px tile.
	assert.False(t, needsUpscaling(imaging.New(600, 600, color.White), tileSize))
	assert.False(t, needsUpscaling(imaging.New(450, 450, color.White), tileSize))
	assert.True(t, needsUpscaling(imaging.New(449, 600, color.White), tileSize))
	assert.True(t, needsUpscaling(imaging.New(600, 100, color.White), tileSize))
	assert.True(t, needsUpscaling(imaging.New(64, 64, color.White), tileSize))
}

func TestUpscaleDoublesVerySmallSources(t *testing.T) {
	out := upscale(imaging.New(100, 100, color.White), tileSize)
	b := out.Bounds()
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 200, b.Dy())
}

func TestUpscaleCapsIntermediateStepAtTarget(t *testing.T) {
	// 2x of 400 would overshoot 600, so that side is clamped to the target.
	out := upscale(imaging.New(400, 250, color.White), tileSize)
	b := out.Bounds()
	assert.Equal(t, 600, b.Dx())
	assert.Equal(t, 500, b.Dy())
}

func TestUpscaleLeavesMidSizeSourcesAlone(t *testing.T) {
	// Above half the target in both dimensions: the final fill handles it.
	out := upscale(imaging.New(350, 350, color.White), tileSize)
	b := out.Bounds()
	assert.Equal(t, 350, b.Dx())
	assert.Equal(t, 350, b.Dy())
}

func TestPrepareTileAlwaysSquare(t *testing.T) {
	for _, dims := range [][2]int{{600, 600}, {64, 64}, {1200, 800}, {300, 900}} {
		tile := prepareTile(imaging.New(dims[0], dims[1], color.White))
		assert.Equal(t, tileSize, tile.Bounds().Dx(), "source %v", dims)
		assert.Equal(t, tileSize, tile.Bounds().Dy(), "source %v", dims)
	}
}
