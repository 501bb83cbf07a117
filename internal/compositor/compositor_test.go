package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliverypicker/orderops/pkg/models"
)

// stubLoader serves solid-color images keyed by reference and fails for
// references listed in fail.
type stubLoader struct {
	colors map[string]color.NRGBA
	fail   map[string]bool
	size   int
}

func (s *stubLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if s.fail[ref] {
		return nil, fmt.Errorf("load failed: %s", ref)
	}
	c, ok := s.colors[ref]
	if !ok {
		c = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	size := s.size
	if size == 0 {
		size = tileSize
	}
	return imaging.New(size, size, c), nil
}

func testProducts(n int) []models.ProductRef {
	products := make([]models.ProductRef, n)
	for i := range products {
		products[i] = models.ProductRef{
			ID:    fmt.Sprintf("p%d", i),
			Name:  fmt.Sprintf("Product %d", i),
			Image: fmt.Sprintf("img%d", i),
			Price: "$1.00",
		}
	}
	return products
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		n, width, height int
	}{
		{0, 0, 0},
		{1, 680, 840},
		{2, 1320, 840},
		{3, 1320, 1640},
		{4, 1320, 1640},
		{5, 1320, 2440},
	}
	for _, tt := range tests {
		w, h := GridSize(tt.n)
		assert.Equal(t, tt.width, w, "width for n=%d", tt.n)
		assert.Equal(t, tt.height, h, "height for n=%d", tt.n)
	}
}

func TestTilePosition(t *testing.T) {
	x, y := tilePosition(0, 2)
	assert.Equal(t, 40, x)
	assert.Equal(t, 40, y)

	x, y = tilePosition(1, 2)
	assert.Equal(t, 680, x)
	assert.Equal(t, 40, y)

	// Second row starts below the first tile plus its text band.
	x, y = tilePosition(2, 2)
	assert.Equal(t, 40, x)
	assert.Equal(t, 840, y)
}

func TestComposeEmptySelection(t *testing.T) {
	comp, err := New(&stubLoader{})
	require.NoError(t, err)

	artifact, err := comp.Compose(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, artifact.PNG)
	assert.Zero(t, artifact.Width)
	assert.Zero(t, artifact.Height)
}

func TestComposeSingleProduct(t *testing.T) {
	comp, err := New(&stubLoader{})
	require.NoError(t, err)

	artifact, err := comp.Compose(context.Background(), testProducts(1))
	require.NoError(t, err)
	assert.Equal(t, 680, artifact.Width)
	assert.Equal(t, 840, artifact.Height)
	assert.Equal(t, 1, artifact.Loaded)
	assert.Zero(t, artifact.Failed)

	img, err := imaging.Decode(bytes.NewReader(artifact.PNG))
	require.NoError(t, err)
	assert.Equal(t, 680, img.Bounds().Dx())
	assert.Equal(t, 840, img.Bounds().Dy())
}

func TestComposeTwoProducts(t *testing.T) {
	comp, err := New(&stubLoader{})
	require.NoError(t, err)

	artifact, err := comp.Compose(context.Background(), testProducts(2))
	require.NoError(t, err)
	assert.Equal(t, 1320, artifact.Width)
	assert.Equal(t, 840, artifact.Height)
}

func TestComposeAllLoadsFailed(t *testing.T) {
	loader := &stubLoader{fail: map[string]bool{"img0": true, "img1": true}}
	comp, err := New(loader)
	require.NoError(t, err)

	_, err = comp.Compose(context.Background(), testProducts(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoImagesLoaded)
}

func TestComposePartialFailureKeepsSlotEmpty(t *testing.T) {
	loader := &stubLoader{
		colors: map[string]color.NRGBA{
			"img0": {R: 0xff, A: 0xff},
			"img2": {B: 0xff, A: 0xff},
		},
		fail: map[string]bool{"img1": true},
	}
	comp, err := New(loader)
	require.NoError(t, err)

	artifact, err := comp.Compose(context.Background(), testProducts(3))
	require.NoError(t, err)
	assert.Equal(t, 2, artifact.Loaded)
	assert.Equal(t, 1, artifact.Failed)

	img, err := imaging.Decode(bytes.NewReader(artifact.PNG))
	require.NoError(t, err)

	// Slot 0 holds the red tile, slot 1 stays white, slot 2 holds the blue
	// tile in its original position on the second row.
	assertCenterColor(t, img, 0, color.NRGBA{R: 0xff, A: 0xff})
	assertCenterColor(t, img, 1, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	assertCenterColor(t, img, 2, color.NRGBA{B: 0xff, A: 0xff})
}

func assertCenterColor(t *testing.T, img image.Image, slot int, want color.NRGBA) {
	t.Helper()
	x, y := tilePosition(slot, 2)
	got := color.NRGBAModel.Convert(img.At(x+tileSize/2, y+tileSize/2)).(color.NRGBA)
	assert.Equal(t, want, got, "tile %d center", slot)
}

func TestComposeCornersClipped(t *testing.T) {
	loader := &stubLoader{colors: map[string]color.NRGBA{"img0": {R: 0xff, A: 0xff}}}
	comp, err := New(loader)
	require.NoError(t, err)

	artifact, err := comp.Compose(context.Background(), testProducts(1))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(artifact.PNG))
	require.NoError(t, err)

	// The exact tile corner lies outside the rounded rectangle and must
	// show the white canvas.
	x, y := tilePosition(0, 1)
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, got)
}

func TestComposeDeterministic(t *testing.T) {
	loader := &stubLoader{
		colors: map[string]color.NRGBA{
			"img0": {R: 0xff, A: 0xff},
			"img1": {G: 0xff, A: 0xff},
			"img2": {B: 0xff, A: 0xff},
		},
	}
	comp, err := New(loader)
	require.NoError(t, err)

	first, err := comp.Compose(context.Background(), testProducts(3))
	require.NoError(t, err)
	second, err := comp.Compose(context.Background(), testProducts(3))
	require.NoError(t, err)

	assert.Equal(t, first.PNG, second.PNG)
}

func TestComposeValidation(t *testing.T) {
	comp, err := New(&stubLoader{})
	require.NoError(t, err)

	_, err = comp.Compose(context.Background(), []models.ProductRef{
		{ID: "x", Name: "   ", Image: "img0"},
	})
	assert.Error(t, err)

	_, err = comp.Compose(context.Background(), []models.ProductRef{
		{ID: "x", Name: "Fine", Image: "img0", Quantity: -2},
	})
	assert.Error(t, err)
}

func TestComposeProgressCallback(t *testing.T) {
	loader := &stubLoader{fail: map[string]bool{"img1": true}}
	comp, err := New(loader)
	require.NoError(t, err)

	var mu sync.Mutex
	settled := make(map[int]bool)
	failures := 0
	comp.Progress = func(index int, err error) {
		mu.Lock()
		defer mu.Unlock()
		settled[index] = true
		if err != nil {
			failures++
		}
	}

	_, err = comp.Compose(context.Background(), testProducts(3))
	require.NoError(t, err)

	assert.Len(t, settled, 3)
	assert.Equal(t, 1, failures)
}

func TestInsideRoundedRect(t *testing.T) {
	// Center and edge midpoints are inside, exact corners are out.
	assert.True(t, insideRoundedRect(300, 300, 600, 600, 16))
	assert.True(t, insideRoundedRect(300, 0, 600, 600, 16))
	assert.True(t, insideRoundedRect(0, 300, 600, 600, 16))
	assert.False(t, insideRoundedRect(0, 0, 600, 600, 16))
	assert.False(t, insideRoundedRect(599, 599, 600, 600, 16))
	assert.False(t, insideRoundedRect(-1, 300, 600, 600, 16))
	assert.False(t, insideRoundedRect(600, 300, 600, 600, 16))
}
