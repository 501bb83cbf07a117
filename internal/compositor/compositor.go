package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"

	"github.com/deliverypicker/orderops/internal/images"
	"github.com/deliverypicker/orderops/pkg/models"
)

// Layout constants. The canvas size is a pure function of the item count:
// no text measurement, no reflow.
const (
	tileSize     = 600
	padding      = 40
	textBand     = 160
	cornerRadius = 16
	borderWidth  = 2
)

var (
	borderColor  = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	captionColor = color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	priceColor   = color.NRGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}
)

// ErrNoImagesLoaded is returned when every tile load attempt failed.
// Partial failures do not abort a composition.
var ErrNoImagesLoaded = errors.New("no images could be loaded")

// Compositor lays out product tiles on a fixed grid and renders a shareable
// order image. One Compositor may serve many Compose calls; each call owns
// its canvas exclusively.
type Compositor struct {
	loader    images.Loader
	nameFace  font.Face
	priceFace font.Face

	// Progress, if set, is invoked once per tile as its load attempt
	// settles. Called from loader goroutines.
	Progress func(index int, err error)

	maskOnce   sync.Once
	tileMask   *image.Alpha
	borderMask *image.Alpha
}

// New creates a Compositor drawing captions with the embedded Go fonts.
func New(loader images.Loader) (*Compositor, error) {
	nameFace, err := newBoldFace(48)
	if err != nil {
		return nil, fmt.Errorf("failed to load caption font: %w", err)
	}
	priceFace, err := newRegularFace(36)
	if err != nil {
		return nil, fmt.Errorf("failed to load price font: %w", err)
	}

	return &Compositor{
		loader:    loader,
		nameFace:  nameFace,
		priceFace: priceFace,
	}, nil
}

// GridSize returns the canvas dimensions for n tiles.
func GridSize(n int) (width, height int) {
	if n <= 0 {
		return 0, 0
	}
	perRow := itemsPerRow(n)
	rows := (n + perRow - 1) / perRow
	width = perRow*tileSize + (perRow+1)*padding
	height = rows*(tileSize+textBand) + (rows+1)*padding
	return width, height
}

func itemsPerRow(n int) int {
	if n < 2 {
		return n
	}
	return 2
}

// tilePosition returns the top-left corner for tile index i (0-based).
// Position depends only on the index and the row width, never on which
// other tiles loaded.
func tilePosition(i, perRow int) (x, y int) {
	row := i / perRow
	col := i % perRow
	x = col*tileSize + (col+1)*padding
	y = row*(tileSize+textBand) + (row+1)*padding
	return x, y
}

// Compose renders the selected products into a PNG artifact.
//
// All tile loads start concurrently and the canvas is drawn once every
// attempt has settled. Tiles that fail both load tiers keep their slot
// empty (the grid is not compacted), so the same failure set always yields
// the same layout. An empty selection is a no-op returning an empty
// artifact; a selection where nothing loaded returns ErrNoImagesLoaded.
func (c *Compositor) Compose(ctx context.Context, products []models.ProductRef) (*models.Artifact, error) {
	if len(products) == 0 {
		return &models.Artifact{}, nil
	}

	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %d (%s): name must not be empty", i, p.ID)
		}
		if p.Quantity < 0 {
			return nil, fmt.Errorf("product %d (%s): quantity must not be negative", i, p.ID)
		}
	}

	n := len(products)
	loaded := make([]image.Image, n)
	loadErrs := make([]error, n)

	var wg sync.WaitGroup
	for i := range products {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			img, err := c.loader.Load(ctx, ref)
			loaded[i], loadErrs[i] = img, err
			if c.Progress != nil {
				c.Progress(i, err)
			}
		}(i, products[i].Image)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range loadErrs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w (%d attempted)", ErrNoImagesLoaded, n)
	}

	width, height := GridSize(n)
	canvas := imaging.New(width, height, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	perRow := itemsPerRow(n)
	for i := range products {
		if loadErrs[i] != nil {
			continue
		}
		x, y := tilePosition(i, perRow)
		c.drawTile(canvas, prepareTile(loaded[i]), x, y)
		c.drawCaption(canvas, products[i], x, y)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode order image: %w", err)
	}

	return &models.Artifact{
		PNG:    buf.Bytes(),
		Width:  width,
		Height: height,
		Loaded: succeeded,
		Failed: n - succeeded,
	}, nil
}

// drawTile blits a prepared square tile through the rounded-corner mask and
// strokes the border over the same rounded rectangle.
func (c *Compositor) drawTile(canvas *image.NRGBA, tile *image.NRGBA, x, y int) {
	c.maskOnce.Do(func() {
		c.tileMask = roundedRectMask(tileSize, tileSize, cornerRadius)
		c.borderMask = roundedBorderMask(tileSize, tileSize, cornerRadius, borderWidth)
	})

	rect := image.Rect(x, y, x+tileSize, y+tileSize)
	draw.DrawMask(canvas, rect, tile, image.Point{}, c.tileMask, image.Point{}, draw.Over)
	draw.DrawMask(canvas, rect, image.NewUniform(borderColor), image.Point{}, c.borderMask, image.Point{}, draw.Over)
}

// roundedRectMask builds an alpha mask covering a w×h rounded rectangle.
func roundedRectMask(w, h, radius int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideRoundedRect(x, y, w, h, radius) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

// roundedBorderMask covers the ring between the rounded rectangle and the
// same shape inset by the stroke width.
func roundedBorderMask(w, h, radius, stroke int) *image.Alpha {
	innerRadius := radius - stroke
	if innerRadius < 0 {
		innerRadius = 0
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !insideRoundedRect(x, y, w, h, radius) {
				continue
			}
			if insideRoundedRect(x-stroke, y-stroke, w-2*stroke, h-2*stroke, innerRadius) {
				continue
			}
			mask.SetAlpha(x, y, color.Alpha{A: 0xff})
		}
	}
	return mask
}

func insideRoundedRect(x, y, w, h, radius int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	cx, cy := -1, -1
	if x < radius {
		cx = radius
	} else if x >= w-radius {
		cx = w - radius - 1
	}
	if y < radius {
		cy = radius
	} else if y >= h-radius {
		cy = h - radius - 1
	}
	if cx < 0 || cy < 0 {
		// Not in a corner region.
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}
