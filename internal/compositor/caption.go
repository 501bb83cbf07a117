package compositor

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/deliverypicker/orderops/pkg/models"
)

// Caption baselines within the 160px text band below each tile.
const (
	nameBaseline  = 72
	priceBaseline = 128
)

func newBoldFace(size float64) (font.Face, error) {
	return newFace(gobold.TTF, size)
}

func newRegularFace(size float64) (font.Face, error) {
	return newFace(goregular.TTF, size)
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// captionText builds the first caption line: the name, optionally suffixed
// with the SKU in parentheses and the quantity multiplier.
func captionText(p models.ProductRef) string {
	text := p.Name
	if p.SKU != "" {
		text += fmt.Sprintf(" (%s)", p.SKU)
	}
	if p.Quantity > 0 {
		text += fmt.Sprintf(" x%d", p.Quantity)
	}
	return text
}

// drawCaption renders the text block below the tile at (x, y). Captions are
// centered and clipped to the tile width, never wrapped.
func (c *Compositor) drawCaption(canvas *image.NRGBA, p models.ProductRef, x, y int) {
	centerX := x + tileSize/2

	drawCenteredString(canvas, c.nameFace, captionText(p), centerX, y+tileSize+nameBaseline, captionColor)
	if p.Price != "" {
		drawCenteredString(canvas, c.priceFace, p.Price, centerX, y+tileSize+priceBaseline, priceColor)
	}
}

func drawCenteredString(canvas *image.NRGBA, face font.Face, text string, centerX, baselineY int, col color.Color) {
	text = clipToWidth(face, text, tileSize)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(centerX) - width/2,
		Y: fixed.I(baselineY),
	}
	d.DrawString(text)
}

// clipToWidth trims the string until it fits maxWidth, marking the cut with
// an ellipsis.
func clipToWidth(face font.Face, s string, maxWidth int) string {
	if font.MeasureString(face, s) <= fixed.I(maxWidth) {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		clipped := string(runes) + "…"
		if font.MeasureString(face, clipped) <= fixed.I(maxWidth) {
			return clipped
		}
	}
	return "…"
}
