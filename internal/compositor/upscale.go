package compositor

import (
	"image"

	"github.com/disintegration/imaging"
)

// sharpenContrast is the mild contrast bump applied after upscaling, a cheap
// unsharp-mask approximation for low-resolution thumbnails.
const sharpenContrast = 10

// needsUpscaling reports whether the native resolution is below 75% of the
// target tile side in either dimension.
func needsUpscaling(img image.Image, target int) bool {
	limit := target * 3 / 4
	b := img.Bounds()
	return b.Dx() < limit || b.Dy() < limit
}

// upscale grows a small image toward the tile size. Very small sources go
// through an intermediate 2x step (capped at the target) before the final
// resize, which keeps edges noticeably less blurry than a single jump.
func upscale(img image.Image, target int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w < target/2 || h < target/2 {
		stepW := w * 2
		if stepW > target {
			stepW = target
		}
		stepH := h * 2
		if stepH > target {
			stepH = target
		}
		img = imaging.Resize(img, stepW, stepH, imaging.Lanczos)
	}
	return img
}

// prepareTile produces the final 600x600 tile image: upscaled if the source
// is low-resolution, then center-cropped to fill the square (aspect-fill
// crops rather than letterboxes). Upscaled tiles get the sharpening pass.
func prepareTile(img image.Image) *image.NRGBA {
	upscaled := needsUpscaling(img, tileSize)
	if upscaled {
		img = upscale(img, tileSize)
	}

	tile := imaging.Fill(img, tileSize, tileSize, imaging.Center, imaging.Lanczos)
	if upscaled {
		tile = imaging.AdjustContrast(tile, sharpenContrast)
	}
	return tile
}
