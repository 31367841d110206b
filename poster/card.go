package poster

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const (
	imageMaxHeight = 400
	imageGapTop    = 30
	imageGapBottom = 40
	cardPadding    = 10
	cardRadius     = 12
)

var cardShadow = shadow{color: withAlpha(black, 0.1), blur: 8, dy: 4}

// fitWithin shrinks w×h to fit maxW×maxH, preserving aspect ratio. Width is
// constrained first, then height. Images that already fit are not enlarged.
func fitWithin(w, h, maxW, maxH float64) (float64, float64) {
	if w > maxW {
		h *= maxW / w
		w = maxW
	}
	if h > maxH {
		w *= maxH / h
		h = maxH
	}
	return w, h
}

// drawImageCard places img horizontally centred at the cursor on a white
// rounded card with a soft shadow and advances the cursor past it.
func (c *canvas) drawImageCard(img image.Image, maxWidth float64, card HexColor) {
	b := img.Bounds()
	w, h := fitWithin(float64(b.Dx()), float64(b.Dy()), maxWidth, imageMaxHeight)
	iw, ih := max(1, int(math.Round(w))), max(1, int(math.Round(h)))

	canvasW := float64(c.img.Bounds().Dx())
	x := (canvasW - w) / 2
	c.y += imageGapTop

	ix, iy := int(math.Round(x)), int(math.Round(c.y))
	cw, ch := iw+2*cardPadding, ih+2*cardPadding
	pad := cardShadow.margin() * 2
	mask := roundedRectMask(cw, ch, cardRadius, pad)
	at := image.Pt(ix-cardPadding-pad, iy-cardPadding-pad)
	drawShadow(c.img, mask, at, cardShadow)
	drawMask(c.img, mask, at, card.NRGBA())

	scaled := img
	if iw != b.Dx() || ih != b.Dy() {
		scaled = imaging.Resize(img, iw, ih, imaging.Lanczos)
	}
	draw.Draw(c.img, image.Rect(ix, iy, ix+iw, iy+ih), scaled, scaled.Bounds().Min, draw.Over)

	c.y += h + imageGapBottom
}
