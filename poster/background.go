package poster

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const grainDots = 800

// paintPhoto cover-fits img onto dst: scaled by max(W/w, H/h), centred, with
// the overflow cropped.
func paintPhoto(dst *image.RGBA, img image.Image) {
	b := dst.Bounds()
	filled := imaging.Fill(img, b.Dx(), b.Dy(), imaging.Center, imaging.Lanczos)
	draw.Draw(dst, b, filled, filled.Bounds().Min, draw.Src)
}

// paintGradient paints the procedural cream backdrop: a three-stop diagonal
// gradient, two soft radial highlights and a scatter of paper grain.
func paintGradient(dst *image.RGBA, p Palette) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	start, mid, end := p.BackgroundStart.NRGBA(), p.BackgroundMid.NRGBA(), p.BackgroundEnd.NRGBA()

	// Projection onto the (0,0)-(w,h) diagonal.
	norm := w*w + h*h
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			t := (float64(x-b.Min.X)*w + float64(y-b.Min.Y)*h) / norm
			var c color.NRGBA
			if t < 0.45 {
				c = lerpColor(start, mid, t/0.45)
			} else {
				c = lerpColor(mid, end, (t-0.45)/0.55)
			}
			dst.Pix[off] = c.R
			dst.Pix[off+1] = c.G
			dst.Pix[off+2] = c.B
			dst.Pix[off+3] = 0xff
			off += 4
		}
	}

	paintRadial(dst, w*0.15, h*0.18, w*0.7, p.HighlightLeft.NRGBA())
	paintRadial(dst, w*0.82, h*0.12, w*0.45, p.HighlightRight.NRGBA())

	grain := p.Grain.NRGBA()
	for i := 0; i < grainDots; i++ {
		x := rand.Float64() * w
		y := rand.Float64() * h
		size := rand.Float64() * 1.5
		paintDot(dst, b.Min.X+int(x), b.Min.Y+int(y), size, grain)
	}
}

// paintRadial overlays a radial gradient from c at the centre to transparent
// at radius.
func paintRadial(dst *image.RGBA, cx, cy, radius float64, c color.NRGBA) {
	b := dst.Bounds()
	area := image.Rect(
		int(math.Floor(cx-radius)), int(math.Floor(cy-radius)),
		int(math.Ceil(cx+radius)), int(math.Ceil(cy+radius)),
	).Add(b.Min).Intersect(b)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := float64(y-b.Min.Y) + 0.5 - cy
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := float64(x-b.Min.X) + 0.5 - cx
			d := math.Hypot(dx, dy) / radius
			if d >= 1 {
				continue
			}
			blendPixel(dst, x, y, c, 1-d)
		}
	}
}

// paintDot spreads a size×size dot over the pixels it touches. Dots smaller
// than a pixel become a faint single pixel.
func paintDot(dst *image.RGBA, x, y int, size float64, c color.NRGBA) {
	if size <= 0 {
		return
	}
	n := int(math.Ceil(size))
	cov := size * size / float64(n*n)
	for dy := 0; dy < n; dy++ {
		for dx := 0; dx < n; dx++ {
			blendPixel(dst, x+dx, y+dy, c, cov)
		}
	}
}
