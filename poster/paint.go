package poster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// blendPixel composites c over the pixel at (x, y), scaled by coverage.
func blendPixel(dst *image.RGBA, x, y int, c color.NRGBA, coverage float64) {
	if !image.Pt(x, y).In(dst.Rect) || coverage <= 0 {
		return
	}
	a := float64(c.A) / 255 * math.Min(coverage, 1)
	ia := 1 - a
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	p[0] = uint8(float64(c.R)*a + float64(p[0])*ia + 0.5)
	p[1] = uint8(float64(c.G)*a + float64(p[1])*ia + 0.5)
	p[2] = uint8(float64(c.B)*a + float64(p[2])*ia + 0.5)
	p[3] = uint8(255*a + float64(p[3])*ia + 0.5)
}

// drawMask paints c through mask, placing the mask's origin at at. Only the
// mask's alpha channel is used.
func drawMask(dst *image.RGBA, mask image.Image, at image.Point, c color.NRGBA) {
	r := mask.Bounds().Sub(mask.Bounds().Min).Add(at)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// shadow is a blurred, offset copy of a shape painted beneath it. blur is
// the spread in pixels, twice the Gaussian sigma.
type shadow struct {
	color color.NRGBA
	blur  int
	dy    int
}

func (s shadow) margin() int {
	return s.blur + abs(s.dy) + 1
}

// drawShadow paints s for mask placed at at.
func drawShadow(dst *image.RGBA, mask *image.Alpha, at image.Point, s shadow) {
	if s.color.A == 0 {
		return
	}
	var blurred image.Image = mask
	if s.blur > 0 {
		blurred = imaging.Blur(mask, float64(s.blur)/2)
	}
	drawMask(dst, blurred, at.Add(image.Pt(0, s.dy)), s.color)
}

// dilate grows the mask by radius pixels in every direction, which is how
// the halo around glyphs is approximated.
func dilate(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewAlpha(b)
	out := image.NewAlpha(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var m uint8
			for k := -radius; k <= radius; k++ {
				if xx := x + k; xx >= 0 && xx < w {
					m = max(m, src.Pix[y*src.Stride+xx])
				}
			}
			tmp.Pix[y*tmp.Stride+x] = m
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var m uint8
			for k := -radius; k <= radius; k++ {
				if yy := y + k; yy >= 0 && yy < h {
					m = max(m, tmp.Pix[yy*tmp.Stride+x])
				}
			}
			out.Pix[y*out.Stride+x] = m
		}
	}
	return out
}

// arcKappa places cubic control points so each corner approximates a
// quarter circle.
const arcKappa = 0.5522847

// roundedRectMask returns a w×h mask of a rounded rectangle inset by pad on
// every side, with anti-aliased corners.
func roundedRectMask(w, h, radius, pad int) *image.Alpha {
	b := image.Rect(0, 0, w+2*pad, h+2*pad)
	mask := image.NewAlpha(b)
	radius = max(0, min(radius, w/2, h/2))

	x0, y0 := float32(pad), float32(pad)
	x1, y1 := x0+float32(w), y0+float32(h)
	r := float32(radius)
	k := r * (1 - arcKappa)

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(x0+r, y0)
	z.LineTo(x1-r, y0)
	z.CubeTo(x1-k, y0, x1, y0+k, x1, y0+r)
	z.LineTo(x1, y1-r)
	z.CubeTo(x1, y1-k, x1-k, y1, x1-r, y1)
	z.LineTo(x0+r, y1)
	z.CubeTo(x0+k, y1, x0, y1-k, x0, y1-r)
	z.LineTo(x0, y0+r)
	z.CubeTo(x0, y0+k, x0+k, y0, x0+r, y0)
	z.ClosePath()
	z.Draw(mask, b, image.Opaque, image.Point{})
	return mask
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	it := 1 - t
	return color.NRGBA{
		R: uint8(float64(a.R)*it + float64(b.R)*t + 0.5),
		G: uint8(float64(a.G)*it + float64(b.G)*t + 0.5),
		B: uint8(float64(a.B)*it + float64(b.B)*t + 0.5),
		A: uint8(float64(a.A)*it + float64(b.A)*t + 0.5),
	}
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(a * 255))
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
