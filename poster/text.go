package poster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// halo is the light outline stroked around glyphs over a photo background.
type halo struct {
	color color.NRGBA
	width int
}

// textStyle describes how one kind of text block is set.
type textStyle struct {
	family     Family
	weight     Weight
	size       float64
	lineHeight float64
	color      color.NRGBA

	// halo and shadow apply only with the legibility treatment.
	halo   halo
	shadow shadow
	// ambient is a faint shadow used without the treatment, if set.
	ambient *shadow
}

var (
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.NRGBA{A: 0xff}
)

// drawLine draws one line of text with its top edge at y. With legible set
// the glyphs are haloed and drop-shadowed before the fill; the treatment is
// built from scratch per call and never carries over to the next line.
func drawLine(dst *image.RGBA, face font.Face, text string, x, y float64, st textStyle, legible bool) {
	if text == "" {
		return
	}
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	width := int(math.Ceil(fixedToFloat(font.MeasureString(face, text))))

	pad := 2
	if legible {
		pad += max((st.halo.width+1)/2, st.shadow.margin()*2)
	} else if st.ambient != nil {
		pad += st.ambient.margin() * 2
	}

	mask := image.NewAlpha(image.Rect(0, 0, width+2*pad, ascent+descent+2*pad))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(pad, pad+ascent),
	}
	d.DrawString(text)

	at := image.Pt(int(math.Round(x))-pad, int(math.Round(y))-pad)
	switch {
	case legible:
		drawMask(dst, dilate(mask, (st.halo.width+1)/2), at, st.halo.color)
		drawShadow(dst, mask, at, st.shadow)
	case st.ambient != nil:
		drawShadow(dst, mask, at, *st.ambient)
	}
	drawMask(dst, mask, at, st.color)
}
