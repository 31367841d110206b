// Package poster renders title, subtitle, body text and inline images into
// fixed-size 1242×1656 social-media graphics.
//
// A render is a single sequential pass over a private canvas. Text is wrapped
// one grapheme cluster at a time, blocks flow down the page with a vertical
// cursor, images are inserted at caller-chosen paragraph positions, and text
// past the bottom margin is silently dropped. Image loads that fail are logged
// and skipped; the render itself only fails on invalid input or an internal
// error.
package poster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	Width  = 1242
	Height = 1656

	// Text lines whose top lies below Height-bottomMargin are not drawn.
	bottomMargin = 120

	coverInset    = 60
	coverTop      = Height * 0.2
	coverGap      = 96
	contentInset  = 120
	contentTop    = 200
	titleGap      = 60
	subtitleGap   = 50
	spacerHeight  = 24
	contentWidth  = Width - 2*contentInset
	coverMaxWidth = Width - 2*coverInset
)

// Renderer turns Requests into images. It is safe for concurrent use; every
// render gets its own canvas and font faces.
type Renderer struct {
	fonts  *FontSet
	theme  Theme
	loader Loader
	logger *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the palette used for painting.
func WithTheme(t Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// WithLoader replaces the image payload loader.
func WithLoader(l Loader) Option {
	return func(r *Renderer) { r.loader = l }
}

// WithLogger sets the logger that receives image load failures.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer returns a Renderer drawing with fonts.
func NewRenderer(fonts *FontSet, opts ...Option) *Renderer {
	r := &Renderer{
		fonts:  fonts,
		theme:  DefaultTheme(),
		loader: NewPayloadLoader(15 * time.Second),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// canvas is the state of one render: the surface, the vertical cursor and
// the faces sized for this render.
type canvas struct {
	img   *image.RGBA
	y     float64
	faces *faceCache
	// legible turns on the halo and shadow treatment for every text line.
	legible bool
}

// Render validates req and draws it.
func (r *Renderer) Render(ctx context.Context, req Request) (*image.RGBA, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c := &canvas{
		img:     image.NewRGBA(image.Rect(0, 0, Width, Height)),
		faces:   newFaceCache(r.fonts),
		legible: strings.TrimSpace(req.Background) != "",
	}
	defer c.faces.Close()

	r.paintBackground(ctx, c, req.Background)

	var err error
	if req.Mode == ModeCover {
		err = r.layoutCover(c, req)
	} else {
		err = r.layoutContent(ctx, c, req)
	}
	if err != nil {
		return nil, err
	}
	return c.img, nil
}

// RenderPNG renders req and encodes the result as PNG.
func (r *Renderer) RenderPNG(ctx context.Context, req Request) ([]byte, error) {
	img, err := r.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) paintBackground(ctx context.Context, c *canvas, payload string) {
	if strings.TrimSpace(payload) != "" {
		bg, err := r.loader.Load(ctx, payload)
		if err == nil {
			paintPhoto(c.img, bg)
			return
		}
		r.logger.Warn("background image failed, using gradient", "err", err)
	}
	paintGradient(c.img, r.theme.Palette)
}

func (r *Renderer) layoutCover(c *canvas, req Request) error {
	p := r.theme.Palette
	title := textStyle{
		family: FamilySerif, weight: WeightSemiBold, size: 125, lineHeight: 125 * 1.1,
		color:  p.TextPrimary.NRGBA(),
		halo:   halo{color: withAlpha(white, 0.8), width: 4},
		shadow: shadow{color: withAlpha(black, 0.2), blur: 6, dy: 2},
	}
	n, err := r.drawLines(c, req.Title, coverInset, coverTop, coverMaxWidth, title, false)
	if err != nil {
		return err
	}
	if req.Subtitle == "" {
		return nil
	}
	subtitle := textStyle{
		family: FamilySerif, weight: WeightRegular, size: 60, lineHeight: 60 * 1.3,
		color:  p.TextPrimary.NRGBA(),
		halo:   halo{color: withAlpha(white, 0.7), width: 3},
		shadow: shadow{color: withAlpha(black, 0.15), blur: 4, dy: 1},
	}
	top := coverTop + float64(n)*title.lineHeight + coverGap
	_, err = r.drawLines(c, req.Subtitle, coverInset, top, coverMaxWidth, subtitle, false)
	return err
}

// drawLines wraps text and draws it from top at x. With clip set, lines
// starting below the bottom margin are skipped. It returns the line count.
func (r *Renderer) drawLines(c *canvas, text string, x, top, maxWidth float64, st textStyle, clip bool) (int, error) {
	face, err := c.faces.face(st.family, st.weight, st.size)
	if err != nil {
		return 0, err
	}
	lines := Wrap(FaceMeasure(face), text, maxWidth)
	for i, line := range lines {
		y := top + float64(i)*st.lineHeight
		if clip && y > Height-bottomMargin {
			continue
		}
		drawLine(c.img, face, line, x, y, st, c.legible)
	}
	return len(lines), nil
}

// flow draws text at the cursor and advances it by one line height per line.
// Clipped lines still advance the cursor.
func (r *Renderer) flow(c *canvas, text string, st textStyle) error {
	n, err := r.drawLines(c, text, contentInset, c.y, contentWidth, st, true)
	if err != nil {
		return err
	}
	c.y += float64(n) * st.lineHeight
	return nil
}

func (r *Renderer) contentStyles() (title, subtitle textStyle, blocks map[BlockKind]blockStyle) {
	p := r.theme.Palette
	title = textStyle{
		family: FamilySerif, weight: WeightBold, size: 72, lineHeight: 90,
		color:   p.TextPrimary.NRGBA(),
		halo:    halo{color: withAlpha(white, 0.8), width: 4},
		shadow:  shadow{color: withAlpha(black, 0.2), blur: 6, dy: 2},
		ambient: &shadow{color: withAlpha(black, 0.05), blur: 4, dy: 2},
	}
	subtitle = textStyle{
		family: FamilySerif, weight: WeightRegular, size: 40, lineHeight: 55,
		color:   p.TextSecondary.NRGBA(),
		halo:    halo{color: withAlpha(white, 0.7), width: 3},
		shadow:  shadow{color: withAlpha(black, 0.15), blur: 4, dy: 1},
		ambient: &shadow{color: withAlpha(black, 0.03), blur: 3, dy: 1},
	}
	headingHalo := halo{color: withAlpha(white, 0.7), width: 2}
	headingShadow := shadow{color: withAlpha(black, 0.15), blur: 4, dy: 1}
	blocks = map[BlockKind]blockStyle{
		BlockHeading1: {textStyle{
			family: FamilySans, weight: WeightSemiBold, size: 52, lineHeight: 52 * 1.2,
			color: p.Heading1.NRGBA(), halo: headingHalo, shadow: headingShadow,
		}, 32},
		BlockHeading2: {textStyle{
			family: FamilySans, weight: WeightMedium, size: 44, lineHeight: 44 * 1.3,
			color: p.Heading2.NRGBA(), halo: headingHalo, shadow: headingShadow,
		}, 24},
		BlockBody: {textStyle{
			family: FamilySans, weight: WeightRegular, size: 36, lineHeight: 36 * 1.6,
			color:  p.Body.NRGBA(),
			halo:   halo{color: withAlpha(white, 0.6), width: 2},
			shadow: shadow{color: withAlpha(black, 0.1), blur: 3, dy: 1},
		}, 24},
	}
	return title, subtitle, blocks
}

// blockStyle is the text style of a paragraph kind plus the space after it.
type blockStyle struct {
	text  textStyle
	after float64
}

func (r *Renderer) layoutContent(ctx context.Context, c *canvas, req Request) error {
	title, subtitle, blocks := r.contentStyles()
	c.y = contentTop

	for _, step := range Plan(req) {
		switch step.Kind {
		case StepTitle:
			if err := r.flow(c, req.Title, title); err != nil {
				return err
			}
			c.y += titleGap
		case StepSubtitle:
			if err := r.flow(c, req.Subtitle, subtitle); err != nil {
				return err
			}
			c.y += subtitleGap
		case StepBlock:
			if step.Block.Kind == BlockSpacer {
				c.y += spacerHeight
				continue
			}
			bs := blocks[step.Block.Kind]
			if err := r.flow(c, step.Block.Text, bs.text); err != nil {
				return err
			}
			c.y += bs.after
		case StepImage:
			r.placeImage(ctx, c, step.Image, req.Images[step.Image])
		}
	}
	return nil
}

// placeImage loads and draws one inline image. A failure is logged and the
// image skipped; the cursor does not move.
func (r *Renderer) placeImage(ctx context.Context, c *canvas, index int, im Image) {
	img, err := r.loader.Load(ctx, im.Data)
	if err != nil {
		r.logger.Warn("image load failed, skipping", "index", index, "position", im.Position, "err", err)
		return
	}
	c.drawImageCard(img, contentWidth, r.theme.Palette.Card)
}
