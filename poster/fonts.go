package poster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family is a typeface family used by the layout.
type Family int

const (
	FamilySerif Family = iota
	FamilySans
)

func (f Family) String() string {
	if f == FamilySerif {
		return "serif"
	}
	return "sans"
}

// Weight is a CSS-style font weight.
type Weight int

const (
	WeightRegular  Weight = 400
	WeightMedium   Weight = 500
	WeightSemiBold Weight = 600
	WeightBold     Weight = 700
)

var weights = []Weight{WeightRegular, WeightMedium, WeightSemiBold, WeightBold}

type fontKey struct {
	family Family
	weight Weight
}

// FontSet holds parsed fonts for every family and weight. It is read-only
// after LoadFonts and safe to share between renders.
type FontSet struct {
	fonts map[fontKey]*opentype.Font
}

// LoadFonts resolves every family and weight of cfg to the first candidate
// file that parses. Slots with no usable file fall back to the Go fonts, so
// the returned set is always complete.
func LoadFonts(cfg FontConfig, logger *log.Logger) (*FontSet, error) {
	if logger == nil {
		logger = log.Default()
	}
	fs := &FontSet{fonts: make(map[fontKey]*opentype.Font)}
	families := map[Family]FamilyFiles{FamilySerif: cfg.Serif, FamilySans: cfg.Sans}
	for family, files := range families {
		for _, w := range weights {
			f, path := firstFont(files.forWeight(w))
			if f == nil {
				fallback, err := goFont(w)
				if err != nil {
					return nil, err
				}
				logger.Debug("using built-in font", "family", family, "weight", int(w))
				f = fallback
			} else {
				logger.Debug("loaded font", "family", family, "weight", int(w), "path", path)
			}
			fs.fonts[fontKey{family, w}] = f
		}
	}
	return fs, nil
}

func firstFont(paths []string) (*opentype.Font, string) {
	for _, p := range paths {
		f, err := loadFontFile(p)
		if err == nil {
			return f, p
		}
	}
	return nil, ""
}

// loadFontFile parses a single font file. Collections (.ttc, .otc) yield
// their first face.
func loadFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", path, err)
		}
		return coll.Font(0)
	default:
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", path, err)
		}
		return f, nil
	}
}

func goFont(w Weight) (*opentype.Font, error) {
	src := goregular.TTF
	switch w {
	case WeightMedium:
		src = gomedium.TTF
	case WeightSemiBold, WeightBold:
		src = gobold.TTF
	}
	f, err := opentype.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse built-in font: %w", err)
	}
	return f, nil
}

type faceKey struct {
	fontKey
	size float64
}

// faceCache owns the sized faces of one render. Faces keep glyph buffers and
// must not be shared across goroutines.
type faceCache struct {
	set   *FontSet
	faces map[faceKey]font.Face
}

func newFaceCache(set *FontSet) *faceCache {
	return &faceCache{set: set, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(family Family, weight Weight, size float64) (font.Face, error) {
	key := faceKey{fontKey{family, weight}, size}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	src, ok := c.set.fonts[key.fontKey]
	if !ok {
		return nil, fmt.Errorf("no font for %s %d", family, weight)
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s %d %.0fpx: %w", family, weight, size, err)
	}
	c.faces[key] = f
	return f, nil
}

func (c *faceCache) Close() {
	for _, f := range c.faces {
		f.Close()
	}
}
