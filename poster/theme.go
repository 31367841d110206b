package poster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// HexColor is a color written as #rrggbb or #rrggbbaa in theme files.
type HexColor color.NRGBA

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (c *HexColor) UnmarshalText(b []byte) error {
	parsed, err := ParseHexColor(string(b))
	if err != nil {
		return err
	}
	*c = HexColor(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c HexColor) MarshalText() ([]byte, error) {
	if c.A == 0xff {
		return []byte(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), nil
	}
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

// NRGBA returns the color as a non-premultiplied value.
func (c HexColor) NRGBA() color.NRGBA { return color.NRGBA(c) }

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Palette holds every color the renderer paints with.
type Palette struct {
	BackgroundStart HexColor `toml:"background_start"`
	BackgroundMid   HexColor `toml:"background_mid"`
	BackgroundEnd   HexColor `toml:"background_end"`
	HighlightLeft   HexColor `toml:"highlight_left"`
	HighlightRight  HexColor `toml:"highlight_right"`
	Grain           HexColor `toml:"grain"`

	TextPrimary   HexColor `toml:"text_primary"`
	TextSecondary HexColor `toml:"text_secondary"`
	Heading1      HexColor `toml:"heading1"`
	Heading2      HexColor `toml:"heading2"`
	Body          HexColor `toml:"body"`
	Card          HexColor `toml:"card"`
}

// FamilyFiles lists candidate font files per weight, tried in order.
type FamilyFiles struct {
	Regular  []string `toml:"regular"`
	Medium   []string `toml:"medium"`
	SemiBold []string `toml:"semibold"`
	Bold     []string `toml:"bold"`
}

func (f FamilyFiles) forWeight(w Weight) []string {
	switch w {
	case WeightMedium:
		return f.Medium
	case WeightSemiBold:
		return f.SemiBold
	case WeightBold:
		return f.Bold
	default:
		return f.Regular
	}
}

// FontConfig maps the two families the layout uses to font files.
type FontConfig struct {
	Serif FamilyFiles `toml:"serif"`
	Sans  FamilyFiles `toml:"sans"`
}

// Theme is the visual configuration of the renderer.
type Theme struct {
	Palette Palette    `toml:"palette"`
	Fonts   FontConfig `toml:"fonts"`
}

func mustHex(s string) HexColor {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return HexColor(c)
}

// DefaultTheme returns the cream brand palette and the usual install
// locations of the Noto CJK fonts.
func DefaultTheme() Theme {
	return Theme{
		Palette: Palette{
			BackgroundStart: mustHex("#fef9f3"),
			BackgroundMid:   mustHex("#f6ecdf"),
			BackgroundEnd:   mustHex("#eedfce"),
			HighlightLeft:   mustHex("#d4b5a024"),
			HighlightRight:  mustHex("#bd957f1f"),
			Grain:           mustHex("#faf8f533"),
			TextPrimary:     mustHex("#2f251f"),
			TextSecondary:   mustHex("#4d4036"),
			Heading1:        mustHex("#3a2f2c"),
			Heading2:        mustHex("#4b3f3c"),
			Body:            mustHex("#4b3f3c"),
			Card:            mustHex("#ffffff"),
		},
		Fonts: FontConfig{
			Serif: FamilyFiles{
				Regular:  notoPaths("NotoSerifCJK-Regular.ttc", "NotoSerifSC-Regular.otf"),
				Medium:   notoPaths("NotoSerifCJK-Medium.ttc", "NotoSerifSC-Medium.otf"),
				SemiBold: notoPaths("NotoSerifCJK-SemiBold.ttc", "NotoSerifSC-SemiBold.otf"),
				Bold:     notoPaths("NotoSerifCJK-Bold.ttc", "NotoSerifSC-Bold.otf"),
			},
			Sans: FamilyFiles{
				Regular:  notoPaths("NotoSansCJK-Regular.ttc", "NotoSansSC-Regular.otf"),
				Medium:   notoPaths("NotoSansCJK-Medium.ttc", "NotoSansSC-Medium.otf"),
				SemiBold: notoPaths("NotoSansCJK-Bold.ttc", "NotoSansSC-SemiBold.otf"),
				Bold:     notoPaths("NotoSansCJK-Bold.ttc", "NotoSansSC-Bold.otf"),
			},
		},
	}
}

func notoPaths(collection, single string) []string {
	return []string{
		"/usr/share/fonts/opentype/noto/" + collection,
		"/usr/share/fonts/noto-cjk/" + collection,
		"/usr/share/fonts/google-noto-cjk/" + collection,
		"/Library/Fonts/" + single,
		"/usr/local/share/fonts/" + single,
	}
}

// LoadTheme reads a TOML theme file over DefaultTheme. Keys missing from the
// file keep their defaults; unknown keys are an error.
func LoadTheme(path string) (Theme, error) {
	t := DefaultTheme()
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Theme{}, fmt.Errorf("decode theme %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Theme{}, fmt.Errorf("theme %s: unknown keys %v", path, undecoded)
	}
	return t, nil
}
