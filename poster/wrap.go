package poster

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// MeasureFunc returns the rendered width of s in pixels under the current font.
type MeasureFunc func(s string) float64

// FaceMeasure measures strings with face, kerning included.
func FaceMeasure(face font.Face) MeasureFunc {
	return func(s string) float64 {
		return fixedToFloat(font.MeasureString(face, s))
	}
}

// Wrap breaks text into lines no wider than maxWidth.
//
// Text is first split on line breaks and every segment is wrapped on its own;
// a blank segment yields one empty line. Inside a segment lines grow one
// grapheme cluster at a time, so scripts without spaces break correctly and a
// cluster is never split. A cluster wider than maxWidth on its own still gets
// a line of its own.
func Wrap(measure MeasureFunc, text string, maxWidth float64) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for _, segment := range strings.Split(text, "\n") {
		if strings.TrimSpace(segment) == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		g := uniseg.NewGraphemes(segment)
		for g.Next() {
			unit := g.Str()
			candidate := current + unit
			if current != "" && measure(candidate) > maxWidth {
				lines = append(lines, current)
				current = unit
				continue
			}
			current = candidate
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
