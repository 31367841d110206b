package poster

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font/basicfont"
)

// monospace measures every grapheme cluster as 10px wide.
func monospace(s string) float64 {
	return float64(10 * uniseg.GraphemeClusterCount(s))
}

func TestWrapFitsOnOneLine(t *testing.T) {
	got := Wrap(monospace, "hello", 100)
	want := []string{"hello"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapBreaksAtWidth(t *testing.T) {
	got := Wrap(monospace, "abcdefghij", 40)
	want := []string{"abcd", "efgh", "ij"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapPreservesText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	lines := Wrap(monospace, text, 70)
	if got := strings.Join(lines, ""); got != text {
		t.Errorf("joined lines = %q, want %q", got, text)
	}
	for _, l := range lines {
		if monospace(l) > 70 {
			t.Errorf("line %q is %vpx wide, max 70", l, monospace(l))
		}
	}
}

func TestWrapNarrowWidthOneClusterPerLine(t *testing.T) {
	got := Wrap(monospace, "abc", 1)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapLineBreaks(t *testing.T) {
	got := Wrap(monospace, "one\n  \ntwo", 100)
	want := []string{"one", "", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapEmpty(t *testing.T) {
	if got := Wrap(monospace, "", 100); len(got) != 0 {
		t.Errorf("Wrap(\"\") = %q, want no lines", got)
	}
}

func TestWrapCJKWithoutSpaces(t *testing.T) {
	got := Wrap(monospace, "小红书海报生成", 30)
	want := []string{"小红书", "海报生", "成"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapKeepsGraphemeClusters(t *testing.T) {
	// Flag emoji and a combining accent are single clusters.
	text := "🇯🇵🇫🇷é"
	got := Wrap(monospace, text, 10)
	want := []string{"🇯🇵", "🇫🇷", "é"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapWithFaceMeasure(t *testing.T) {
	// basicfont.Face7x13 advances every glyph by 7px.
	measure := FaceMeasure(basicfont.Face7x13)
	got := Wrap(measure, "abcdefgh", 28)
	want := []string{"abcd", "efgh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}
