package poster

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#2f251f", color.NRGBA{0x2f, 0x25, 0x1f, 0xff}, false},
		{"fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}, false},
		{"#d4b5a024", color.NRGBA{0xd4, 0xb5, 0xa0, 0x24}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func writeTheme(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theme.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	return path
}

func TestLoadThemeOverridesDefaults(t *testing.T) {
	path := writeTheme(t, `
[palette]
text_primary = "#000000"

[fonts.sans]
regular = ["/tmp/custom.ttf"]
`)
	th, err := LoadTheme(path)
	if err != nil {
		t.Fatalf("LoadTheme: %v", err)
	}
	if got := th.Palette.TextPrimary.NRGBA(); got != (color.NRGBA{A: 0xff}) {
		t.Errorf("TextPrimary = %v, want black", got)
	}
	def := DefaultTheme()
	if th.Palette.BackgroundStart != def.Palette.BackgroundStart {
		t.Errorf("BackgroundStart = %v, want default %v", th.Palette.BackgroundStart, def.Palette.BackgroundStart)
	}
	if len(th.Fonts.Sans.Regular) != 1 || th.Fonts.Sans.Regular[0] != "/tmp/custom.ttf" {
		t.Errorf("Sans.Regular = %v", th.Fonts.Sans.Regular)
	}
}

func TestLoadThemeRejectsUnknownKeys(t *testing.T) {
	path := writeTheme(t, `
[palette]
text_primry = "#000000"
`)
	if _, err := LoadTheme(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadThemeRejectsBadColor(t *testing.T) {
	path := writeTheme(t, `
[palette]
body = "not-a-color"
`)
	if _, err := LoadTheme(path); err == nil {
		t.Fatal("expected error for invalid color")
	}
}
