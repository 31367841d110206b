package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/spf13/cobra"

	"github.com/eringen/brandsite"
	"github.com/eringen/brandsite/poster"
)

type posterOpts struct {
	mode       string
	title      string
	subtitle   string
	content    string // path to the body text, "-" for stdin
	images     []string
	background string
	theme      string
	output     string
	quality    float32
	timeout    time.Duration
}

func newPosterCmd() *cobra.Command {
	opts := posterOpts{
		mode:    string(poster.ModeContent),
		output:  "poster.png",
		quality: 90,
		timeout: 15 * time.Second,
	}
	cmd := &cobra.Command{
		Use:   "poster",
		Short: "Render one poster to a PNG or WebP file",
		Example: `  brandsite poster --type cover --title "春季新品" --subtitle "限时上新" -o cover.png
  brandsite poster --title "使用心得" --content body.md --image 1=photo.jpg --image 3=https://example.com/b.png -o page.webp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoster(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.mode, "type", "t", opts.mode, `layout: "cover" or "content"`)
	f.StringVar(&opts.title, "title", "", "poster title")
	f.StringVar(&opts.subtitle, "subtitle", "", "poster subtitle")
	f.StringVarP(&opts.content, "content", "c", "", `file with the body text ("-" reads stdin)`)
	f.StringArrayVarP(&opts.images, "image", "i", nil, "inline image as POSITION=FILE_OR_URL (repeatable)")
	f.StringVarP(&opts.background, "background", "b", "", "background image file or URL")
	f.StringVar(&opts.theme, "theme", "", "theme TOML file")
	f.StringVarP(&opts.output, "output", "o", opts.output, "output file; a .webp suffix writes WebP")
	f.Float32Var(&opts.quality, "quality", opts.quality, "WebP quality (0-100)")
	f.DurationVar(&opts.timeout, "timeout", opts.timeout, "per-image fetch timeout")
	return cmd
}

func runPoster(cmd *cobra.Command, opts posterOpts) error {
	logger := loggerFromContext(cmd.Context())

	mode, err := poster.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	req := poster.Request{Mode: mode, Title: opts.title, Subtitle: opts.subtitle}
	if opts.content != "" {
		body, err := readContent(cmd.InOrStdin(), opts.content)
		if err != nil {
			return err
		}
		req.Body = body
	}
	if opts.background != "" {
		if req.Background, err = payload(opts.background); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	for _, arg := range opts.images {
		im, err := parseImageFlag(arg)
		if err != nil {
			return err
		}
		req.Images = append(req.Images, im)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	r, err := brandsite.NewPosterRenderer(brandsite.SiteConfig{
		PosterThemePath:    opts.theme,
		PosterFetchTimeout: opts.timeout,
	}, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	img, err := r.Render(cmd.Context(), req)
	if err != nil {
		return err
	}
	data, err := encode(img, opts.output, opts.quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	logger.Info("poster written", "file", opts.output, "mode", mode, "bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func readContent(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(b), "\r\n", "\n"), nil
}

// parseImageFlag parses POSITION=SOURCE. A source without a position is
// placed at position 0, before the first paragraph.
func parseImageFlag(arg string) (poster.Image, error) {
	pos, src := 0, arg
	if p, rest, ok := strings.Cut(arg, "="); ok {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return poster.Image{}, fmt.Errorf("image %q: position must be an integer", arg)
		}
		pos, src = n, rest
	}
	data, err := payload(src)
	if err != nil {
		return poster.Image{}, fmt.Errorf("image %q: %w", arg, err)
	}
	return poster.Image{Data: data, Position: pos}, nil
}

// payload turns a CLI image argument into a loader payload: URLs pass
// through, files become base64.
func payload(src string) (string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "data:") {
		return src, nil
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func encode(img image.Image, output string, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(output)) {
	case ".webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}
