package poster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptyPayload is returned for a blank image payload.
	ErrEmptyPayload = errors.New("empty image payload")
	// ErrImageTooLarge is returned when an image header declares more
	// pixels than the loader accepts.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Loader turns an image payload into a decoded image. Each call is one
// attempt; the renderer never retries.
type Loader interface {
	Load(ctx context.Context, payload string) (image.Image, error)
}

// PayloadLoader accepts data URIs, http(s) URLs and bare base64.
type PayloadLoader struct {
	Client    *http.Client
	MaxBytes  int64
	MaxPixels int64
}

const (
	defaultMaxImageBytes  = 20 << 20 // 20MB
	defaultMaxImagePixels = 50_000_000
)

// NewPayloadLoader returns a loader whose remote fetches give up after timeout.
func NewPayloadLoader(timeout time.Duration) *PayloadLoader {
	return &PayloadLoader{
		Client:    &http.Client{Timeout: timeout},
		MaxBytes:  defaultMaxImageBytes,
		MaxPixels: defaultMaxImagePixels,
	}
}

// Load fetches or decodes payload and decodes the image, honouring EXIF orientation.
func (l *PayloadLoader) Load(ctx context.Context, payload string) (image.Image, error) {
	payload = strings.TrimSpace(payload)
	var (
		data []byte
		err  error
	)
	switch {
	case payload == "":
		return nil, ErrEmptyPayload
	case strings.HasPrefix(payload, "data:"):
		data, err = decodeDataURI(payload)
	case strings.HasPrefix(payload, "http://"), strings.HasPrefix(payload, "https://"):
		data, err = l.fetch(ctx, payload)
	default:
		data, err = decodeBase64(payload)
	}
	if err != nil {
		return nil, err
	}
	if err := l.checkDimensions(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// checkDimensions reads only the image header and rejects images larger
// than MaxPixels.
func (l *PayloadLoader) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	limit := l.MaxPixels
	if limit <= 0 {
		limit = defaultMaxImagePixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > limit {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func (l *PayloadLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = defaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.New("invalid data URI: missing comma")
	}
	meta, body := uri[len("data:"):comma], uri[comma+1:]
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return decodeBase64(body)
	}
	data, err := url.PathUnescape(body)
	if err != nil {
		return nil, fmt.Errorf("invalid data URI: %w", err)
	}
	return []byte(data), nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
