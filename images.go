package brandsite

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/brandsite/poster"
)

const (
	maxImageWidth = poster.Width
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an uploaded image, scales it down to the poster
// width if it is wider, and returns it as a JPEG data URI ready to be stored
// in a draft.
func processImage(src io.Reader) (string, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := max(1, h*maxImageWidth/w)
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// uploadedImage turns one multipart file into a data URI.
func uploadedImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxUploadSize {
		return "", fmt.Errorf("%s: file too large (max 10MB)", file.Filename)
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	uri, err := processImage(src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", file.Filename, err)
	}
	return uri, nil
}
