package poster

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the layout strategy for a render.
type Mode string

const (
	ModeCover   Mode = "cover"
	ModeContent Mode = "content"
)

var (
	ErrTitleRequired   = errors.New("cover mode requires a title")
	ErrContentRequired = errors.New("content mode requires a title or body text")
	ErrUnknownMode     = errors.New("unknown poster type")
)

// ParseMode maps the wire value of "type" to a Mode. An empty value means content.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cover":
		return ModeCover, nil
	case "", "content":
		return ModeContent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Image is an inline picture anchored at a flow position.
// Position 0 places it right after the title block; a position past the last
// paragraph appends it at the end.
type Image struct {
	Data     string `json:"data"`
	Position int    `json:"position"`
}

// Request is the input of a single render. It is not modified by the renderer.
type Request struct {
	Mode       Mode
	Title      string
	Subtitle   string
	Body       string
	Images     []Image
	Background string
}

// Validate reports whether the request carries the text its mode requires.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeCover:
		if strings.TrimSpace(r.Title) == "" {
			return ErrTitleRequired
		}
	case ModeContent:
		if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Body) == "" {
			return ErrContentRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}
	return nil
}
