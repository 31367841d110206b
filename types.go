package brandsite

import (
	"time"

	"github.com/eringen/brandsite/poster"
)

// Draft is the stored input of a poster. Rendered bytes are never stored;
// published drafts are rendered on demand.
type Draft struct {
	ID         string
	Slug       string
	Mode       poster.Mode
	Title      string
	Subtitle   string
	Body       string
	Background string // image payload, usually a data URI
	Images     []poster.Image
	Published  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Request converts the draft into a render request.
func (d Draft) Request() poster.Request {
	return poster.Request{
		Mode:       d.Mode,
		Title:      d.Title,
		Subtitle:   d.Subtitle,
		Body:       d.Body,
		Images:     d.Images,
		Background: d.Background,
	}
}

// Link is the public path of the rendered draft.
func (d Draft) Link() string {
	return "/posters/" + d.Slug
}

// Draft change event kinds.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// DraftEvent is pushed to realtime subscribers when a draft changes.
type DraftEvent struct {
	Event string       `json:"event"`
	Draft DraftSummary `json:"draft"`
}

// DraftSummary is the subscriber-facing view of a draft. It leaves out
// image payloads, which can be megabytes of base64.
type DraftSummary struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Mode      string    `json:"mode"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the subscriber-facing view of d.
func (d Draft) Summary() DraftSummary {
	return DraftSummary{
		ID:        d.ID,
		Slug:      d.Slug,
		Mode:      string(d.Mode),
		Title:     d.Title,
		Published: d.Published,
		UpdatedAt: d.UpdatedAt,
	}
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
}
