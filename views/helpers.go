package views

import (
	"context"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/brandsite/poster"
)

// out accumulates the first write error so page bodies read top to bottom.
type out struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (o *out) raw(s string) {
	if o.err == nil {
		_, o.err = io.WriteString(o.w, s)
	}
}

// text writes s HTML-escaped.
func (o *out) text(s string) {
	o.raw(templ.EscapeString(s))
}

func (o *out) render(c templ.Component) {
	if o.err == nil {
		o.err = c.Render(o.ctx, o.w)
	}
}

// ModeLabel is the admin-facing name of a poster layout.
func ModeLabel(m poster.Mode) string {
	if m == poster.ModeCover {
		return "Cover"
	}
	return "Content"
}

// FormatDate formats t for listings, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func checked(b bool) string {
	if b {
		return " checked"
	}
	return ""
}

func selected(b bool) string {
	if b {
		return " selected"
	}
	return ""
}
