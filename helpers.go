package brandsite

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/eringen/brandsite/poster"
)

// Slugify converts a title to a URL-safe slug. Characters outside a-z and
// 0-9 collapse into single dashes, so a title with no ASCII letters yields "".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// Excerpt returns the body with heading markers removed and line breaks
// folded to spaces, cut to at most n grapheme clusters.
func Excerpt(body string, n int) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "## ")
		line = strings.TrimPrefix(line, "# ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	text := strings.Join(parts, " ")
	if uniseg.GraphemeClusterCount(text) <= n {
		return text
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return strings.TrimSpace(b.String()) + "…"
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// PosterJsonLD returns a JSON-LD string for an ImageObject schema describing
// a published poster.
func PosterJsonLD(d Draft, cfg SiteConfig) string {
	posterURL := PosterURL(cfg.URL, d)
	data := map[string]interface{}{
		"@context":       "https://schema.org",
		"@type":          "ImageObject",
		"name":           d.Title,
		"contentUrl":     posterURL,
		"url":            posterURL,
		"encodingFormat": "image/png",
		"width":          poster.Width,
		"height":         poster.Height,
		"dateModified":   d.UpdatedAt.Format("2006-01-02"),
	}
	if d.Subtitle != "" {
		data["caption"] = d.Subtitle
	}
	if cfg.Author != "" {
		data["creator"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
