package brandsite

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Description string       `xml:"description"`
	PubDate     string       `xml:"pubDate"`
	GUID        string       `xml:"guid"`
	Enclosure   rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// renderRSS lists published posters; each item encloses the rendered PNG.
func (a *App) renderRSS(c echo.Context, drafts []Draft) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(drafts))
	for _, d := range drafts {
		link := PosterURL(base, d)
		desc := d.Subtitle
		if desc == "" {
			desc = Excerpt(d.Body, 200)
		}
		items = append(items, rssItem{
			Title:       d.Title,
			Link:        link,
			Description: desc,
			PubDate:     d.UpdatedAt.Format(time.RFC1123Z),
			GUID:        d.ID,
			Enclosure:   rssEnclosure{URL: link, Type: "image/png"},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
