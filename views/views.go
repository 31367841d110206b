// Package views holds the brand site's pages. Funcs plugs them into a
// brandsite.App.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/brandsite"
	"github.com/eringen/brandsite/poster"
)

// Funcs returns the site's pages bound to cfg.
func Funcs(cfg brandsite.SiteConfig) brandsite.ViewFuncs {
	return brandsite.ViewFuncs{
		Home:           Home,
		AdminLogin:     func(showError bool, csrf string) templ.Component { return AdminLogin(cfg, showError, csrf) },
		AdminDashboard: func(drafts []brandsite.Draft, msg, csrf string) templ.Component { return AdminDashboard(cfg, drafts, msg, csrf) },
		AdminForm:      func(d brandsite.Draft, csrf string) templ.Component { return AdminForm(cfg, d, csrf) },
		NotFound:       func() templ.Component { return NotFound(cfg) },
		ServerError:    func() templ.Component { return ServerError(cfg) },
	}
}

// page wraps body in the shared document shell.
func page(cfg brandsite.SiteConfig, meta brandsite.PageMeta, jsonLD string, body func(o *out)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{ctx: ctx, w: w}
		title := cfg.Name
		if meta.Title != "" {
			title = meta.Title + " · " + cfg.Name
		}
		o.raw(`<!doctype html><html lang="zh-CN"><head><meta charset="utf-8">`)
		o.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		o.raw(`<title>`)
		o.text(title)
		o.raw(`</title>`)
		if meta.Description != "" {
			o.raw(`<meta name="description" content="`)
			o.text(meta.Description)
			o.raw(`">`)
		}
		if meta.URL != "" {
			o.raw(`<link rel="canonical" href="`)
			o.text(meta.URL)
			o.raw(`"><meta property="og:url" content="`)
			o.text(meta.URL)
			o.raw(`">`)
		}
		o.raw(`<meta property="og:title" content="`)
		o.text(title)
		o.raw(`"><meta property="og:type" content="`)
		o.text(meta.OGType)
		o.raw(`">`)
		if meta.Image != "" {
			o.raw(`<meta property="og:image" content="`)
			o.text(meta.Image)
			o.raw(`">`)
		}
		o.raw(`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		o.raw(`<link rel="stylesheet" href="/public/brand.css">`)
		o.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		if jsonLD != "" {
			// JSON-LD comes from json.Marshal, which escapes <, > and &.
			o.raw(`<script type="application/ld+json">` + jsonLD + `</script>`)
		}
		o.raw(`</head><body><main class="wrap">`)
		body(o)
		o.raw(`</main></body></html>`)
		return o.err
	})
}

// Home lists the published posters.
func Home(drafts []brandsite.Draft, cfg brandsite.SiteConfig) templ.Component {
	meta := brandsite.PageMeta{
		Description: cfg.Description,
		URL:         brandsite.BuildURL(cfg.URL),
		OGType:      "website",
	}
	if len(drafts) > 0 {
		meta.Image = brandsite.PosterURL(cfg.URL, drafts[0])
	}
	return page(cfg, meta, brandsite.WebsiteJsonLD(cfg), func(o *out) {
		o.raw(`<section class="hero"><h1>`)
		o.text(cfg.Name)
		o.raw(`</h1>`)
		if cfg.Description != "" {
			o.raw(`<p>`)
			o.text(cfg.Description)
			o.raw(`</p>`)
		}
		o.raw(`</section>`)
		if len(drafts) == 0 {
			o.raw(`<p class="flash">Nothing published yet.</p>`)
			return
		}
		o.raw(`<section class="posters">`)
		for _, d := range drafts {
			o.raw(`<a class="poster-card" href="`)
			o.text(d.Link())
			o.raw(`"><img loading="lazy" width="` + strconv.Itoa(poster.Width) + `" height="` + strconv.Itoa(poster.Height) + `" src="`)
			o.text(d.Link())
			o.raw(`" alt="`)
			o.text(d.Title)
			o.raw(`"><h2>`)
			o.text(d.Title)
			o.raw(`</h2>`)
			if ex := brandsite.Excerpt(d.Body, 60); ex != "" {
				o.raw(`<p class="preview">`)
				o.text(ex)
				o.raw(`</p>`)
			}
			o.raw(`</a>`)
			o.raw(`<script type="application/ld+json">` + brandsite.PosterJsonLD(d, cfg) + `</script>`)
		}
		o.raw(`</section>`)
	})
}

// AdminLogin is the password form.
func AdminLogin(cfg brandsite.SiteConfig, showError bool, csrf string) templ.Component {
	return page(cfg, brandsite.PageMeta{Title: "Admin", OGType: "website"}, "", func(o *out) {
		o.raw(`<section class="admin"><h1>Admin</h1>`)
		if showError {
			o.raw(`<p class="flash">Wrong password.</p>`)
		}
		o.raw(`<form method="post" action="/admin/login/">`)
		csrfField(o, csrf)
		o.raw(`<label for="password">Password</label><input id="password" type="password" name="password" autofocus>`)
		o.raw(`<p><button type="submit">Log in</button></p></form></section>`)
	})
}

// dashboardScript reloads the dashboard when another session changes a
// draft, and sends DELETE requests for the delete buttons.
const dashboardScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/admin/drafts/subscribe");
  ws.onmessage = function () { location.reload(); };
  document.querySelectorAll("button[data-delete]").forEach(function (btn) {
    btn.addEventListener("click", function () {
      if (!confirm("Delete this draft?")) return;
      fetch(btn.dataset.delete, {method: "DELETE", headers: {"X-CSRF-Token": btn.dataset.csrf}})
        .then(function () { location.reload(); });
    });
  });
})();
</script>`

// AdminDashboard lists every draft with edit and delete actions.
func AdminDashboard(cfg brandsite.SiteConfig, drafts []brandsite.Draft, message, csrf string) templ.Component {
	return page(cfg, brandsite.PageMeta{Title: "Drafts", OGType: "website"}, "", func(o *out) {
		o.raw(`<section class="admin"><h1>Drafts</h1>`)
		if message != "" {
			o.raw(`<p class="flash">`)
			o.text(message)
			o.raw(`</p>`)
		}
		o.raw(`<p><a href="/admin/draft/new/">New poster</a> · <a href="/admin/stats/?period=week">Render stats</a></p>`)
		o.raw(`<table><thead><tr><th>Title</th><th>Layout</th><th>Status</th><th>Updated</th><th></th></tr></thead><tbody>`)
		for _, d := range drafts {
			o.raw(`<tr><td><a href="/admin/draft/`)
			o.text(brandsite.PathEscape(d.ID))
			o.raw(`/">`)
			o.text(d.Title)
			o.raw(`</a></td><td>`)
			o.text(ModeLabel(d.Mode))
			o.raw(`</td><td>`)
			if d.Published {
				o.raw(`<a href="`)
				o.text(d.Link())
				o.raw(`">published</a>`)
			} else {
				o.raw(`draft`)
			}
			o.raw(`</td><td>`)
			o.text(FormatDate(d.UpdatedAt))
			o.raw(`</td><td><button type="button" data-delete="/admin/draft/`)
			o.text(brandsite.PathEscape(d.ID))
			o.raw(`/" data-csrf="`)
			o.text(csrf)
			o.raw(`">Delete</button></td></tr>`)
		}
		o.raw(`</tbody></table>`)
		o.raw(`<form method="post" action="/admin/logout/">`)
		csrfField(o, csrf)
		o.raw(`<p><button type="submit">Log out</button></p></form></section>`)
		o.raw(dashboardScript)
	})
}

// AdminForm edits one draft. Uploads replace the stored background and
// append to the stored images.
func AdminForm(cfg brandsite.SiteConfig, d brandsite.Draft, csrf string) templ.Component {
	heading := "New poster"
	if d.ID != "" {
		heading = "Edit " + d.Title
	}
	return page(cfg, brandsite.PageMeta{Title: heading, OGType: "website"}, "", func(o *out) {
		o.raw(`<section class="admin"><h1>`)
		o.text(heading)
		o.raw(`</h1><form method="post" action="/admin/save/" enctype="multipart/form-data">`)
		csrfField(o, csrf)
		o.raw(`<input type="hidden" name="id" value="`)
		o.text(d.ID)
		o.raw(`">`)

		o.raw(`<label for="mode">Layout</label><select id="mode" name="mode">`)
		o.raw(`<option value="content"` + selected(d.Mode != poster.ModeCover) + `>Content</option>`)
		o.raw(`<option value="cover"` + selected(d.Mode == poster.ModeCover) + `>Cover</option></select>`)

		field(o, "title", "Title", d.Title)
		field(o, "subtitle", "Subtitle", d.Subtitle)
		field(o, "slug", "Slug", d.Slug)

		o.raw(`<label for="body">Body</label><textarea id="body" name="body">`)
		o.text(d.Body)
		o.raw(`</textarea>`)

		o.raw(`<label for="background">Background image</label><input id="background" type="file" name="background" accept="image/*">`)
		if d.Background != "" {
			o.raw(`<label><input type="checkbox" name="clear_background"> Remove current background</label>`)
		}

		o.raw(`<label for="images">Inline images</label><input id="images" type="file" name="images" accept="image/*" multiple>`)
		o.raw(`<label for="positions">Paragraph position for each new image, comma separated</label><input id="positions" type="text" name="positions" placeholder="1, 3">`)
		if n := len(d.Images); n > 0 {
			o.raw(`<p>`)
			o.text(fmt.Sprintf("%d stored image(s).", n))
			o.raw(` <label><input type="checkbox" name="clear_images"> Remove them</label></p>`)
		}

		o.raw(`<label><input type="checkbox" name="published"` + checked(d.Published) + `> Published</label>`)
		o.raw(`<p><button type="submit">Save</button></p></form>`)

		if d.Body != "" {
			o.raw(`<h2>Body preview</h2><article class="preview">`)
			o.render(Markdown(d.Body))
			o.raw(`</article>`)
		}
		if d.Published {
			o.raw(`<h2>Poster</h2><img class="poster-card" width="414" src="`)
			o.text(d.Link())
			o.raw(`" alt="`)
			o.text(d.Title)
			o.raw(`">`)
		}
		o.raw(`</section>`)
	})
}

// NotFound is the 404 page.
func NotFound(cfg brandsite.SiteConfig) templ.Component {
	return page(cfg, brandsite.PageMeta{Title: "Not found", OGType: "website"}, "", func(o *out) {
		o.raw(`<section class="hero"><h1>404</h1><p>This page does not exist. <a href="/">Back home</a>.</p></section>`)
	})
}

// ServerError is the 500 page.
func ServerError(cfg brandsite.SiteConfig) templ.Component {
	return page(cfg, brandsite.PageMeta{Title: "Error", OGType: "website"}, "", func(o *out) {
		o.raw(`<section class="hero"><h1>Something broke</h1><p>Please try again in a moment.</p></section>`)
	})
}

func csrfField(o *out, token string) {
	o.raw(`<input type="hidden" name="_csrf" value="`)
	o.text(token)
	o.raw(`">`)
}

func field(o *out, name, label, value string) {
	o.raw(`<label for="` + name + `">` + label + `</label><input id="` + name + `" type="text" name="` + name + `" value="`)
	o.text(value)
	o.raw(`">`)
}
