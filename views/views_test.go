package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/brandsite"
	"github.com/eringen/brandsite/poster"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	return sb.String()
}

var testConfig = brandsite.SiteConfig{
	Name:        "Studio",
	URL:         "https://example.com",
	Description: "Posters & notes",
	Author:      "Lin",
}

func TestHomeListsPosters(t *testing.T) {
	drafts := []brandsite.Draft{
		{Slug: "spring", Title: "Spring <launch>", Body: "# Intro\nFirst line", Mode: poster.ModeContent, Published: true},
	}
	html := render(t, Home(drafts, testConfig))

	for _, want := range []string{
		`href="/posters/spring"`,
		`Spring &lt;launch&gt;`,
		`<meta property="og:image" content="https://example.com/posters/spring">`,
		`Posters &amp; notes`,
		`"@type":"ImageObject"`,
		`<p class="preview">Intro First line</p>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(html, "<launch>") {
		t.Error("title was not escaped")
	}
}

func TestHomeEmpty(t *testing.T) {
	html := render(t, Home(nil, testConfig))
	if !strings.Contains(html, "Nothing published yet.") {
		t.Error("empty home page has no placeholder")
	}
	if strings.Contains(html, "og:image") {
		t.Error("empty home page should not set og:image")
	}
}

func TestAdminFormEditing(t *testing.T) {
	d := brandsite.Draft{
		ID:         "abc",
		Slug:       "a",
		Mode:       poster.ModeCover,
		Title:      "Launch",
		Body:       "**bold** <script>alert(1)</script>",
		Background: "data:image/png;base64,AAAA",
		Images:     []poster.Image{{Data: "x", Position: 1}},
		Published:  true,
	}
	html := render(t, AdminForm(testConfig, d, "tok"))

	for _, want := range []string{
		`<h1>Edit Launch</h1>`,
		`name="_csrf" value="tok"`,
		`<option value="cover" selected>`,
		`name="clear_background"`,
		`1 stored image(s).`,
		`name="published" checked`,
		`<strong>bold</strong>`,
		`src="/posters/a"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("form missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("raw HTML in the body preview was not escaped")
	}
}

func TestAdminFormNew(t *testing.T) {
	html := render(t, AdminForm(testConfig, brandsite.Draft{Mode: poster.ModeContent}, "tok"))
	if !strings.Contains(html, `<h1>New poster</h1>`) {
		t.Error("missing new heading")
	}
	if !strings.Contains(html, `<option value="content" selected>`) {
		t.Error("content layout should be preselected")
	}
	if strings.Contains(html, "clear_background") || strings.Contains(html, "Body preview") {
		t.Error("new form shows controls for stored data")
	}
}

func TestAdminDashboard(t *testing.T) {
	drafts := []brandsite.Draft{
		{ID: "d1", Slug: "one", Title: "One", Mode: poster.ModeCover, Published: true, UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "d2", Slug: "two", Title: "Two", Mode: poster.ModeContent},
	}
	html := render(t, AdminDashboard(testConfig, drafts, "saved", "tok"))
	for _, want := range []string{
		`<p class="flash">saved</p>`,
		`href="/admin/draft/d1/"`,
		`data-delete="/admin/draft/d2/"`,
		`Mar 1, 2026`,
		`/admin/drafts/subscribe`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestFuncsBindsConfig(t *testing.T) {
	f := Funcs(testConfig)
	html := render(t, f.NotFound())
	if !strings.Contains(html, "<title>Not found · Studio</title>") {
		t.Errorf("unexpected 404 title in %q", html)
	}
	if !strings.Contains(render(t, f.AdminLogin(true, "tok")), "Wrong password.") {
		t.Error("login error not shown")
	}
}

func TestMarkdown(t *testing.T) {
	html := render(t, Markdown("# Title\n\nline one\nline two"))
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("heading not rendered: %q", html)
	}
	if !strings.Contains(html, "line one<br") {
		t.Errorf("hard wraps not applied: %q", html)
	}
}
