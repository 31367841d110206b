package brandsite

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/brandsite/poster"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminDraft(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id := c.Param("id")
	if id == "new" {
		return Render(c, a.Views.AdminForm(Draft{Mode: poster.ModeContent}, CsrfToken(c)))
	}
	d, err := a.Store.GetDraft(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return Render(c, a.Views.AdminForm(d, CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if checkPassword(c.FormValue("password"), a.Config.AdminPassword) {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

// checkPassword compares given against the configured admin password, which
// may be a bcrypt hash or plain text.
func checkPassword(given, configured string) bool {
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(configured)) == 1
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func adminRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	d := Draft{}
	if id := strings.TrimSpace(c.FormValue("id")); id != "" {
		existing, err := a.Store.GetDraft(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return adminRedirect(c, "Draft no longer exists.")
			}
			return err
		}
		d = existing
	}

	mode, err := poster.ParseMode(c.FormValue("mode"))
	if err != nil {
		return adminRedirect(c, "Unknown poster type.")
	}
	d.Mode = mode
	d.Title = strings.TrimSpace(c.FormValue("title"))
	d.Subtitle = strings.TrimSpace(c.FormValue("subtitle"))
	d.Body = strings.ReplaceAll(c.FormValue("body"), "\r\n", "\n")
	d.Published = c.FormValue("published") != ""

	d.Slug = Slugify(c.FormValue("slug"))
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
	if d.Slug == "" {
		// Titles in scripts Slugify drops still need a stable slug.
		d.Slug = "poster-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}

	if err := d.Request().Validate(); err != nil {
		return adminRedirect(c, err.Error())
	}

	if c.FormValue("clear_background") != "" {
		d.Background = ""
	}
	if file, err := c.FormFile("background"); err == nil {
		uri, err := uploadedImage(file)
		if err != nil {
			return adminRedirect(c, "Invalid background: "+err.Error())
		}
		d.Background = uri
	}

	if c.FormValue("clear_images") != "" {
		d.Images = nil
	}
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["images"]
		var positions []string
		for _, v := range form.Value["positions"] {
			positions = append(positions, strings.Split(v, ",")...)
		}
		for i, file := range files {
			uri, err := uploadedImage(file)
			if err != nil {
				return adminRedirect(c, "Invalid image: "+err.Error())
			}
			pos := 0
			if i < len(positions) {
				pos, _ = strconv.Atoi(strings.TrimSpace(positions[i]))
			}
			d.Images = append(d.Images, poster.Image{Data: uri, Position: pos})
		}
	}

	saved, event, err := a.Store.SaveDraft(d)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return adminRedirect(c, "Slug "+d.Slug+" is already used by another draft.")
		}
		return err
	}
	a.Cache.Invalidate()
	a.Hub.Publish(DraftEvent{Event: event, Draft: saved.Summary()})
	return a.renderAdminDashboard(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	d, err := a.Store.GetDraft(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	if err := a.Store.DeleteDraft(d.ID); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.Hub.Publish(DraftEvent{Event: EventDelete, Draft: d.Summary()})
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	drafts, err := a.Store.ListDrafts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(drafts, msg, CsrfToken(c)))
}
