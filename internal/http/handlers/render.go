package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	"shopfront/internal/i18n"
)

// Locals keys set by the middleware in this package.
const (
	localUser = "user"
	localLang = "lang"
)

func lang(c *fiber.Ctx) string {
	l, _ := c.Locals(localLang).(string)
	return l
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localUser).(*domain.User)
	return u
}

type renderer struct {
	i18n *i18n.Bundle
}

func (r renderer) t(c *fiber.Ctx, key string, args ...any) string {
	return r.i18n.T(lang(c), key, args...)
}

func (r renderer) render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if tok := c.Cookies("csrf_"); tok != "" {
		data["CSRFToken"] = tok
	}
	data["Lang"] = lang(c)
	data["Languages"] = r.i18n.Languages()
	data["Path"] = string(c.Request().URI().RequestURI())
	return c.Render(tmpl, data)
}

// notFound renders the friendly 404 page.
func (r renderer) notFound(c *fiber.Ctx) error {
	return r.render(c.Status(fiber.StatusNotFound), "notfound", fiber.Map{"Message": r.t(c, "error.not_found")})
}
