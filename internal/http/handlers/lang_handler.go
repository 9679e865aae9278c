package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/i18n"
	"shopfront/internal/log"
)

type LangHandler struct {
	I18n         *i18n.Bundle
	CookieSecure bool
}

// Switch stores the chosen language and goes back to next. Only local paths
// are accepted as next.
func (h *LangHandler) Switch(c *fiber.Ctx) error {
	lng := c.Query("lng")
	next := c.Query("next", "/")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		log.Security(c, "lang.next.block", map[string]any{"next": next})
		next = "/"
	}
	if !h.I18n.Supported(lng) {
		return c.Redirect(next)
	}
	c.Cookie(&fiber.Cookie{
		Name:     i18n.CookieName,
		Value:    lng,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
	})
	return c.Redirect(next)
}
