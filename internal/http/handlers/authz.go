package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shopfront/internal/i18n"
	applog "shopfront/internal/log"
	"shopfront/internal/session"
)

// SIDCookie identifies the browser session.
const SIDCookie = "sid"

func ensureSID(c *fiber.Ctx, secure bool) string {
	sid := c.Cookies(SIDCookie)
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     SIDCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   secure,
		})
	}
	return sid
}

func active(store *session.Store, c *fiber.Ctx) bool {
	sid := c.Cookies(SIDCookie)
	return sid != "" && store.Get(sid).Active(time.Now())
}

// AttachSession puts the signed-in user into Locals for templates and logs.
// A session whose token expired is reset here.
func AttachSession(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(SIDCookie)
		if sid == "" {
			return c.Next()
		}
		st := store.Get(sid)
		if st.Authenticated && !st.Active(time.Now()) {
			applog.Security(c, "session.expired", nil)
			if err := store.Reset(c.UserContext(), sid, "expired"); err != nil {
				applog.Error(c, "session.reset.error", err, nil)
			}
			return c.Next()
		}
		if st.Authenticated {
			c.Locals(localUser, st.Profile)
			c.Locals("user_id", st.UserID())
		}
		return c.Next()
	}
}

// RequireUser lets the request through only with a signed-in session;
// otherwise it redirects to the login page.
func RequireUser(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !active(store, c) {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// RejectUser is the inverse gate for login and register: signed-in
// sessions go home.
func RejectUser(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if active(store, c) {
			return c.Redirect("/")
		}
		return c.Next()
	}
}

// Language picks the UI language from the lng cookie or Accept-Language.
func Language(b *i18n.Bundle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localLang, b.Match(c.Cookies(i18n.CookieName), c.Get(fiber.HeaderAcceptLanguage)).String())
		return c.Next()
	}
}
