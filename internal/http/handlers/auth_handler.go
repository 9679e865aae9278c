package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type AuthHandler struct {
	renderer
	Auth         *services.AuthService
	CookieSecure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return h.render(c, "login", fiber.Map{"Errors": validate.Result{}})
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return h.render(c, "register", fiber.Map{"Errors": validate.Result{}})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c, h.CookieSecure)
	email := c.FormValue("email")
	r, err := h.Auth.Login(c.UserContext(), sid, email, c.FormValue("password"))
	return h.done(c, "login", "auth.login", email, r, err)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := ensureSID(c, h.CookieSecure)
	email := c.FormValue("email")
	r, err := h.Auth.Register(c.UserContext(), sid, email, c.FormValue("password"), c.FormValue("confirm_password"))
	return h.done(c, "register", "auth.register", email, r, err)
}

func (h *AuthHandler) done(c *fiber.Ctx, tmpl, action, email string, r validate.Result, err error) error {
	data := fiber.Map{"Email": email, "Errors": r}
	if err != nil {
		log.Error(c, action+".error", err, map[string]any{"email": email})
		data["Err"] = h.t(c, "error.generic")
		return h.render(c.Status(fiber.StatusBadGateway), tmpl, data)
	}
	if !r.Valid() {
		log.Security(c, action+".fail", map[string]any{"email": email, "fields": r.Map()})
		status := fiber.StatusBadRequest
		if r.Errors[0].Code == validate.CodeServer {
			status = fiber.StatusUnprocessableEntity
		}
		return h.render(c.Status(status), tmpl, data)
	}
	log.Audit(c, action+".success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies(SIDCookie)
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.error", err, nil)
		}
	}
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     SIDCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/login")
}
