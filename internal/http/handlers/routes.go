package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"shopfront/internal/i18n"
	applog "shopfront/internal/log"
	"shopfront/internal/validate"
)

// Views builds the template engine with the helpers the pages use.
func Views(dir string, b *i18n.Bundle, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.Reload(reload)
	engine.AddFuncMap(map[string]any{
		"t":   b.T,
		"num": b.Number,
		// ferr renders the error for field, or "".
		"ferr": func(lang string, r validate.Result, field string) string {
			e, ok := r.Lookup(field)
			if !ok {
				return ""
			}
			return b.FieldError(lang, e)
		},
		"stars": func(rating float64) []bool {
			out := make([]bool, 5)
			for i := range out {
				out[i] = float64(i) < rating
			}
			return out
		},
	})
	return engine
}

// NewApp wires middleware and routes. Panics and unhandled errors end in
// the friendly error page; nothing internal reaches the browser.
func NewApp(d *Deps, views fiber.Views) *fiber.App {
	r := renderer{i18n: d.I18n}
	app := fiber.New(fiber.Config{
		Views:        views,
		BodyLimit:    2 << 20,
		ErrorHandler: errorHandler(r),
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(Language(d.I18n))
	app.Use(AttachSession(d.Sessions))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || p == "/healthz"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   d.Config.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return r.render(c.Status(fiber.StatusForbidden), "error", fiber.Map{"Message": r.t(c, "error.csrf")})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", d.Config.StaticDir)

	Mount(app, d)

	app.Use(func(c *fiber.Ctx) error { return r.notFound(c) })
	return app
}

// Mount registers the page routes.
func Mount(app *fiber.App, d *Deps) {
	guest := RejectUser(d.Sessions)
	member := RequireUser(d.Sessions)
	authLimiter := func(tmpl string) fiber.Handler {
		return limiter.New(limiter.Config{
			Max:        5,
			Expiration: 10 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate."+tmpl+".hit", nil)
				return d.AuthHandler.render(c.Status(fiber.StatusTooManyRequests), tmpl, fiber.Map{
					"Errors": validate.Result{},
					"Err":    d.AuthHandler.t(c, "error.too_many"),
				})
			},
		})
	}

	// Catalog
	app.Get("/", d.ProductHandler.List)
	app.Get("/product/:nameid", d.ProductHandler.Detail)
	app.Get("/search", d.FilterHandler.Search)
	app.Post("/filter/price", d.FilterHandler.Price)
	app.Get("/filter/clear", d.FilterHandler.Clear)

	// Auth
	app.Get("/login", guest, d.AuthHandler.LoginForm)
	app.Post("/login", guest, authLimiter("login"), d.AuthHandler.Login)
	app.Get("/register", guest, d.AuthHandler.RegisterForm)
	app.Post("/register", guest, authLimiter("register"), d.AuthHandler.Register)
	app.Post("/logout", d.AuthHandler.Logout)

	// Signed-in pages
	app.Get("/cart", member, d.CartHandler.View)
	app.Post("/cart", member, d.CartHandler.Add)
	user := app.Group("/user", member)
	user.Get("/profile", d.ProfileHandler.Form)
	user.Post("/profile", d.ProfileHandler.Update)
	user.Get("/password", d.ProfileHandler.PasswordForm)
	user.Post("/password", d.ProfileHandler.ChangePassword)
	user.Get("/purchase", d.CartHandler.Purchases)

	app.Get("/lang", d.LangHandler.Switch)
	app.Get("/healthz", d.HealthHandler.Check)
}

func errorHandler(r renderer) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code == fiber.StatusNotFound {
			return r.notFound(c)
		}
		// Log and show a friendly message
		applog.Error(c, "server.error", err, map[string]any{"code": code})
		msg := r.t(c, "error.generic")
		if rerr := r.render(c.Status(code), "error", fiber.Map{"Message": msg}); rerr != nil {
			return c.Status(code).SendString(msg)
		}
		return nil
	}
}
