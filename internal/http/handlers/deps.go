package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/i18n"
	"shopfront/internal/services"
	"shopfront/internal/session"
)

// API is the shop API surface the handlers need.
type API interface {
	services.CatalogAPI
	services.UserAPI
	services.PurchaseAPI
}

type Deps struct {
	Config   config.Config
	Sessions *session.Store
	I18n     *i18n.Bundle

	ProductHandler *ProductHandler
	FilterHandler  *FilterHandler
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	CartHandler    *CartHandler
	LangHandler    *LangHandler
	HealthHandler  *HealthHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, api API, sessions *session.Store, bundle *i18n.Bundle) *Deps {
	c := cache.New()
	r := renderer{i18n: bundle}

	catalogSvc := services.NewCatalogService(api, c, cfg.ProductStale)
	authSvc := services.NewAuthService(api, sessions)
	profileSvc := services.NewProfileService(api, sessions, c)
	cartSvc := services.NewCartService(api, sessions, c)

	products := &ProductHandler{renderer: r, Catalog: catalogSvc}
	return &Deps{
		Config:         cfg,
		Sessions:       sessions,
		I18n:           bundle,
		ProductHandler: products,
		FilterHandler:  &FilterHandler{List: products},
		AuthHandler:    &AuthHandler{renderer: r, Auth: authSvc, CookieSecure: cfg.CookieSecure},
		ProfileHandler: &ProfileHandler{renderer: r, Profile: profileSvc},
		CartHandler:    &CartHandler{renderer: r, Cart: cartSvc},
		LangHandler:    &LangHandler{I18n: bundle, CookieSecure: cfg.CookieSecure},
		HealthHandler:  &HealthHandler{DB: db, Sessions: sessions},
	}
}
