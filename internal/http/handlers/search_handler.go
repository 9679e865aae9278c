package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/query"
	"shopfront/internal/validate"
)

// FilterHandler turns filter form submissions into list URLs. It keeps no
// state: each action reads the current config and redirects to a new one.
type FilterHandler struct {
	List *ProductHandler
}

// Search sets the name filter. Sorting is reset to the default so the best
// matches come first.
func (h *FilterHandler) Search(c *fiber.Ctx) error {
	cfg := requestConfig(c)
	raw := c.Query(query.Name)
	if raw == "" {
		return c.Redirect(cfg.Omit(query.Name).Href("/"))
	}
	name, ok := validate.Q(raw)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Redirect(cfg.Omit(query.Name).Href("/"))
	}
	return c.Redirect(cfg.Omit(query.SortBy, query.Order).With(query.Page, query.DefaultPage).With(query.Name, name).Href("/"))
}

// Price validates the min/max pair. An invalid pair re-renders the list with
// the error on both fields; a valid one is merged into the current config.
func (h *FilterHandler) Price(c *fiber.Ctx) error {
	cfg := query.FromQueryString(c.FormValue("q"))
	min, max := strings.TrimSpace(c.FormValue(query.PriceMin)), strings.TrimSpace(c.FormValue(query.PriceMax))
	if r := validate.PriceFilter(min, max); !r.Valid() {
		return h.List.list(c, cfg, min, max, r)
	}
	return c.Redirect(cfg.Merge(map[string]string{query.PriceMin: min, query.PriceMax: max}).Href("/"))
}

// Clear drops price, rating and category and keeps the rest.
func (h *FilterHandler) Clear(c *fiber.Ctx) error {
	return c.Redirect(requestConfig(c).ClearFilters().Href("/"))
}
