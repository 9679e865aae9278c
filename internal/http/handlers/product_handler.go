package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/query"
	"shopfront/internal/services"
	"shopfront/internal/shopapi"
	"shopfront/internal/validate"
)

type ProductHandler struct {
	renderer
	Catalog *services.CatalogService
}

func requestConfig(c *fiber.Ctx) query.Config {
	return query.FromQueryString(string(c.Request().URI().QueryString()))
}

// List is the home page: product grid, sort bar and the filter aside.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	cfg := requestConfig(c)
	return h.list(c, cfg, cfg.Get(query.PriceMin), cfg.Get(query.PriceMax), validate.Result{})
}

func (h *ProductHandler) list(c *fiber.Ctx, cfg query.Config, priceMin, priceMax string, errs validate.Result) error {
	var (
		cats []domain.Category
		list domain.ProductList
	)
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		var err error
		cats, err = h.Catalog.Categories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		list, err = h.Catalog.Products(ctx, cfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if !errs.Valid() {
		c.Status(fiber.StatusBadRequest)
	}
	return h.render(c, "home", fiber.Map{
		"Aside":    buildAside(cfg, cats, priceMin, priceMax, errs),
		"Sort":     buildSort(cfg, list.Pagination.PageSize),
		"Pages":    buildPages(cfg, list.Pagination.PageSize),
		"Products": cards(list.Products),
		"Name":     cfg.Get(query.Name),
	})
}

// Detail is /product/:nameid where nameid ends in "-i-<id>".
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(domain.IDFromNameID(c.Params("nameid")))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return h.notFound(c)
	}
	p, err := h.Catalog.Product(c.UserContext(), id)
	if errors.Is(err, shopapi.ErrNotFound) || (err == nil && p.ID == "") {
		return h.notFound(c)
	}
	if err != nil {
		return err
	}
	related, err := h.Catalog.Related(c.UserContext(), p)
	if err != nil {
		applog.Error(c, "product.related.error", err, map[string]any{"product": id})
	}
	return h.render(c, "product", fiber.Map{
		"P":       p,
		"Related": cards(related),
		"MaxQty":  min(p.Quantity, services.MaxBuyCount),
	})
}
