package shopapi

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	"shopfront/internal/query"
)

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var res domain.SuccessResponse[[]domain.Category]
	if err := c.do(ctx, request{method: fiber.MethodGet, path: "categories"}, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Products forwards the query config as-is; the API owns the meaning of its values.
func (c *Client) Products(ctx context.Context, cfg query.Config) (domain.ProductList, error) {
	var res domain.SuccessResponse[domain.ProductList]
	err := c.do(ctx, request{method: fiber.MethodGet, path: "products", query: cfg.Encode()}, &res)
	return res.Data, err
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var res domain.SuccessResponse[domain.Product]
	err := c.do(ctx, request{method: fiber.MethodGet, path: "products/" + url.PathEscape(id)}, &res)
	return res.Data, err
}
