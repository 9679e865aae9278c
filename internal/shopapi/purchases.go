package shopapi

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
)

func (c *Client) Purchases(ctx context.Context, token string, status int) ([]domain.Purchase, error) {
	var res domain.SuccessResponse[[]domain.Purchase]
	err := c.do(ctx, request{
		method: fiber.MethodGet,
		path:   "purchases",
		query:  "status=" + strconv.Itoa(status),
		token:  token,
	}, &res)
	return res.Data, err
}

type addToCart struct {
	ProductID string `json:"product_id"`
	BuyCount  int    `json:"buy_count"`
}

func (c *Client) AddToCart(ctx context.Context, token, productID string, count int) (domain.Purchase, error) {
	var res domain.SuccessResponse[domain.Purchase]
	err := c.do(ctx, request{
		method: fiber.MethodPost,
		path:   "purchases/add-to-cart",
		token:  token,
		body:   addToCart{ProductID: productID, BuyCount: count},
	}, &res)
	return res.Data, err
}
