package shopapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthData, error) {
	var res domain.SuccessResponse[domain.AuthData]
	err := c.do(ctx, request{method: fiber.MethodPost, path: "login", body: credentials{email, password}}, &res)
	return res.Data, err
}

func (c *Client) Register(ctx context.Context, email, password string) (domain.AuthData, error) {
	var res domain.SuccessResponse[domain.AuthData]
	err := c.do(ctx, request{method: fiber.MethodPost, path: "register", body: credentials{email, password}}, &res)
	return res.Data, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{method: fiber.MethodPost, path: "logout", token: token}, nil)
}

func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var res domain.SuccessResponse[domain.User]
	err := c.do(ctx, request{method: fiber.MethodGet, path: "me", token: token}, &res)
	return res.Data, err
}

// UpdateProfile returns the stored user and the API's confirmation message.
func (c *Client) UpdateProfile(ctx context.Context, token string, body domain.ProfileUpdate) (domain.User, string, error) {
	var res domain.SuccessResponse[domain.User]
	err := c.do(ctx, request{method: fiber.MethodPut, path: "user", token: token, body: body}, &res)
	return res.Data, res.Message, err
}

// UploadAvatar sends the file as multipart field "image" and returns the
// reference to store in the profile's avatar.
func (c *Client) UploadAvatar(ctx context.Context, token, filename string, content []byte) (string, error) {
	var res domain.SuccessResponse[string]
	err := c.do(ctx, request{
		method: fiber.MethodPost,
		path:   "user/upload-avatar",
		token:  token,
		file:   &fiber.FormFile{Fieldname: "image", Name: filename, Content: content},
	}, &res)
	return res.Data, err
}
