package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
)

// Client talks to the remote shop API. Requests are never retried; there is no
// timeout unless one is configured or the context has a deadline.
type Client struct {
	baseURL string
	timeout time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

type request struct {
	method string
	path   string
	query  string
	token  string
	body   any
	file   *fiber.FormFile
}

func (c *Client) agent(r request) *fiber.Agent {
	uri := c.baseURL + "/" + strings.TrimLeft(r.path, "/")
	if r.query != "" {
		uri += "?" + r.query
	}
	var a *fiber.Agent
	switch r.method {
	case fiber.MethodPost:
		a = fiber.Post(uri)
	case fiber.MethodPut:
		a = fiber.Put(uri)
	default:
		a = fiber.Get(uri)
	}
	a.RetryIf(func(*fiber.Request) bool { return false })
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if r.token != "" {
		a.Set(fiber.HeaderAuthorization, bearer(r.token))
	}
	switch {
	case r.file != nil:
		a.FileData(r.file).MultipartForm(nil)
	case r.body != nil:
		a.JSON(r.body)
	}
	return a
}

func bearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	d := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); d == 0 || left < d {
			d = left
		}
	}
	return d
}

// do sends r and decodes a successful body into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a := c.agent(r)
	if d := c.timeoutFor(ctx); d > 0 {
		a.Timeout(d)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("shopapi: %s %s: %w", r.method, r.path, errors.Join(errs...))
	}
	if err := statusError(code, body); err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("shopapi: decode %s: %w", r.path, err)
	}
	return nil
}

func statusError(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	var env domain.ErrorResponse[json.RawMessage]
	_ = json.Unmarshal(body, &env)
	switch code {
	case fiber.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	case fiber.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	case fiber.StatusUnprocessableEntity:
		var data map[string]any
		_ = json.Unmarshal(env.Data, &data)
		return &UnprocessableEntityError{Message: env.Message, Fields: fieldMessages(data)}
	}
	return &StatusError{Code: code, Message: env.Message}
}
