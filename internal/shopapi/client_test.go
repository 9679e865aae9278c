package shopapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/domain"
	"shopfront/internal/query"
	"shopfront/internal/shopapi"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestProductsForwardsQueryConfig(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		gotQuery = r.URL.RawQuery
		writeJSON(w, 200, map[string]any{
			"message": "ok",
			"data": map[string]any{
				"products":   []map[string]any{{"_id": "p1", "name": "Shirt", "price": 10}},
				"pagination": map[string]any{"page": 2, "limit": 20, "page_size": 7},
			},
		})
	}))
	defer srv.Close()

	c := shopapi.New(srv.URL+"/", 0)
	list, err := c.Products(context.Background(), query.Config{"page": "2", "limit": "20", "price_min": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "limit=20&page=2&price_min=abc", gotQuery)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Shirt", list.Products[0].Name)
	assert.Equal(t, 7, list.Pagination.PageSize)
}

func TestUnprocessableEntityCarriesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, map[string]any{
			"message": "Error",
			"data": map[string]any{
				"phone": "Phone is invalid",
				"name":  map[string]any{"msg": "Name is too long", "value": "x"},
			},
		})
	}))
	defer srv.Close()

	c := shopapi.New(srv.URL, 0)
	_, _, err := c.UpdateProfile(context.Background(), "tok", domain.ProfileUpdate{Name: "x"})
	fields, ok := shopapi.FieldErrors(err)
	require.True(t, ok, "want 422, got %v", err)
	assert.Equal(t, map[string]string{"phone": "Phone is invalid", "name": "Name is too long"}, fields)
}

func TestUnauthorizedAndBearerHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, 401, map[string]any{"message": "Token expired"})
	}))
	defer srv.Close()

	c := shopapi.New(srv.URL, 0)
	_, err := c.Me(context.Background(), "abc")
	assert.True(t, errors.Is(err, shopapi.ErrUnauthorized))
	assert.Equal(t, "Bearer abc", auth)

	_, err = c.Me(context.Background(), "Bearer xyz")
	require.Error(t, err)
	assert.Equal(t, "Bearer xyz", auth)
}

func TestNoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 500, map[string]any{"message": "boom"})
	}))
	defer srv.Close()

	c := shopapi.New(srv.URL, time.Second)
	_, err := c.Categories(context.Background())
	var se *shopapi.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUploadAvatarSendsMultipartImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/upload-avatar", r.URL.Path)
		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			writeJSON(w, 400, map[string]any{"message": "no file"})
			return
		}
		b, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(b))
		writeJSON(w, 200, map[string]any{"message": "ok", "data": "a1b2.png"})
	}))
	defer srv.Close()

	ref, err := shopapi.New(srv.URL, 0).UploadAvatar(context.Background(), "tok", "me.png", []byte("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "a1b2.png", ref)
}

func TestCanceledContextSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := shopapi.New(srv.URL, 0).Categories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
