package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"shopfront/internal/config"
	"shopfront/internal/domain"
	"shopfront/internal/http/handlers"
	"shopfront/internal/i18n"
	"shopfront/internal/repos"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
)

const (
	templatesDir = "../../web/templates"
	localesDir   = "../../web/locales"
	staticDir    = "../../web/static"
)

// fakeShop plays the remote shop API.
type fakeShop struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]int
	uploads  []string
	updates  []domain.ProfileUpdate
	added    []map[string]any
	user     domain.User
	products []domain.Product
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		calls: map[string]int{},
		fail:  map[string]int{},
		user: domain.User{
			ID: "u1", Email: "alice@shop.test", Name: "Alice",
			Avatar: "old.png", DateOfBirth: "1990-01-01T00:00:00.000Z",
		},
		products: []domain.Product{
			{ID: "p1", Name: "Áo thun nam", Image: "p1.jpg", Price: 100000, PriceBeforeDiscount: 150000, Rating: 4.5, Quantity: 10, Sold: 12, Category: domain.Category{ID: "c1", Name: "Áo"}},
			{ID: "p2", Name: "Quần jean", Image: "p2.jpg", Price: 250000, PriceBeforeDiscount: 250000, Rating: 3, Quantity: 5, Sold: 3, Category: domain.Category{ID: "c1", Name: "Áo"}},
		},
	}
}

func (f *fakeShop) failWith(path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = code
}

func (f *fakeShop) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func accessToken(ttl time.Duration) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte("test"))
	return "Bearer " + tok
}

func reply(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": message, "data": data})
}

func (f *fakeShop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	f.calls[path]++
	if code, ok := f.fail[path]; ok {
		reply(w, code, "sql: connection refused at 10.0.0.7 password=hunter2", nil)
		return
	}

	switch {
	case path == "/categories":
		reply(w, 200, "ok", []domain.Category{{ID: "c1", Name: "Áo"}, {ID: "c2", Name: "Quần"}})
	case path == "/products":
		reply(w, 200, "ok", domain.ProductList{
			Products:   f.products,
			Pagination: domain.Pagination{Page: 1, Limit: 20, PageSize: 3},
		})
	case strings.HasPrefix(path, "/products/"):
		id := strings.TrimPrefix(path, "/products/")
		for _, p := range f.products {
			if p.ID == id {
				reply(w, 200, "ok", p)
				return
			}
		}
		reply(w, 404, "Không tìm thấy sản phẩm", nil)
	case path == "/login", path == "/register":
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email == "taken@shop.test" {
			reply(w, 422, "Lỗi", map[string]any{"email": map[string]any{"msg": "Email đã tồn tại"}})
			return
		}
		if body.Password == "wrongpass" {
			reply(w, 422, "Lỗi", map[string]any{"password": "Email hoặc password không đúng"})
			return
		}
		u := f.user
		u.Email = body.Email
		reply(w, 200, "Đăng nhập thành công", domain.AuthData{AccessToken: accessToken(time.Hour), Expires: 3600, User: u})
	case path == "/logout":
		reply(w, 200, "Đăng xuất thành công", nil)
	case path == "/me":
		reply(w, 200, "ok", f.user)
	case path == "/user/upload-avatar":
		_, fh, err := r.FormFile("image")
		if err != nil {
			reply(w, 422, "Lỗi", map[string]any{"image": "missing"})
			return
		}
		name := "up-" + fh.Filename
		f.uploads = append(f.uploads, name)
		reply(w, 200, "Upload ảnh thành công", name)
	case path == "/user" && r.Method == http.MethodPut:
		var up domain.ProfileUpdate
		_ = json.NewDecoder(r.Body).Decode(&up)
		if up.Phone == "0000000000" {
			reply(w, 422, "Lỗi", map[string]any{"phone": "Số điện thoại không hợp lệ"})
			return
		}
		f.updates = append(f.updates, up)
		f.user.Name, f.user.Phone, f.user.Address, f.user.Avatar = up.Name, up.Phone, up.Address, up.Avatar
		if up.DateOfBirth != "" {
			f.user.DateOfBirth = up.DateOfBirth
		}
		reply(w, 200, "Cập nhật người dùng thành công", f.user)
	case path == "/purchases":
		reply(w, 200, "ok", []domain.Purchase{
			{ID: "b1", BuyCount: 2, Price: 100000, PriceBeforeDiscount: 150000, Status: -1, Product: f.products[0]},
			{ID: "b2", BuyCount: 1, Price: 250000, PriceBeforeDiscount: 250000, Status: -1, Product: f.products[1]},
		})
	case path == "/purchases/add-to-cart":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.added = append(f.added, body)
		reply(w, 200, "Thêm sản phẩm vào giỏ hàng thành công", domain.Purchase{ID: "b9", Status: -1})
	default:
		reply(w, 404, "not found", nil)
	}
}

type harness struct {
	t     *testing.T
	app   *fiber.App
	shop  *fakeShop
	store *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	shop := newFakeShop()
	srv := httptest.NewServer(shop)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		DBDSN:        ":memory:",
		StaticDir:    staticDir,
		DefaultLang:  "vi",
		ProductStale: time.Minute,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sealer, err := session.NewSealer("")
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewStore(session.WithPersister(repos.NewSessionRepo(db), sealer))
	bundle, err := i18n.Load(localesDir, cfg.DefaultLang)
	if err != nil {
		t.Fatalf("locales: %v", err)
	}
	deps := handlers.NewDeps(db, cfg, shopapi.New(srv.URL, 0), store, bundle)
	app := handlers.NewApp(deps, handlers.Views(templatesDir, bundle, false))
	return &harness{t: t, app: app, shop: shop, store: store}
}

// signIn stores an authenticated session and returns its sid.
func (h *harness) signIn() string {
	h.t.Helper()
	u := h.shop.user
	err := h.store.Set(context.Background(), "sid-alice", session.State{
		Authenticated: true,
		Token:         accessToken(time.Hour),
		Profile:       &u,
		ExpiresAt:     time.Now().Add(time.Hour),
	})
	if err != nil {
		h.t.Fatal(err)
	}
	return "sid-alice"
}

func (h *harness) do(req *http.Request) *http.Response {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	return resp
}

func (h *harness) get(path string, cookies ...*http.Cookie) *http.Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return h.do(req)
}

// csrf fetches a token the way a browser would: any GET sets the cookie.
func (h *harness) csrf() string {
	h.t.Helper()
	resp := h.get("/healthz")
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			return c.Value
		}
	}
	h.t.Fatal("csrf cookie missing")
	return ""
}

func (h *harness) post(path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	tok := h.csrf()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", tok)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return h.do(req)
}

func sidCookie(sid string) *http.Cookie { return &http.Cookie{Name: "sid", Value: sid} }

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func cookieValue(resp *http.Response, name string) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
