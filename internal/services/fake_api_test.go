package services_test

import (
	"context"
	"sync"

	"shopfront/internal/domain"
	"shopfront/internal/query"
	"shopfront/internal/shopapi"
)

// fakeAPI records calls and answers from its fields.
type fakeAPI struct {
	mu sync.Mutex

	categories []domain.Category
	products   map[string]domain.ProductList // by cfg.Encode()
	calls      map[string]int

	auth      domain.AuthData
	authErr   error
	me        domain.User
	meErr     error
	avatarRef string
	uploadErr error
	updateErr error
	uploads   []string
	updates   []domain.ProfileUpdate

	purchases []domain.Purchase
	addErr    error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{products: map[string]domain.ProductList{}, calls: map[string]int{}}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Categories(context.Context) ([]domain.Category, error) {
	f.hit("categories")
	return f.categories, nil
}

func (f *fakeAPI) Products(_ context.Context, cfg query.Config) (domain.ProductList, error) {
	f.hit("products")
	return f.products[cfg.Encode()], nil
}

func (f *fakeAPI) Product(_ context.Context, id string) (domain.Product, error) {
	f.hit("product")
	return domain.Product{ID: id}, nil
}

func (f *fakeAPI) Login(context.Context, string, string) (domain.AuthData, error) {
	f.hit("login")
	return f.auth, f.authErr
}

func (f *fakeAPI) Register(context.Context, string, string) (domain.AuthData, error) {
	f.hit("register")
	return f.auth, f.authErr
}

func (f *fakeAPI) Logout(context.Context, string) error {
	f.hit("logout")
	return nil
}

func (f *fakeAPI) Me(context.Context, string) (domain.User, error) {
	f.hit("me")
	return f.me, f.meErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, _ string, body domain.ProfileUpdate) (domain.User, string, error) {
	f.hit("update")
	f.mu.Lock()
	f.updates = append(f.updates, body)
	f.mu.Unlock()
	if f.updateErr != nil {
		return domain.User{}, "", f.updateErr
	}
	u := f.me
	u.Name, u.Phone, u.Address, u.Avatar = body.Name, body.Phone, body.Address, body.Avatar
	return u, "Cập nhật thành công", nil
}

func (f *fakeAPI) UploadAvatar(_ context.Context, _ string, filename string, _ []byte) (string, error) {
	f.hit("upload")
	f.mu.Lock()
	f.uploads = append(f.uploads, filename)
	f.mu.Unlock()
	return f.avatarRef, f.uploadErr
}

func (f *fakeAPI) Purchases(context.Context, string, int) ([]domain.Purchase, error) {
	f.hit("purchases")
	return f.purchases, nil
}

func (f *fakeAPI) AddToCart(_ context.Context, _ string, productID string, count int) (domain.Purchase, error) {
	f.hit("add")
	if f.addErr != nil {
		return domain.Purchase{}, f.addErr
	}
	return domain.Purchase{ID: "pc1", BuyCount: count, Product: domain.Product{ID: productID}}, nil
}

var unprocessable = &shopapi.UnprocessableEntityError{Message: "Error", Fields: map[string]string{"phone": "Số điện thoại không hợp lệ"}}
