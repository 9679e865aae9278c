package services

import (
	"context"
	"errors"

	"shopfront/internal/domain"
	"shopfront/internal/query"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
)

// The shop API as each service sees it. *shopapi.Client implements all of them.

type CatalogAPI interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context, cfg query.Config) (domain.ProductList, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

type UserAPI interface {
	Login(ctx context.Context, email, password string) (domain.AuthData, error)
	Register(ctx context.Context, email, password string) (domain.AuthData, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (domain.User, error)
	UpdateProfile(ctx context.Context, token string, body domain.ProfileUpdate) (domain.User, string, error)
	UploadAvatar(ctx context.Context, token, filename string, content []byte) (string, error)
}

type PurchaseAPI interface {
	Purchases(ctx context.Context, token string, status int) ([]domain.Purchase, error)
	AddToCart(ctx context.Context, token, productID string, count int) (domain.Purchase, error)
}

var _ interface {
	CatalogAPI
	UserAPI
	PurchaseAPI
} = (*shopapi.Client)(nil)

// ErrSignedOut is returned when an operation needs a signed-in session.
var ErrSignedOut = errors.New("not signed in")

func tokenFor(store *session.Store, sid string) (session.State, error) {
	st := store.Get(sid)
	if !st.Authenticated || st.Token == "" {
		return st, ErrSignedOut
	}
	return st, nil
}

// signOutOn401 resets the session when the API rejected its token.
func signOutOn401(ctx context.Context, store *session.Store, sid string, err error) error {
	if errors.Is(err, shopapi.ErrUnauthorized) {
		if rerr := store.Reset(ctx, sid, "unauthorized"); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}
