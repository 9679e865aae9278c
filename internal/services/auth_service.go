package services

import (
	"context"
	"errors"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
	"shopfront/internal/validate"
)

type AuthService struct {
	API      UserAPI
	Sessions *session.Store
}

func NewAuthService(api UserAPI, sessions *session.Store) *AuthService {
	return &AuthService{API: api, Sessions: sessions}
}

// Login signs sid in. Invalid input and 422 answers come back as a non-valid
// Result with a nil error.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (validate.Result, error) {
	if r := validate.Login(email, password); !r.Valid() {
		return r, nil
	}
	data, err := s.API.Login(ctx, email, password)
	return s.signIn(ctx, sid, data, err)
}

func (s *AuthService) Register(ctx context.Context, sid, email, password, confirm string) (validate.Result, error) {
	if r := validate.Register(email, password, confirm); !r.Valid() {
		return r, nil
	}
	data, err := s.API.Register(ctx, email, password)
	return s.signIn(ctx, sid, data, err)
}

func (s *AuthService) signIn(ctx context.Context, sid string, data domain.AuthData, err error) (validate.Result, error) {
	if fields, ok := shopapi.FieldErrors(err); ok {
		return validate.Server(fields), nil
	}
	if err != nil {
		return validate.Result{}, err
	}
	user := data.User
	st := session.State{Authenticated: true, Token: data.AccessToken, Profile: &user}
	if exp, ok := session.TokenExpiry(data.AccessToken); ok {
		st.ExpiresAt = exp
	} else if data.Expires > 0 {
		st.ExpiresAt = time.Now().Add(time.Duration(data.Expires) * time.Second)
	}
	return validate.Result{}, s.Sessions.Set(ctx, sid, st)
}

// Logout tells the API and clears the session. The session is cleared even
// when the API call fails.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	st := s.Sessions.Get(sid)
	var apiErr error
	if st.Authenticated {
		apiErr = s.API.Logout(ctx, st.Token)
		if errors.Is(apiErr, shopapi.ErrUnauthorized) {
			apiErr = nil
		}
	}
	if err := s.Sessions.Reset(ctx, sid, "logout"); err != nil {
		return err
	}
	return apiErr
}
