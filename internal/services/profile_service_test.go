package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/cache"
	"shopfront/internal/domain"
	"shopfront/internal/services"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
	"shopfront/internal/validate"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func signedIn(t *testing.T, profile domain.User) (*session.Store, string) {
	t.Helper()
	store := session.NewStore()
	require.NoError(t, store.Set(context.Background(), "sid", session.State{Authenticated: true, Token: "tok", Profile: &profile}))
	return store, "sid"
}

func newProfileService(api *fakeAPI, store *session.Store) *services.ProfileService {
	s := services.NewProfileService(api, store, cache.New())
	s.Now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestUpdateWithoutFileReusesAvatar(t *testing.T) {
	api := newFakeAPI()
	store, sid := signedIn(t, domain.User{ID: "u1", Avatar: "old.png"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{
		Form: validate.ProfileForm{Name: "Alice", Avatar: "old.png", DateOfBirth: "1990-05-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, services.StepSucceeded, out.Step)
	assert.Equal(t, []services.Step{services.StepIdle, services.StepProfileUpdating, services.StepSucceeded}, out.Trace)
	assert.Zero(t, api.count("upload"))
	require.Len(t, api.updates, 1)
	assert.Equal(t, "old.png", api.updates[0].Avatar)
	assert.Equal(t, "1990-05-01T00:00:00Z", api.updates[0].DateOfBirth)
}

func TestUpdateWithoutFileFallsBackToSessionAvatar(t *testing.T) {
	api := newFakeAPI()
	store, sid := signedIn(t, domain.User{ID: "u1", Avatar: "kept.png"})
	svc := newProfileService(api, store)

	_, err := svc.Update(context.Background(), sid, services.ProfileInput{Form: validate.ProfileForm{Name: "Alice"}})
	require.NoError(t, err)
	assert.Equal(t, "kept.png", api.updates[0].Avatar)
}

func TestUpdateWithFileSendsUploadedReference(t *testing.T) {
	api := newFakeAPI()
	api.avatarRef = "new-ref.png"
	store, sid := signedIn(t, domain.User{ID: "u1", Avatar: "old.png"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{
		Form: validate.ProfileForm{Name: "Alice", Avatar: "old.png"},
		File: &services.AvatarFile{Name: "me.png", Size: int64(len(png)), Content: png},
	})
	require.NoError(t, err)
	assert.Equal(t, []services.Step{
		services.StepIdle, services.StepAvatarUploading, services.StepProfileUpdating, services.StepSucceeded,
	}, out.Trace)
	assert.Equal(t, []string{"me.png"}, api.uploads)
	assert.Equal(t, "new-ref.png", api.updates[0].Avatar)

	// the session copy carries the new profile
	assert.Equal(t, "new-ref.png", store.Get(sid).Profile.Avatar)
	assert.Equal(t, "Alice", store.Get(sid).Profile.Name)
}

func TestUpdateFailedUploadSkipsProfileCall(t *testing.T) {
	api := newFakeAPI()
	api.uploadErr = &shopapi.StatusError{Code: 500}
	store, sid := signedIn(t, domain.User{ID: "u1"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{
		Form: validate.ProfileForm{Name: "Alice"},
		File: &services.AvatarFile{Name: "me.png", Size: int64(len(png)), Content: png},
	})
	require.Error(t, err)
	assert.Equal(t, services.StepFailed, out.Step)
	assert.Zero(t, api.count("update"))
}

func TestUpdateMapsServerFieldErrors(t *testing.T) {
	api := newFakeAPI()
	api.updateErr = unprocessable
	store, sid := signedIn(t, domain.User{ID: "u1", Name: "Before"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{Form: validate.ProfileForm{Name: "Alice", Phone: "12"}})
	require.NoError(t, err)
	assert.Equal(t, services.StepFieldErrors, out.Step)
	assert.Equal(t, "Số điện thoại không hợp lệ", out.Errors.Field("phone"))
	assert.Equal(t, "Before", store.Get(sid).Profile.Name, "session untouched")
}

func TestUpdateValidatesBeforeNetwork(t *testing.T) {
	api := newFakeAPI()
	store, sid := signedIn(t, domain.User{ID: "u1"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{
		Form: validate.ProfileForm{DateOfBirth: "2099-01-01"},
		File: &services.AvatarFile{Name: "x.txt", Size: 5, Content: []byte("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, services.StepFieldErrors, out.Step)
	assert.True(t, out.Errors.Has("date_of_birth"))
	assert.True(t, out.Errors.Has("avatar"))
	assert.Zero(t, api.count("upload")+api.count("update"))
}

func TestUpdateUnauthorizedResetsSession(t *testing.T) {
	api := newFakeAPI()
	api.updateErr = shopapi.ErrUnauthorized
	store, sid := signedIn(t, domain.User{ID: "u1"})
	svc := newProfileService(api, store)

	out, err := svc.Update(context.Background(), sid, services.ProfileInput{Form: validate.ProfileForm{Name: "A"}})
	assert.True(t, errors.Is(err, shopapi.ErrUnauthorized))
	assert.Equal(t, services.StepFailed, out.Step)
	assert.False(t, store.Get(sid).Authenticated)
}

func TestUpdateSignedOut(t *testing.T) {
	svc := newProfileService(newFakeAPI(), session.NewStore())
	_, err := svc.Update(context.Background(), "nobody", services.ProfileInput{})
	assert.ErrorIs(t, err, services.ErrSignedOut)
}

func TestProfileIsCachedUntilUpdate(t *testing.T) {
	api := newFakeAPI()
	api.me = domain.User{ID: "u1", Name: "Alice"}
	store, sid := signedIn(t, api.me)
	svc := newProfileService(api, store)
	ctx := context.Background()

	_, err := svc.Profile(ctx, sid)
	require.NoError(t, err)
	_, _ = svc.Profile(ctx, sid)
	assert.Equal(t, 1, api.count("me"))

	_, err = svc.Update(ctx, sid, services.ProfileInput{Form: validate.ProfileForm{Name: "Bob"}})
	require.NoError(t, err)
	_, _ = svc.Profile(ctx, sid)
	assert.Equal(t, 2, api.count("me"), "update invalidates the profile entry")
}

func TestChangePassword(t *testing.T) {
	api := newFakeAPI()
	store, sid := signedIn(t, domain.User{ID: "u1"})
	svc := newProfileService(api, store)
	ctx := context.Background()

	r, _, err := svc.ChangePassword(ctx, sid, "oldpass", "newpass", "mismatch")
	require.NoError(t, err)
	assert.True(t, r.Has("confirm_password"))
	assert.Zero(t, api.count("update"))

	r, msg, err := svc.ChangePassword(ctx, sid, "oldpass", "newpass", "newpass")
	require.NoError(t, err)
	assert.True(t, r.Valid())
	assert.NotEmpty(t, msg)
	assert.Equal(t, "newpass", api.updates[0].NewPassword)

	api.updateErr = &shopapi.UnprocessableEntityError{Fields: map[string]string{"password": "Mật khẩu không đúng"}}
	r, _, err = svc.ChangePassword(ctx, sid, "wrong1", "newpass", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "Mật khẩu không đúng", r.Field("password"))
}
