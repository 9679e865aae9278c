package services

import (
	"context"
	"time"

	"shopfront/internal/cache"
	"shopfront/internal/domain"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
	"shopfront/internal/validate"
)

// ProfileStale is how long a fetched profile is served without asking again.
const ProfileStale = time.Minute

// Step of a profile update.
type Step int

const (
	StepIdle Step = iota
	StepAvatarUploading
	StepProfileUpdating
	StepSucceeded
	StepFieldErrors
	StepFailed
)

var stepNames = [...]string{"idle", "avatar-uploading", "profile-updating", "succeeded", "field-errors", "failed"}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return "unknown"
}

// AvatarFile is a newly chosen avatar.
type AvatarFile struct {
	Name    string
	Size    int64
	Content []byte
}

type ProfileInput struct {
	Form validate.ProfileForm
	// File is nil when no new avatar was chosen.
	File *AvatarFile
}

type ProfileOutcome struct {
	Step Step
	// Trace lists every step taken, starting at StepIdle.
	Trace   []Step
	Errors  validate.Result
	User    domain.User
	Message string
	// Sent is the update body, when one was sent.
	Sent *domain.ProfileUpdate
}

func (o *ProfileOutcome) enter(s Step) {
	o.Step = s
	o.Trace = append(o.Trace, s)
}

type ProfileService struct {
	API      UserAPI
	Sessions *session.Store
	Cache    *cache.Cache
	Now      func() time.Time
}

func NewProfileService(api UserAPI, sessions *session.Store, c *cache.Cache) *ProfileService {
	s := &ProfileService{API: api, Sessions: sessions, Cache: c, Now: time.Now}
	sessions.Subscribe(func(ev session.Event) {
		if ev.Kind == session.Cleared {
			c.Invalidate(profileKey(ev.SID))
		}
	})
	return s
}

func profileKey(sid string) string { return cache.Key("profile", sid) }

// Profile fetches the signed-in user.
func (s *ProfileService) Profile(ctx context.Context, sid string) (domain.User, error) {
	st, err := tokenFor(s.Sessions, sid)
	if err != nil {
		return domain.User{}, err
	}
	u, err := cache.Fetch(ctx, s.Cache, profileKey(sid), ProfileStale, func(ctx context.Context) (domain.User, error) {
		return s.API.Me(ctx, st.Token)
	})
	return u, signOutOn401(ctx, s.Sessions, sid, err)
}

// Update runs idle → [avatar upload] → profile update → succeeded, field
// errors or failed. Without a new file the current avatar reference is sent
// unchanged. A returned error always comes with StepFailed.
func (s *ProfileService) Update(ctx context.Context, sid string, in ProfileInput) (ProfileOutcome, error) {
	var out ProfileOutcome
	out.enter(StepIdle)

	st, err := tokenFor(s.Sessions, sid)
	if err != nil {
		out.enter(StepFailed)
		return out, err
	}

	r := validate.Profile(in.Form, s.Now())
	if in.File != nil {
		r.Merge(validate.Avatar(in.File.Size, in.File.Content))
	}
	if !r.Valid() {
		out.Errors = r
		out.enter(StepFieldErrors)
		return out, nil
	}

	avatar := in.Form.Avatar
	if avatar == "" && st.Profile != nil {
		avatar = st.Profile.Avatar
	}
	if in.File != nil {
		out.enter(StepAvatarUploading)
		ref, err := s.API.UploadAvatar(ctx, st.Token, in.File.Name, in.File.Content)
		if err != nil {
			return s.fail(ctx, sid, out, err)
		}
		avatar = ref
	}

	out.enter(StepProfileUpdating)
	body := domain.ProfileUpdate{
		Name:        in.Form.Name,
		Phone:       in.Form.Phone,
		Address:     in.Form.Address,
		Avatar:      avatar,
		DateOfBirth: isoDate(in.Form.DateOfBirth),
	}
	out.Sent = &body
	user, msg, err := s.API.UpdateProfile(ctx, st.Token, body)
	if err != nil {
		return s.fail(ctx, sid, out, err)
	}

	st.Profile = &user
	if err := s.Sessions.Set(ctx, sid, st); err != nil {
		out.enter(StepFailed)
		return out, err
	}
	s.Cache.Invalidate(profileKey(sid))
	out.User = user
	out.Message = msg
	out.enter(StepSucceeded)
	return out, nil
}

// ChangePassword sends the current and new password. A non-valid Result with
// a nil error means the input or the API rejected it field by field.
func (s *ProfileService) ChangePassword(ctx context.Context, sid, password, newPassword, confirm string) (validate.Result, string, error) {
	st, err := tokenFor(s.Sessions, sid)
	if err != nil {
		return validate.Result{}, "", err
	}
	if r := validate.ChangePassword(password, newPassword, confirm); !r.Valid() {
		return r, "", nil
	}
	_, msg, err := s.API.UpdateProfile(ctx, st.Token, domain.ProfileUpdate{Password: password, NewPassword: newPassword})
	if fields, ok := shopapi.FieldErrors(err); ok {
		return validate.Server(fields), "", nil
	}
	if err != nil {
		return validate.Result{}, "", signOutOn401(ctx, s.Sessions, sid, err)
	}
	return validate.Result{}, msg, nil
}

func (s *ProfileService) fail(ctx context.Context, sid string, out ProfileOutcome, err error) (ProfileOutcome, error) {
	if fields, ok := shopapi.FieldErrors(err); ok {
		out.Errors = validate.Server(fields)
		out.enter(StepFieldErrors)
		return out, nil
	}
	out.enter(StepFailed)
	return out, signOutOn401(ctx, s.Sessions, sid, err)
}

// isoDate turns a YYYY-MM-DD form value into the timestamp the API stores.
func isoDate(v string) string {
	if v == "" {
		return ""
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return v
	}
	return t.UTC().Format(time.RFC3339)
}
