package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"shopfront/internal/domain"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/shopapi"
	"shopfront/internal/validate"
)

type ProfileHandler struct {
	renderer
	Profile *services.ProfileService
}

// signedOut reports errors that mean the session is gone.
func signedOut(err error) bool {
	return errors.Is(err, services.ErrSignedOut) || errors.Is(err, shopapi.ErrUnauthorized)
}

func profileForm(u domain.User) validate.ProfileForm {
	return validate.ProfileForm{
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		Avatar:      u.Avatar,
		DateOfBirth: u.BirthDate(),
	}
}

func (h *ProfileHandler) Form(c *fiber.Ctx) error {
	u, err := h.Profile.Profile(c.UserContext(), c.Cookies(SIDCookie))
	if signedOut(err) {
		return c.Redirect("/login")
	}
	if err != nil {
		return err
	}
	return h.render(c, "profile", fiber.Map{"Form": profileForm(u), "Email": u.Email, "Errors": validate.Result{}})
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	sid := c.Cookies(SIDCookie)
	in := services.ProfileInput{Form: validate.ProfileForm{
		Name:        c.FormValue("name"),
		Phone:       c.FormValue("phone"),
		Address:     c.FormValue("address"),
		Avatar:      c.FormValue("avatar"),
		DateOfBirth: c.FormValue("date_of_birth"),
	}}
	file, err := avatarFile(c)
	if err != nil {
		return err
	}
	in.File = file

	out, err := h.Profile.Update(c.UserContext(), sid, in)
	if signedOut(err) {
		log.Security(c, "profile.update.signed_out", nil)
		return c.Redirect("/login")
	}

	data := fiber.Map{"Form": in.Form, "Errors": out.Errors, "Step": out.Step.String()}
	if u := currentUser(c); u != nil {
		data["Email"] = u.Email
	}
	switch out.Step {
	case services.StepSucceeded:
		log.Audit(c, "profile.update.success", map[string]any{"avatar_uploaded": file != nil})
		data["Form"] = profileForm(out.User)
		c.Locals(localUser, &out.User)
		data["Message"] = out.Message
		return h.render(c, "profile", data)
	case services.StepFieldErrors:
		log.Info(c, "profile.update.invalid", map[string]any{"fields": out.Errors.Map()})
		return h.render(c.Status(fiber.StatusUnprocessableEntity), "profile", data)
	default:
		log.Error(c, "profile.update.error", err, map[string]any{"step": out.Step.String()})
		data["Err"] = h.t(c, "error.generic")
		return h.render(c.Status(fiber.StatusBadGateway), "profile", data)
	}
}

// avatarFile reads the optional "image" upload. No file is not an error.
func avatarFile(c *fiber.Ctx) (*services.AvatarFile, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "bad upload")
	}
	if fh.Size == 0 && fh.Filename == "" {
		return nil, nil
	}
	content, err := readAll(fh)
	if err != nil {
		return nil, err
	}
	return &services.AvatarFile{Name: fh.Filename, Size: fh.Size, Content: content}, nil
}

// readAll stops one byte past the limit; the size check reports the rest.
func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, validate.MaxAvatarBytes+1))
}

func (h *ProfileHandler) PasswordForm(c *fiber.Ctx) error {
	return h.render(c, "password", fiber.Map{"Errors": validate.Result{}})
}

func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	r, msg, err := h.Profile.ChangePassword(c.UserContext(), c.Cookies(SIDCookie),
		c.FormValue("password"), c.FormValue("new_password"), c.FormValue("confirm_password"))
	if signedOut(err) {
		return c.Redirect("/login")
	}
	data := fiber.Map{"Errors": r}
	if err != nil {
		log.Error(c, "profile.password.error", err, nil)
		data["Err"] = h.t(c, "error.generic")
		return h.render(c.Status(fiber.StatusBadGateway), "password", data)
	}
	if !r.Valid() {
		log.Security(c, "profile.password.fail", map[string]any{"fields": r.Map()})
		return h.render(c.Status(fiber.StatusUnprocessableEntity), "password", data)
	}
	log.Audit(c, "profile.password.changed", nil)
	data["Message"] = msg
	return h.render(c, "password", data)
}
