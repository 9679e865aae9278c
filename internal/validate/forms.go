package validate

import (
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAvatarBytes is the largest avatar upload accepted.
const MaxAvatarBytes = 1 << 20

var avatarTypes = []string{"image/jpeg", "image/png"}

func Login(email, password string) Result {
	return All(
		Required("email", email),
		EmailFormat("email", email),
		Length("email", email, 5, 160),
		Required("password", password),
		Length("password", password, 6, 160),
	)
}

func Register(email, password, confirm string) Result {
	r := Login(email, password)
	r.Merge(confirmPassword("confirm_password", confirm, password))
	return r
}

func confirmPassword(field, v, ref string) Result {
	return All(
		Required(field, v),
		Length(field, v, 6, 160),
		Equals(field, v, ref),
	)
}

// ProfileForm holds the editable profile fields as submitted.
type ProfileForm struct {
	Name        string
	Phone       string
	Address     string
	Avatar      string
	DateOfBirth string // YYYY-MM-DD
}

func Profile(f ProfileForm, now time.Time) Result {
	return All(
		MaxLength("name", f.Name, 160),
		MaxLength("phone", f.Phone, 20),
		MaxLength("address", f.Address, 160),
		MaxLength("avatar", f.Avatar, 1000),
		PastDate("date_of_birth", f.DateOfBirth, now),
	)
}

func ChangePassword(password, newPassword, confirm string) Result {
	r := All(
		Required("password", password),
		Length("password", password, 6, 160),
		Required("new_password", newPassword),
		Length("new_password", newPassword, 6, 160),
	)
	r.Merge(confirmPassword("confirm_password", confirm, newPassword))
	return r
}

// PriceFilter validates the aside price form.
func PriceFilter(min, max string) Result {
	return All(PriceRange(min, max))
}

// Avatar checks an upload by size and sniffed content type.
func Avatar(size int64, content []byte) Result {
	if size > MaxAvatarBytes {
		return fail("avatar", CodeFileSize, "file must be at most 1 MB")
	}
	mt := mimetype.Detect(content)
	if !mimetype.EqualsAny(mt.String(), avatarTypes...) {
		return fail("avatar", CodeFileType, "only .jpeg and .png files are accepted")
	}
	return Result{}
}
