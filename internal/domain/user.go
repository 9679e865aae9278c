package domain

import "time"

type User struct {
	ID          string   `json:"_id"`
	Roles       []string `json:"roles"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// DisplayName falls back to the email when no name was set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// BirthDate returns the date of birth as YYYY-MM-DD for date inputs.
func (u *User) BirthDate() string {
	if u == nil || u.DateOfBirth == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, u.DateOfBirth)
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

// AuthData is what login and register return.
type AuthData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"`
	User         User   `json:"user"`
}

// ProfileUpdate is the PUT user body. Empty fields are left out.
type ProfileUpdate struct {
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Password    string `json:"password,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}
