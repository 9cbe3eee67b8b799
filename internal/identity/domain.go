package identity

import "time"

// User is the account entity owned by exactly one organization.
type User struct {
	ID             int64
	OrganizationID int64
	Name           string
	Email          string
	PasswordHash   string
	GroupIDs       []int64
	IsDisabled     bool
	APIKey         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the outward representation of an account. The api_key is
// populated only when the caller is the target or an administrator.
type PublicUser struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	GroupIDs   []int64   `json:"groups"`
	IsDisabled bool      `json:"is_disabled"`
	APIKey     string    `json:"api_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Public projects the user for API responses.
func (u *User) Public(withAPIKey bool) PublicUser {
	out := PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		GroupIDs:   u.GroupIDs,
		IsDisabled: u.IsDisabled,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if out.GroupIDs == nil {
		out.GroupIDs = []int64{}
	}
	if withAPIKey {
		out.APIKey = u.APIKey
	}
	return out
}

// Patch carries the recognized mutable fields of an update request. Each
// field is independently absent (nil). OldPassword is a verification token
// only and is never persisted.
type Patch struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	OldPassword *string `json:"old_password"`
	GroupIDs    []int64 `json:"groups"`
}

// Empty reports whether the patch carries no recognized field.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.GroupIDs == nil
}

// FieldNames lists the patched field names for audit events. Values are
// never included and old_password is never listed.
func (p Patch) FieldNames() []string {
	var names []string
	if p.Name != nil {
		names = append(names, "name")
	}
	if p.Email != nil {
		names = append(names, "email")
	}
	if p.Password != nil {
		names = append(names, "password")
	}
	if p.GroupIDs != nil {
		names = append(names, "groups")
	}
	return names
}
