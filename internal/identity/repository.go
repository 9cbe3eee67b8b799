package identity

import "context"

// StorePatch is the persisted subset of an update. The old-password
// verification token never reaches the store.
type StorePatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	GroupIDs     []int64
}

// Empty reports whether nothing would be written.
func (p StorePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.GroupIDs == nil
}

// Repository defines persistence for user accounts. Create and Update must
// surface per-organization email uniqueness violations as
// *shared.ConflictError{Field: "email"}; the constraint is enforced
// atomically by the store, never by a read-then-write check.
type Repository interface {
	ListByOrg(ctx context.Context, orgID int64) ([]User, error)
	GetByIDAndOrg(ctx context.Context, id, orgID int64) (*User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*User, error)
	DefaultGroup(ctx context.Context, orgID int64) (int64, error)
	EffectiveCapabilities(ctx context.Context, userID int64) ([]string, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id, orgID int64, patch StorePatch) (*User, error)
	SetDisabled(ctx context.Context, id, orgID int64, disabled bool) (*User, error)
}
