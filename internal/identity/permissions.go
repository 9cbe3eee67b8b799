package identity

import (
	"fmt"

	"github.com/accounthub/accounthub/internal/shared"
)

// Evaluate is the permission evaluator: a pure function of the actor, the
// target account and a required capability. Ownership of the target counts
// as a grant for self-service capabilities.
func Evaluate(actor shared.Actor, targetID int64, capability string) bool {
	if actor.HasCapability(capability) {
		return true
	}
	return targetID != 0 && actor.ID == targetID
}

// CanRead reports whether the actor may view the target account.
func CanRead(actor shared.Actor, targetID int64) bool {
	return Evaluate(actor, targetID, shared.CapListUsers)
}

// CanWrite reports whether the actor may mutate the target's profile.
func CanWrite(actor shared.Actor, targetID int64) bool {
	return Evaluate(actor, targetID, shared.CapAdmin)
}

// AdminOrOwner governs api_key visibility in responses.
func AdminOrOwner(actor shared.Actor, targetID int64) bool {
	return actor.IsAdmin() || actor.ID == targetID
}

// RequireAdmin returns ErrUnauthorized unless the actor holds admin.
// Ownership never satisfies admin-only operations.
func RequireAdmin(actor shared.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin capability required", shared.ErrUnauthorized)
	}
	return nil
}
