package shared

// Capability names an actor may hold.
const (
	CapListUsers = "list_users"
	CapAdmin     = "admin"
)

// Actor describes the authenticated identity performing an operation.
type Actor struct {
	ID             int64
	OrganizationID int64
	Email          string
	Capabilities   []string
}

// HasCapability reports whether the actor holds the named capability.
// Admin implies every other capability.
func (a Actor) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c == name || c == CapAdmin {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor holds the admin capability.
func (a Actor) IsAdmin() bool {
	return a.HasCapability(CapAdmin)
}
