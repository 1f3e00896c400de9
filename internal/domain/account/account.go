package account

// DeactivatedMessage is the exact 403 message for a deactivated account.
// Clients branch on it to keep the session and show a reactivation prompt.
const DeactivatedMessage = "Account is deactivated"

type Role string

const (
	RoleShopper  Role = "shopper"
	RoleTraveler Role = "traveler"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleShopper, RoleTraveler, RoleAdmin:
		return true
	}
	return false
}

// Viewer is the authenticated caller as seen by the listing usecases.
// An anonymous viewer has an empty ID.
type Viewer struct {
	ID     string
	Role   Role
	Member bool
}
