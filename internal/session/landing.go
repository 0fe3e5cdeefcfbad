package session

import "gitlab.com/chanrith/orderdesk/internal/models"

// View identifies the screen a freshly resolved identity should land on.
type View int

const (
	ViewLogin View = iota
	ViewRoleSelection
	ViewTeamSelection
	ViewOrderEntry
	ViewAdminDashboard
	ViewNoTeam
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewRoleSelection:
		return "roleSelection"
	case ViewTeamSelection:
		return "teamSelection"
	case ViewOrderEntry:
		return "orderEntry"
	case ViewAdminDashboard:
		return "adminDashboard"
	case ViewNoTeam:
		return "noTeam"
	default:
		return "unknown"
	}
}

// Landing is the outcome of resolving a user's navigable views. Team is set
// for ViewOrderEntry; Teams carries the selectable options for
// ViewTeamSelection and ViewRoleSelection.
type Landing struct {
	View  View
	Team  string
	Teams []string
}

// ResolveLanding picks the landing view for an identity. An impersonated
// session always takes the user path: the admin is borrowing the target's
// identity, so the target's teams decide, never the admin console.
func ResolveLanding(user models.User, impersonated bool) Landing {
	if impersonated {
		return resolveUserLanding(user)
	}
	if user.IsSystemAdmin {
		teams := user.Teams()
		if len(teams) > 0 {
			// Hybrid admin: both roles are navigable, let the user choose.
			return Landing{View: ViewRoleSelection, Teams: teams}
		}
		return Landing{View: ViewAdminDashboard}
	}
	return resolveUserLanding(user)
}

// ResolveUserRole re-enters the team branch for a hybrid admin who chose to
// act as a regular user.
func ResolveUserRole(user models.User) Landing {
	return resolveUserLanding(user)
}

func resolveUserLanding(user models.User) Landing {
	teams := user.Teams()
	switch {
	case len(teams) > 1:
		return Landing{View: ViewTeamSelection, Teams: teams}
	case len(teams) == 1:
		return Landing{View: ViewOrderEntry, Team: teams[0]}
	default:
		return Landing{View: ViewNoTeam}
	}
}
