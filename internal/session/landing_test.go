package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

func TestResolveLanding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		user         models.User
		impersonated bool
		wantView     View
		wantTeam     string
		wantTeams    []string
	}{
		{
			name:      "admin with teams gets role selection",
			user:      models.User{UserName: "boss", IsSystemAdmin: true, Team: "A, B"},
			wantView:  ViewRoleSelection,
			wantTeams: []string{"A", "B"},
		},
		{
			name:     "admin without teams goes straight to the console",
			user:     models.User{UserName: "boss", IsSystemAdmin: true},
			wantView: ViewAdminDashboard,
		},
		{
			name:     "single team lands on order entry",
			user:     models.User{UserName: "sok", Team: "A"},
			wantView: ViewOrderEntry,
			wantTeam: "A",
		},
		{
			name:      "multiple teams need a choice",
			user:      models.User{UserName: "sok", Team: "A, B, C"},
			wantView:  ViewTeamSelection,
			wantTeams: []string{"A", "B", "C"},
		},
		{
			name:     "no team is a dead end",
			user:     models.User{UserName: "sok"},
			wantView: ViewNoTeam,
		},
		{
			name:         "impersonated admin takes the user path",
			user:         models.User{UserName: "boss", IsSystemAdmin: true, Team: "A"},
			impersonated: true,
			wantView:     ViewOrderEntry,
			wantTeam:     "A",
		},
		{
			name:         "impersonated teamless admin is a dead end",
			user:         models.User{UserName: "boss", IsSystemAdmin: true},
			impersonated: true,
			wantView:     ViewNoTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveLanding(tt.user, tt.impersonated)
			assert.Equal(t, tt.wantView, got.View)
			assert.Equal(t, tt.wantTeam, got.Team)
			assert.Equal(t, tt.wantTeams, got.Teams)
		})
	}
}

func TestResolveUserRole(t *testing.T) {
	t.Parallel()

	got := ResolveUserRole(models.User{UserName: "boss", IsSystemAdmin: true, Team: "A"})
	assert.Equal(t, ViewOrderEntry, got.View)
	assert.Equal(t, "A", got.Team)
}
