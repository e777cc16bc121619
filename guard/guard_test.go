package guard_test

import (
	"testing"

	"github.com/jrsteele09/atelier-portal/guard"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/jrsteele09/atelier-portal/session"
	"github.com/stretchr/testify/require"
)

// fakeState is a scripted session store
type fakeState struct {
	ready   bool
	session *session.Session
	panics  bool
}

func (f *fakeState) Ready() bool {
	return f.ready
}

func (f *fakeState) Snapshot() (session.Session, bool) {
	if f.panics {
		panic("snapshot exploded")
	}
	if f.session == nil {
		return session.Session{}, false
	}
	return *f.session, true
}

func loggedIn(role roles.Role) *fakeState {
	return &fakeState{ready: true, session: &session.Session{UserID: "1", Role: role, Token: "t"}}
}

func TestDecide(t *testing.T) {
	customerOnly := guard.RequireRole(roles.RoleCustomer)
	staffOnly := guard.RequireRole(roles.RoleStaff)

	tests := []struct {
		name  string
		state guard.State
		req   guard.Requirement
		want  guard.Outcome
	}{
		{"loading beats everything", &fakeState{}, staffOnly, guard.Loading},
		{"loading even with a session", &fakeState{session: &session.Session{Role: roles.RoleStaff}}, guard.Public, guard.Loading},
		{"public renders logged out", &fakeState{ready: true}, guard.Public, guard.Render},
		{"public renders logged in", loggedIn(roles.RoleStaff), guard.Public, guard.Render},
		{"authenticated needs a session", &fakeState{ready: true}, guard.Authenticated, guard.Redirect},
		{"authenticated renders for any role", loggedIn(roles.RoleCustomer), guard.Authenticated, guard.Render},
		{"matching role renders", loggedIn(roles.RoleCustomer), customerOnly, guard.Render},
		{"customer on staff route redirects", loggedIn(roles.RoleCustomer), staffOnly, guard.Redirect},
		{"staff on customer route redirects", loggedIn(roles.RoleStaff), customerOnly, guard.Redirect},
		{"logged out on role route redirects", &fakeState{ready: true}, customerOnly, guard.Redirect},
		{"invalid required role redirects", loggedIn(roles.RoleCustomer), guard.RequireRole("admin"), guard.Redirect},
		{"zero requirement redirects", loggedIn(roles.RoleCustomer), guard.Requirement{}, guard.Redirect},
		{"nil state redirects", nil, guard.Public, guard.Redirect},
		{"panic redirects", &fakeState{ready: true, panics: true}, guard.Authenticated, guard.Redirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d guard.Decision
			require.NotPanics(t, func() { d = guard.Decide(tt.state, tt.req) })
			require.Equal(t, tt.want, d.Outcome, d.Reason)
		})
	}
}

func TestDecideCarriesSession(t *testing.T) {
	d := guard.Decide(loggedIn(roles.RoleStaff), guard.RequireRole(roles.RoleStaff))
	require.Equal(t, guard.Render, d.Outcome)
	require.Equal(t, "1", d.Session.UserID)
}

// Every navigation is decided afresh: a denial does not stick once the state changes
func TestDecideHasNoMemory(t *testing.T) {
	state := &fakeState{ready: true}
	require.Equal(t, guard.Redirect, guard.Decide(state, guard.Authenticated).Outcome)

	state.session = &session.Session{UserID: "1", Role: roles.RoleCustomer, Token: "t"}
	require.Equal(t, guard.Render, guard.Decide(state, guard.Authenticated).Outcome)

	state.session = nil
	require.Equal(t, guard.Redirect, guard.Decide(state, guard.Authenticated).Outcome)
}
