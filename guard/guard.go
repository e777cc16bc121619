// Package guard decides whether a request may reach a page: render it, send the browser to
// the login page, or hold it on a loading placeholder until its session has been restored.
package guard

import (
	"fmt"

	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/jrsteele09/atelier-portal/session"
)

type requirementKind int

// The zero Requirement is unknown and never renders
const (
	kindUnknown requirementKind = iota
	kindPublic
	kindAuthenticated
	kindRole
)

// Requirement is what a target demands of the session
type Requirement struct {
	kind requirementKind
	role roles.Role
}

var (
	Public        = Requirement{kind: kindPublic}
	Authenticated = Requirement{kind: kindAuthenticated}
)

// RequireRole demands an authenticated session with exactly role r
func RequireRole(r roles.Role) Requirement {
	return Requirement{kind: kindRole, role: r}
}

func (r Requirement) String() string {
	switch r.kind {
	case kindPublic:
		return "public"
	case kindAuthenticated:
		return "authenticated"
	case kindRole:
		return "role:" + string(r.role)
	default:
		return "unknown"
	}
}

type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the result of Decide. Session is set when the outcome is Render and a
// session is active.
type Decision struct {
	Outcome Outcome
	Reason  string
	Session session.Session
}

// State is the read side of a session store. *session.Store implements it.
type State interface {
	Ready() bool
	Snapshot() (session.Session, bool)
}

// Decide applies the guard rules to one request. It never panics: any failure while
// reading the state becomes a Redirect.
func Decide(state State, req Requirement) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = Decision{Outcome: Redirect, Reason: fmt.Sprintf("guard failure: %v", r)}
		}
	}()

	if state == nil {
		return Decision{Outcome: Redirect, Reason: "no session store"}
	}
	if !state.Ready() {
		return Decision{Outcome: Loading, Reason: "session restore in progress"}
	}

	current, ok := state.Snapshot()
	switch {
	case req.kind == kindPublic:
		return Decision{Outcome: Render, Session: current}
	case !ok:
		return Decision{Outcome: Redirect, Reason: "not authenticated"}
	case req.kind == kindRole && (!req.role.Valid() || current.Role != req.role):
		// Wrong role is handled exactly like no session
		return Decision{Outcome: Redirect, Reason: fmt.Sprintf("role %q cannot access %s", current.Role, req)}
	case req.kind != kindAuthenticated && req.kind != kindRole:
		return Decision{Outcome: Redirect, Reason: "unknown requirement"}
	}
	return Decision{Outcome: Render, Session: current}
}
