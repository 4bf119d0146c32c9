// Package guard decides whether a protected view may render for the current
// session.
package guard

import (
	"context"
	"slices"

	"procurement-portal/internal/models"
	"procurement-portal/internal/routes"
)

type Action int

const (
	Render Action = iota
	RedirectLogin
	RedirectHome
)

func (a Action) String() string {
	switch a {
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "render"
	}
}

// Decision is the outcome of one evaluation. Target is empty for Render.
type Decision struct {
	Action Action
	Target string
}

func (d Decision) Redirects() bool {
	return d.Action != Render
}

// Session is what the guard needs from the session store.
type Session interface {
	IsAuthenticated() bool
	User() *models.User
	CheckAuth(ctx context.Context) bool
}

// Evaluate gates a view declared with allowedRoles. An empty allowedRoles
// admits any authenticated user.
func Evaluate(ctx context.Context, s Session, allowedRoles []models.UserRole) Decision {
	if !s.IsAuthenticated() && !s.CheckAuth(ctx) {
		return Decision{Action: RedirectLogin, Target: routes.Login}
	}

	user := s.User()
	if user == nil {
		return Decision{Action: RedirectLogin, Target: routes.Login}
	}

	if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, user.Role) {
		home := routes.HomeFor(user.Role)
		if home == routes.Login {
			return Decision{Action: RedirectLogin, Target: home}
		}
		return Decision{Action: RedirectHome, Target: home}
	}

	return Decision{Action: Render}
}
