package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"procurement-portal/internal/models"
)

type fakeSession struct {
	authenticated bool
	user          *models.User
	// checkResult is what CheckAuth resolves to; on true the session becomes
	// authenticated as checkUser.
	checkResult bool
	checkUser   *models.User
	checks      int
}

func (f *fakeSession) IsAuthenticated() bool { return f.authenticated }
func (f *fakeSession) User() *models.User    { return f.user }
func (f *fakeSession) CheckAuth(ctx context.Context) bool {
	f.checks++
	if f.checkResult {
		f.authenticated = true
		f.user = f.checkUser
	}
	return f.checkResult
}

func authedAs(role models.UserRole) *fakeSession {
	return &fakeSession{authenticated: true, user: &models.User{ID: "u", Role: role}}
}

func TestEvaluate_RoleMatrix(t *testing.T) {
	gpoOnly := []models.UserRole{models.RoleGPO}
	vendorOnly := []models.UserRole{models.RoleVendor}

	tests := []struct {
		name    string
		role    models.UserRole
		allowed []models.UserRole
		want    Decision
	}{
		{"gpo on gpo route", models.RoleGPO, gpoOnly, Decision{Action: Render}},
		{"vendor on vendor route", models.RoleVendor, vendorOnly, Decision{Action: Render}},
		{"vendor on gpo route", models.RoleVendor, gpoOnly, Decision{Action: RedirectHome, Target: "/vendor/dashboard"}},
		{"gpo on vendor route", models.RoleGPO, vendorOnly, Decision{Action: RedirectHome, Target: "/dashboard"}},
		{"unknown role", "AUDITOR", gpoOnly, Decision{Action: RedirectLogin, Target: "/login"}},
		{"any role on open route", models.RoleVendor, nil, Decision{Action: Render}},
		{"unknown role on open route", "AUDITOR", nil, Decision{Action: Render}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := authedAs(tt.role)
			got := Evaluate(context.Background(), s, tt.allowed)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, s.checks, "authenticated sessions are not revalidated")
		})
	}
}

func TestEvaluate_UnauthenticatedRedirectsToLogin(t *testing.T) {
	for _, allowed := range [][]models.UserRole{nil, {models.RoleGPO}, {models.RoleVendor}} {
		s := &fakeSession{}
		got := Evaluate(context.Background(), s, allowed)

		assert.Equal(t, Decision{Action: RedirectLogin, Target: "/login"}, got)
		assert.True(t, got.Redirects())
		assert.Equal(t, 1, s.checks)
	}
}

func TestEvaluate_CheckAuthRestoresSession(t *testing.T) {
	s := &fakeSession{checkResult: true, checkUser: &models.User{ID: "u", Role: models.RoleGPO}}

	got := Evaluate(context.Background(), s, []models.UserRole{models.RoleGPO})
	assert.Equal(t, Render, got.Action)
	assert.False(t, got.Redirects())
	assert.Equal(t, 1, s.checks)
}

func TestEvaluate_CheckAuthRestoresSessionWithOtherRole(t *testing.T) {
	s := &fakeSession{checkResult: true, checkUser: &models.User{ID: "u", Role: models.RoleVendor}}

	got := Evaluate(context.Background(), s, []models.UserRole{models.RoleGPO})
	assert.Equal(t, Decision{Action: RedirectHome, Target: "/vendor/dashboard"}, got)
}

func TestEvaluate_AuthenticatedWithoutUser(t *testing.T) {
	s := &fakeSession{authenticated: true}
	got := Evaluate(context.Background(), s, nil)
	assert.Equal(t, RedirectLogin, got.Action)
}
