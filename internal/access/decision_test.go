package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachgate/internal/models"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func protectedFile() models.Resource {
	return models.Resource{
		ID:           1,
		Title:        "Workbook",
		Type:         models.ResourceFile,
		Visibility:   models.VisibilityProtected,
		FileLocation: "workbooks/workbook.pdf",
		FileName:     "workbook.pdf",
	}
}

func publicLink() models.Resource {
	return models.Resource{
		ID:         2,
		Title:      "Article",
		Type:       models.ResourceLink,
		Visibility: models.VisibilityPublic,
		Link:       "https://example.com/article",
	}
}

func approvedUntil(t time.Time) *models.AccessRequest {
	return &models.AccessRequest{
		ID:         10,
		UserID:     7,
		ResourceID: 1,
		Status:     models.RequestApproved,
		ExpiresAt:  &t,
	}
}

func TestEvaluatePrecedence(t *testing.T) {
	user := Caller{ID: 7, Role: models.RoleUser, Authenticated: true}
	admin := Caller{ID: 1, Role: models.RoleAdmin, Authenticated: true}
	anon := Caller{}

	tests := []struct {
		name   string
		caller Caller
		res    models.Resource
		latest *models.AccessRequest
		want   State
	}{
		{"public resource, anonymous caller", anon, publicLink(), nil, StatePublic},
		{"public resource, regular user", user, publicLink(), nil, StatePublic},
		{"public resource overrides a denied request", user, publicLink(), &models.AccessRequest{Status: models.RequestDenied}, StatePublic},
		{"admin bypasses protection", admin, protectedFile(), nil, StateAdmin},
		{"admin bypasses even a denied request", admin, protectedFile(), &models.AccessRequest{Status: models.RequestDenied}, StateAdmin},
		{"anonymous caller on protected resource", anon, protectedFile(), nil, StateUnauthenticated},
		{"no request on record", user, protectedFile(), nil, StateNoRequest},
		{"pending request", user, protectedFile(), &models.AccessRequest{Status: models.RequestPending}, StatePending},
		{"denied request", user, protectedFile(), &models.AccessRequest{Status: models.RequestDenied}, StateDenied},
		{"approved and live", user, protectedFile(), approvedUntil(evalNow.Add(time.Minute)), StateApprovedActive},
		{"approved but expired", user, protectedFile(), approvedUntil(evalNow.Add(-time.Minute)), StateApprovedExpired},
		{"approved without expiry treated as expired", user, protectedFile(), &models.AccessRequest{Status: models.RequestApproved}, StateApprovedExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.caller, tt.res, tt.latest, evalNow))
		})
	}
}

func TestEvaluateExpiryBoundary(t *testing.T) {
	user := Caller{ID: 7, Role: models.RoleUser, Authenticated: true}
	expiry := evalNow
	latest := approvedUntil(expiry)

	// Live strictly before the expiry instant.
	st := Evaluate(user, protectedFile(), latest, expiry.Add(-time.Nanosecond))
	require.Equal(t, StateApprovedActive, st)
	assert.True(t, st.Allowed())

	// No longer live at the expiry instant itself.
	st = Evaluate(user, protectedFile(), latest, expiry)
	require.Equal(t, StateApprovedExpired, st)
	assert.False(t, st.Allowed())

	st = Evaluate(user, protectedFile(), latest, expiry.Add(time.Hour))
	assert.Equal(t, StateApprovedExpired, st)
}

func TestStateAllowed(t *testing.T) {
	allowed := []State{StatePublic, StateAdmin, StateApprovedActive}
	for _, s := range allowed {
		assert.True(t, s.Allowed(), string(s))
	}
	refused := []State{StateUnauthenticated, StateNoRequest, StatePending, StateDenied, StateApprovedExpired}
	for _, s := range refused {
		assert.False(t, s.Allowed(), string(s))
	}
}
