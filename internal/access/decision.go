package access

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"coachgate/internal/models"
)

// Caller is the identity a core operation acts on behalf of. It is always
// passed in explicitly; the core never reads a session or global context.
// The zero value is the anonymous caller.
type Caller struct {
	ID            int64
	Role          models.UserRole
	Authenticated bool
}

// IsAdmin reports whether the caller carries the admin role.
func (c Caller) IsAdmin() bool {
	return c.Authenticated && c.Role == models.RoleAdmin
}

// State is the outcome of an access evaluation. Exactly three states grant
// access; the rest exist so the UI can tell a pending request from a denied
// one from an expired grant.
type State string

const (
	StatePublic          State = "public"
	StateAdmin           State = "admin"
	StateUnauthenticated State = "unauthenticated"
	StateNoRequest       State = "no-request"
	StatePending         State = "pending"
	StateDenied          State = "denied"
	StateApprovedActive  State = "approved-active"
	StateApprovedExpired State = "approved-expired"
)

// Allowed reports whether the state permits obtaining the resource content.
func (s State) Allowed() bool {
	switch s {
	case StatePublic, StateAdmin, StateApprovedActive:
		return true
	}
	return false
}

// Evaluate computes the access state for a caller and resource given the
// caller's most recent access request (nil if none). Precedence, first
// match wins:
//
//  1. public resource     -> StatePublic, any caller
//  2. admin caller        -> StateAdmin
//  3. anonymous caller    -> StateUnauthenticated
//  4. otherwise the latest request decides: none, pending, denied,
//     approved-and-live, or approved-but-expired.
//
// The expiry boundary is exclusive: a grant expiring at T no longer
// authorizes at T.
func Evaluate(caller Caller, res models.Resource, latest *models.AccessRequest, now time.Time) State {
	switch {
	case !res.IsProtected():
		return StatePublic
	case caller.IsAdmin():
		return StateAdmin
	case !caller.Authenticated:
		return StateUnauthenticated
	}

	if latest == nil {
		return StateNoRequest
	}
	switch latest.Status {
	case models.RequestPending:
		return StatePending
	case models.RequestDenied:
		return StateDenied
	}
	if latest.ActiveAt(now) {
		return StateApprovedActive
	}
	return StateApprovedExpired
}

// Engine answers "may this caller obtain this resource's content right now".
// It re-reads the ledger on every call; decisions are never cached because
// expiry is time-dependent and an admin can change state between requests.
type Engine struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Time returns the engine's current time, honoring an injected clock.
func (e Engine) Time() time.Time {
	return e.now()
}

// LatestRequest returns the caller's newest request for the resource, or
// nil when none exists. Newest-by-creation wins; a user may have several
// rows for the same resource and only the latest is authoritative.
func (e Engine) LatestRequest(ctx context.Context, userID, resourceID int64) (*models.AccessRequest, error) {
	var req models.AccessRequest
	err := e.DB.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Order("created_at DESC, id DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CanAccess evaluates the caller against the resource and the ledger's
// current state. The ledger is only consulted when the outcome actually
// depends on it.
func (e Engine) CanAccess(ctx context.Context, caller Caller, res models.Resource) (State, error) {
	st := Evaluate(caller, res, nil, e.now())
	if st != StateNoRequest {
		return st, nil
	}
	latest, err := e.LatestRequest(ctx, caller.ID, res.ID)
	if err != nil {
		return "", err
	}
	return Evaluate(caller, res, latest, e.now()), nil
}
