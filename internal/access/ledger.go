package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coachgate/internal/models"
)

// Expiration window bounds for an approval, in days.
const (
	DefaultExpirationDays = 7
	MinExpirationDays     = 1
	MaxExpirationDays     = 365
)

// Ledger owns the lifecycle of access requests: creation by the requesting
// user, a single admin decision, and nothing else. Rows are never deleted.
type Ledger struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (l Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Submit inserts a new pending request for the caller and resource. It does
// not deduplicate: re-submitting while an earlier request is still pending
// creates a second row, and the newest row is the one decisions read.
func (l Ledger) Submit(ctx context.Context, caller Caller, resourceID int64) (models.AccessRequest, error) {
	if !caller.Authenticated {
		return models.AccessRequest{}, ErrUnauthenticated
	}

	var res models.Resource
	if err := l.DB.WithContext(ctx).First(&res, resourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AccessRequest{}, ErrNotFound
		}
		return models.AccessRequest{}, fmt.Errorf("load resource: %w", err)
	}

	req := models.AccessRequest{
		UserID:     caller.ID,
		ResourceID: res.ID,
		Status:     models.RequestPending,
	}
	if err := l.DB.WithContext(ctx).Create(&req).Error; err != nil {
		return models.AccessRequest{}, fmt.Errorf("create access request: %w", err)
	}
	return req, nil
}

// Decision is an admin's verdict on a pending request.
type Decision struct {
	Verdict        models.RequestStatus // RequestApproved or RequestDenied
	ExpirationDays int                  // approval only; 0 means DefaultExpirationDays
	Notes          string
}

// Decide applies an admin decision to a pending request. A request is
// decided at most once: the mutation is a single guarded UPDATE keyed on
// the pending status, so two concurrent decisions on the same row resolve
// to one winner and one ErrInvalidState.
func (l Ledger) Decide(ctx context.Context, requestID int64, d Decision) (models.AccessRequest, error) {
	if d.Verdict != models.RequestApproved && d.Verdict != models.RequestDenied {
		return models.AccessRequest{}, fmt.Errorf("invalid verdict %q", d.Verdict)
	}
	// The window only means something on approval; a denial ignores it.
	days := d.ExpirationDays
	if d.Verdict == models.RequestApproved {
		if days == 0 {
			days = DefaultExpirationDays
		}
		if days < MinExpirationDays || days > MaxExpirationDays {
			return models.AccessRequest{}, fmt.Errorf("expiration days must be between %d and %d", MinExpirationDays, MaxExpirationDays)
		}
	}

	var req models.AccessRequest
	if err := l.DB.WithContext(ctx).First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AccessRequest{}, ErrNotFound
		}
		return models.AccessRequest{}, fmt.Errorf("load request: %w", err)
	}
	if !req.IsPending() {
		return req, ErrInvalidState
	}

	now := l.now()
	updates := map[string]interface{}{
		"status":      d.Verdict,
		"admin_notes": d.Notes,
		"updated_at":  now,
		"expires_at":  nil,
	}
	if d.Verdict == models.RequestApproved {
		updates["expires_at"] = now.AddDate(0, 0, days)
	}

	tx := l.DB.WithContext(ctx).Model(&models.AccessRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Updates(updates)
	if tx.Error != nil {
		return models.AccessRequest{}, fmt.Errorf("update request: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		// Lost the race to another decision since the read above.
		return req, ErrInvalidState
	}

	if err := l.DB.WithContext(ctx).First(&req, requestID).Error; err != nil {
		return models.AccessRequest{}, fmt.Errorf("reload request: %w", err)
	}
	return req, nil
}

// ReviewEntry is one ledger row joined with the display data the admin
// review screen needs.
type ReviewEntry struct {
	models.AccessRequest
	UserName      string `json:"user_name"`
	UserEmail     string `json:"user_email"`
	ResourceTitle string `json:"resource_title"`
	DisplayStatus string `json:"display_status"`
}

// ListFilter narrows a review listing. The zero value lists everything.
type ListFilter struct {
	ResourceID int64
}

// ListRequests returns requests newest first, enriched for admin triage.
func (l Ledger) ListRequests(ctx context.Context, f ListFilter) ([]ReviewEntry, error) {
	q := l.DB.WithContext(ctx).
		Preload("User").
		Preload("Resource")
	if f.ResourceID != 0 {
		q = q.Where("resource_id = ?", f.ResourceID)
	}

	var reqs []models.AccessRequest
	if err := q.Order("created_at DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	now := l.now()
	entries := make([]ReviewEntry, 0, len(reqs))
	for _, r := range reqs {
		e := ReviewEntry{
			AccessRequest: r,
			DisplayStatus: DisplayStatus(&r, now),
		}
		if r.User != nil {
			e.UserName = r.User.Name
			e.UserEmail = r.User.Email
		}
		if r.Resource != nil {
			e.ResourceTitle = r.Resource.Title
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DisplayStatus maps the three stored states onto the four the UI shows.
// Expiry is computed here at read time; the stored status never flips to
// an "expired" value.
func DisplayStatus(r *models.AccessRequest, now time.Time) string {
	switch r.Status {
	case models.RequestApproved:
		if r.ActiveAt(now) {
			return "approved-active"
		}
		return "approved-expired"
	case models.RequestDenied:
		return "denied"
	default:
		return "pending"
	}
}
