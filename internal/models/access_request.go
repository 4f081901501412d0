package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// AccessRequest is one user's ask for access to one protected resource.
// Rows are append-only from the user's side: a user may submit several
// requests for the same resource over time and the newest one is the
// authoritative record. Decided rows are never deleted; they remain as
// the approval audit trail.
type AccessRequest struct {
	ID         int64         `gorm:"primaryKey" json:"id"`
	UserID     int64         `gorm:"index;not null" json:"user_id"`
	ResourceID int64         `gorm:"index;not null" json:"resource_id"`
	Status     RequestStatus `gorm:"size:16;not null;default:pending" json:"status"`
	ExpiresAt  *time.Time    `gorm:"index" json:"expires_at,omitempty"`
	AdminNotes string        `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID" json:"-"`
	Resource *Resource `gorm:"foreignKey:ResourceID" json:"-"`
}

// IsPending checks if the request still awaits an admin decision.
func (r *AccessRequest) IsPending() bool {
	return r.Status == RequestPending
}

// IsApproved checks if the request was approved (active or not).
func (r *AccessRequest) IsApproved() bool {
	return r.Status == RequestApproved
}

// IsDenied checks if the request was denied.
func (r *AccessRequest) IsDenied() bool {
	return r.Status == RequestDenied
}

// ActiveAt reports whether an approved grant still covers the given time.
func (r *AccessRequest) ActiveAt(now time.Time) bool {
	return r.Status == RequestApproved && r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
}
