package models

import (
	"time"

	"gorm.io/datatypes"
)

type ResourceType string

const (
	ResourceLink     ResourceType = "link"
	ResourceFile     ResourceType = "file"
	ResourceDocument ResourceType = "document"
	ResourceTemplate ResourceType = "template"
	ResourceTool     ResourceType = "tool"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
)

type Resource struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Type         ResourceType   `gorm:"size:20;not null" json:"type"`
	Visibility   Visibility     `gorm:"size:20;not null;default:public" json:"visibility"`
	FileLocation string         `gorm:"size:512" json:"-"`
	FileName     string         `gorm:"size:255" json:"file_name,omitempty"`
	Link         string         `gorm:"size:512" json:"link,omitempty"`
	Metadata     datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsProtected reports whether downloads must pass the access gate.
func (r *Resource) IsProtected() bool {
	return r.Visibility == VisibilityProtected
}

// HasFile reports whether the resource is backed by a stored object.
func (r *Resource) HasFile() bool {
	return r.FileLocation != ""
}
