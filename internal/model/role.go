package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a named set of module permissions. Roles are never physically removed;
// deleting one clears IsActive and records who did it.
type Role struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string     `gorm:"type:varchar(100);not null;index" json:"name"`
	Description         string     `gorm:"type:text" json:"description"`
	RoleCode            string     `gorm:"type:varchar(50);index" json:"role_code"`
	DefaultDashboardURL string     `gorm:"type:varchar(255)" json:"default_dashboard_url"`
	IsSystem            bool       `gorm:"not null" json:"is_system"` // Built-in roles cannot be deleted
	IsActive            bool       `gorm:"not null;index" json:"is_active"`
	CreatedBy           int64      `json:"created_by"`
	UpdatedBy           int64      `json:"updated_by"`
	DeletedBy           *int64     `json:"deleted_by,omitempty"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeCreate assigns the primary key so inserts behave the same on every dialect
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RoleUpdate carries the editable metadata of a role
type RoleUpdate struct {
	Name                string
	Description         string
	RoleCode            string
	DefaultDashboardURL string
	IsSystem            bool
	UpdatedBy           int64
}
