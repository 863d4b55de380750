package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionFlags are the eight capability flags stored for one (role, module) pair
type PermissionFlags struct {
	View        bool `gorm:"column:can_view;not null" json:"view"`
	Add         bool `gorm:"column:can_add;not null" json:"add"`
	Edit        bool `gorm:"column:can_edit;not null" json:"edit"`
	Delete      bool `gorm:"column:can_delete;not null" json:"delete"`
	Approve     bool `gorm:"column:can_approve;not null" json:"approve"`
	Lock        bool `gorm:"column:can_lock;not null" json:"lock"`
	Restore     bool `gorm:"column:can_restore;not null" json:"restore"`
	ManageUsers bool `gorm:"column:can_manage_users;not null" json:"manage_users"`
}

// PermissionRow is the stored representation of one role's flags on one module
type PermissionRow struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_permission_rows_role_module" json:"role_id"`
	ModuleID  string          `gorm:"type:varchar(100);not null;index:idx_permission_rows_role_module" json:"module_id"`
	Flags     PermissionFlags `gorm:"embedded" json:"flags"`
	IsActive  bool            `gorm:"not null" json:"is_active"`
	CreatedBy int64           `json:"created_by"`
	UpdatedBy int64           `json:"updated_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (p *PermissionRow) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewPermissionRow is the payload for creating a row that does not exist yet
type NewPermissionRow struct {
	RoleID    uuid.UUID
	ModuleID  string
	Flags     PermissionFlags
	CreatedBy int64
}

// PermissionRowUpdate is the payload for overwriting an existing row.
// Updates always reactivate the row.
type PermissionRowUpdate struct {
	RowID     uuid.UUID
	ModuleID  string
	Flags     PermissionFlags
	UpdatedBy int64
}
