package repository

import (
	"context"

	"roleconsole/internal/model"
	"roleconsole/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const bulkCreateBatchSize = 100

type PermissionRepository interface {
	// ListByRole returns every stored row of a role, active or not
	ListByRole(ctx context.Context, roleID uuid.UUID) ([]model.PermissionRow, error)
	// BulkCreate inserts rows in batches. An empty slice performs no call.
	BulkCreate(ctx context.Context, rows []model.NewPermissionRow) error
	Update(ctx context.Context, upd model.PermissionRowUpdate) error
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) ListByRole(ctx context.Context, roleID uuid.UUID) ([]model.PermissionRow, error) {
	var rows []model.PermissionRow
	if err := GetDB(ctx, r.db).
		Where("role_id = ?", roleID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, apperror.Transport("list permission rows", err)
	}
	return rows, nil
}

func (r *permissionRepository) BulkCreate(ctx context.Context, rows []model.NewPermissionRow) error {
	if len(rows) == 0 {
		return nil
	}

	records := make([]model.PermissionRow, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.PermissionRow{
			RoleID:    row.RoleID,
			ModuleID:  row.ModuleID,
			Flags:     row.Flags,
			IsActive:  true,
			CreatedBy: row.CreatedBy,
			UpdatedBy: row.CreatedBy,
		})
	}

	// Batches are independent statements; a failure part way leaves earlier batches in place.
	if err := GetDB(ctx, r.db).Session(&gorm.Session{SkipDefaultTransaction: true}).
		CreateInBatches(records, bulkCreateBatchSize).Error; err != nil {
		return apperror.Transport("bulk create permission rows", err)
	}
	return nil
}

func (r *permissionRepository) Update(ctx context.Context, upd model.PermissionRowUpdate) error {
	res := GetDB(ctx, r.db).Model(&model.PermissionRow{}).
		Where("id = ?", upd.RowID).
		Updates(map[string]interface{}{
			"can_view":         upd.Flags.View,
			"can_add":          upd.Flags.Add,
			"can_edit":         upd.Flags.Edit,
			"can_delete":       upd.Flags.Delete,
			"can_approve":      upd.Flags.Approve,
			"can_lock":         upd.Flags.Lock,
			"can_restore":      upd.Flags.Restore,
			"can_manage_users": upd.Flags.ManageUsers,
			"is_active":        true,
			"updated_by":       upd.UpdatedBy,
		})
	if res.Error != nil {
		return apperror.Transport("update permission row", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("permission row", upd.RowID.String())
	}
	return nil
}
