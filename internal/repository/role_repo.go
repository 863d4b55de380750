package repository

import (
	"context"
	"time"

	"roleconsole/internal/model"
	"roleconsole/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	// ListPage returns one page of active roles, oldest first, plus the total active count
	ListPage(ctx context.Context, page, pageSize int) ([]model.Role, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, id uuid.UUID, upd model.RoleUpdate) error
	SoftDelete(ctx context.Context, id uuid.UUID, performedBy int64) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) ListPage(ctx context.Context, page, pageSize int) ([]model.Role, int64, error) {
	var roles []model.Role
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Role{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, apperror.Transport("count roles", err)
	}

	offset := (page - 1) * pageSize
	if err := db.Where("is_active = ?", true).
		Order("created_at asc, name asc").
		Offset(offset).
		Limit(pageSize).
		Find(&roles).Error; err != nil {
		return nil, 0, apperror.Transport("list roles", err)
	}

	return roles, total, nil
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).First(&role, "id = ?", id).Error; err != nil {
		return nil, translate("find role", "role", id.String(), err)
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).
		Where("is_active = ? AND LOWER(name) = LOWER(?)", true, name).
		First(&role).Error; err != nil {
		return nil, translate("find role", "role", name, err)
	}
	return &role, nil
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	role.IsActive = true
	if err := GetDB(ctx, r.db).Create(role).Error; err != nil {
		return apperror.Transport("create role", err)
	}
	return nil
}

func (r *roleRepository) Update(ctx context.Context, id uuid.UUID, upd model.RoleUpdate) error {
	res := GetDB(ctx, r.db).Model(&model.Role{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"name":                  upd.Name,
			"description":           upd.Description,
			"role_code":             upd.RoleCode,
			"default_dashboard_url": upd.DefaultDashboardURL,
			"is_system":             upd.IsSystem,
			"updated_by":            upd.UpdatedBy,
		})
	if res.Error != nil {
		return apperror.Transport("update role", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("role", id.String())
	}
	return nil
}

func (r *roleRepository) SoftDelete(ctx context.Context, id uuid.UUID, performedBy int64) error {
	now := time.Now()
	res := GetDB(ctx, r.db).Model(&model.Role{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_by": performedBy,
			"deleted_at": now,
			"updated_by": performedBy,
		})
	if res.Error != nil {
		return apperror.Transport("delete role", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("role", id.String())
	}
	return nil
}
