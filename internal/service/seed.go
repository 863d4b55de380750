package service

import (
	"context"
	"errors"
	"fmt"

	"roleconsole/internal/model"
	"roleconsole/internal/permission"
	"roleconsole/internal/repository"
	"roleconsole/pkg/apperror"

	"go.uber.org/zap"
)

// SystemActorID is recorded as the actor of writes made by the server itself
const SystemActorID int64 = 0

// DefaultCatalog is the module catalog installed on a fresh database
var DefaultCatalog = []model.Category{
	{Code: "administration", Name: "Administration", DisplayOrder: 1, IsActive: true, Modules: []model.Module{
		{ID: "roles", Name: "Roles & Permissions", Description: "Manage roles and their permission matrix", DisplayOrder: 1, IsActive: true},
		{ID: "users", Name: "Users", Description: "Manage console users", DisplayOrder: 2, IsActive: true},
		{ID: "audit_logs", Name: "Audit Logs", Description: "Review the change history", DisplayOrder: 3, IsActive: true},
	}},
	{Code: "operations", Name: "Operations", DisplayOrder: 2, IsActive: true, Modules: []model.Module{
		{ID: "dashboard", Name: "Dashboard", Description: "Overview and statistics", DisplayOrder: 1, IsActive: true},
		{ID: "inventory", Name: "Inventory", Description: "Stock and warehouse", DisplayOrder: 2, IsActive: true},
		{ID: "orders", Name: "Orders", Description: "Sales and purchase orders", DisplayOrder: 3, IsActive: true},
	}},
	{Code: "finance", Name: "Finance", DisplayOrder: 3, IsActive: true, Modules: []model.Module{
		{ID: "invoices", Name: "Invoices", Description: "Issue and track invoices", DisplayOrder: 1, IsActive: true},
		{ID: "expenses", Name: "Expenses", Description: "Record expenses", DisplayOrder: 2, IsActive: true},
		{ID: "approvals", Name: "Approvals", Description: "Approve or reject requests", DisplayOrder: 3, IsActive: true},
	}},
}

// Seeder installs the default catalog and the super admin role
type Seeder struct {
	tx         repository.TransactionManager
	catalog    repository.CatalogRepository
	roles      repository.RoleRepository
	perms      repository.PermissionRepository
	reconciler *Reconciler
	log        *zap.Logger
}

func NewSeeder(tx repository.TransactionManager, catalog repository.CatalogRepository, roles repository.RoleRepository, perms repository.PermissionRepository, reconciler *Reconciler, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{tx: tx, catalog: catalog, roles: roles, perms: perms, reconciler: reconciler, log: log}
}

// SeedDefaults upserts categories in one transaction, then makes sure the super admin
// role exists and holds every flag on every active module.
func (s *Seeder) SeedDefaults(ctx context.Context, categories []model.Category) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range categories {
			c := categories[i]
			if err := s.catalog.UpsertCategory(txCtx, &c); err != nil {
				return fmt.Errorf("failed to seed category '%s': %w", c.Code, err)
			}
			for j := range c.Modules {
				m := c.Modules[j]
				m.CategoryCode = c.Code
				if err := s.catalog.UpsertModule(txCtx, &m); err != nil {
					return fmt.Errorf("failed to seed module '%s': %w", m.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.ensureSuperAdmin(ctx)
}

func (s *Seeder) ensureSuperAdmin(ctx context.Context) error {
	active, err := s.catalog.ListCategories(ctx, true)
	if err != nil {
		return err
	}
	modules := model.ModulesInOrder(active)

	full := make(permission.Matrix, len(modules))
	for _, m := range modules {
		full[m.ID] = permission.All()
	}

	draft := RoleDraft{
		Name:        SuperAdminRoleName,
		Description: "Full access to every module",
		RoleCode:    "SUPER_ADMIN",
		IsSystem:    true,
	}

	req := SaveRequest{Draft: draft, Edited: full, Modules: modules, ActorID: SystemActorID}

	existing, err := s.roles.FindByName(ctx, SuperAdminRoleName)
	switch {
	case err == nil:
		rows, err := s.perms.ListByRole(ctx, existing.ID)
		if err != nil {
			return err
		}
		// Keep whatever metadata an operator gave the role; only the matrix is enforced.
		current := RoleDraft{
			Name:                existing.Name,
			Description:         existing.Description,
			RoleCode:            existing.RoleCode,
			DefaultDashboardURL: existing.DefaultDashboardURL,
			IsSystem:            existing.IsSystem,
		}
		req.RoleID = existing.ID
		req.Draft = current
		req.PreviousDraft = &current
		req.Previous = permission.FromRows(rows)
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return err
	}

	out, err := s.reconciler.Save(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to seed super admin role: %w", err)
	}

	s.log.Info("super admin role ready",
		zap.String("role_id", out.RoleID.String()),
		zap.Bool("created", out.RoleCreated),
		zap.Int("rows_created", out.Created),
		zap.Int("rows_updated", out.Updated),
	)
	return nil
}
