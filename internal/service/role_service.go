package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"roleconsole/internal/cache"
	"roleconsole/internal/model"
	"roleconsole/internal/permission"
	"roleconsole/internal/repository"
	"roleconsole/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProtectedRole is returned when deleting a system role or the super admin role
var ErrProtectedRole = errors.New("role is protected and cannot be deleted")

// SuperAdminRoleName is matched case-insensitively
const SuperAdminRoleName = "Super Admin"

// selectAllAction toggles every flag of a module at once
const selectAllAction = "all"

// --- DTOs ---

type CreateRoleRequest struct {
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	RoleCode            string            `json:"role_code"`
	DefaultDashboardURL string            `json:"default_dashboard_url"`
	Permissions         permission.Matrix `json:"permissions"`
}

type UpdateRoleRequest struct {
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	RoleCode            string            `json:"role_code"`
	DefaultDashboardURL string            `json:"default_dashboard_url"`
	Permissions         permission.Matrix `json:"permissions"`
}

type TogglePermissionRequest struct {
	// Action is one of the eight flag names, or "all" to select/clear the whole module
	Action string `json:"action" binding:"required"`
}

type RoleResponse struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	RoleCode            string            `json:"role_code"`
	DefaultDashboardURL string            `json:"default_dashboard_url"`
	IsSystem            bool              `json:"is_system"`
	Permissions         permission.Matrix `json:"permissions"`
	EnabledModules      []string          `json:"enabled_modules"`
	CreatedAt           string            `json:"created_at"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context, page, limit int) ([]RoleResponse, int64, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest, actorID int64) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest, actorID int64) (*RoleResponse, error)
	TogglePermission(ctx context.Context, id, moduleID, action string, actorID int64) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string, actorID int64) error
	ListCatalog(ctx context.Context, onlyActive bool) ([]model.Category, error)
	// PermissionsForRole returns the stored matrix of an active role
	PermissionsForRole(ctx context.Context, roleID uuid.UUID) (permission.Matrix, error)
}

// Notifier receives an event after every successful mutation
type Notifier interface {
	Publish(event string, data map[string]interface{})
}

type roleService struct {
	roles      repository.RoleRepository
	catalog    repository.CatalogRepository
	reconciler *Reconciler
	roster     *RosterLoader
	audit      AuditService
	permCache  cache.PermissionCache
	notifier   Notifier
	log        *zap.Logger
}

// RoleServiceDeps bundles the collaborators of the role service. PermCache and Notifier are optional.
type RoleServiceDeps struct {
	Roles      repository.RoleRepository
	Catalog    repository.CatalogRepository
	Reconciler *Reconciler
	Roster     *RosterLoader
	Audit      AuditService
	PermCache  cache.PermissionCache
	Notifier   Notifier
	Log        *zap.Logger
}

func NewRoleService(deps RoleServiceDeps) RoleService {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &roleService{
		roles:      deps.Roles,
		catalog:    deps.Catalog,
		reconciler: deps.Reconciler,
		roster:     deps.Roster,
		audit:      deps.Audit,
		permCache:  deps.PermCache,
		notifier:   deps.Notifier,
		log:        log,
	}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context, page, limit int) ([]RoleResponse, int64, error) {
	modules, err := s.activeModules(ctx)
	if err != nil {
		return nil, 0, err
	}

	roster, err := s.roster.Load(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RoleResponse, 0, len(roster.Roles))
	for _, r := range roster.Roles {
		res = append(res, toRoleResponse(r, modules))
	}
	return res, roster.Total, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := parseRoleID(id)
	if err != nil {
		return nil, err
	}
	modules, err := s.activeModules(ctx)
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, roleID, modules)
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest, actorID int64) (*RoleResponse, error) {
	draft, err := RoleDraft{
		Name:                req.Name,
		Description:         req.Description,
		RoleCode:            req.RoleCode,
		DefaultDashboardURL: req.DefaultDashboardURL,
	}.normalize()
	if err != nil {
		return nil, err
	}

	modules, err := s.activeModules(ctx)
	if err != nil {
		return nil, err
	}

	out, err := s.reconciler.Save(ctx, SaveRequest{
		Draft:   draft,
		Edited:  req.Permissions.Complete(modules),
		Modules: modules,
		ActorID: actorID,
	})
	if err != nil {
		s.invalidate(ctx, out.RoleID)
		return nil, err
	}

	s.afterSave(ctx, out, model.ActionCreateRole, draft.Name, actorID)
	return s.reload(ctx, out.RoleID, modules)
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest, actorID int64) (*RoleResponse, error) {
	roleID, err := parseRoleID(id)
	if err != nil {
		return nil, err
	}
	draft, err := RoleDraft{
		Name:                req.Name,
		Description:         req.Description,
		RoleCode:            req.RoleCode,
		DefaultDashboardURL: req.DefaultDashboardURL,
	}.normalize()
	if err != nil {
		return nil, err
	}

	modules, err := s.activeModules(ctx)
	if err != nil {
		return nil, err
	}

	current, err := s.roster.LoadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	previousDraft := current.Draft()
	draft.IsSystem = current.IsSystem

	out, err := s.reconciler.Save(ctx, SaveRequest{
		RoleID:        roleID,
		Draft:         draft,
		PreviousDraft: &previousDraft,
		Edited:        req.Permissions.Complete(modules),
		Previous:      current.Permissions,
		Modules:       modules,
		ActorID:       actorID,
	})
	if err != nil {
		s.invalidate(ctx, out.RoleID)
		return nil, err
	}

	s.afterSave(ctx, out, model.ActionUpdateRole, draft.Name, actorID)
	return s.reload(ctx, roleID, modules)
}

func (s *roleService) TogglePermission(ctx context.Context, id, moduleID, action string, actorID int64) (*RoleResponse, error) {
	roleID, err := parseRoleID(id)
	if err != nil {
		return nil, err
	}
	modules, err := s.activeModules(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(modules, func(m model.Module) bool { return m.ID == moduleID }) {
		return nil, apperror.NotFound("module", moduleID)
	}

	current, err := s.roster.LoadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	var edited permission.Matrix
	if action == selectAllAction {
		edited = permission.SelectAll(moduleID, current.Permissions)
	} else {
		a, err := permission.ParseAction(action)
		if err != nil {
			return nil, &apperror.ValidationError{Fields: []apperror.FieldError{{Field: "action", Tag: "oneof"}}}
		}
		edited = permission.Toggle(moduleID, a, current.Permissions)
	}

	draft := current.Draft()
	out, err := s.reconciler.Save(ctx, SaveRequest{
		RoleID:        roleID,
		Draft:         draft,
		PreviousDraft: &draft,
		Edited:        edited.Complete(modules),
		Previous:      current.Permissions,
		Modules:       modules,
		ActorID:       actorID,
	})
	if err != nil {
		s.invalidate(ctx, out.RoleID)
		return nil, err
	}

	s.afterSave(ctx, out, model.ActionTogglePermission, current.Name, actorID)
	return s.reload(ctx, roleID, modules)
}

func (s *roleService) DeleteRole(ctx context.Context, id string, actorID int64) error {
	roleID, err := parseRoleID(id)
	if err != nil {
		return err
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem || strings.EqualFold(strings.TrimSpace(role.Name), SuperAdminRoleName) {
		return fmt.Errorf("cannot delete role '%s': %w", role.Name, ErrProtectedRole)
	}

	if err := s.roles.SoftDelete(ctx, roleID, actorID); err != nil {
		return err
	}

	s.afterSave(ctx, Outcome{RoleID: roleID}, model.ActionDeleteRole, role.Name, actorID)
	return nil
}

func (s *roleService) ListCatalog(ctx context.Context, onlyActive bool) ([]model.Category, error) {
	return s.catalog.ListCategories(ctx, onlyActive)
}

func (s *roleService) PermissionsForRole(ctx context.Context, roleID uuid.UUID) (permission.Matrix, error) {
	role, err := s.roster.LoadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// --- Helpers ---

func (s *roleService) activeModules(ctx context.Context) ([]model.Module, error) {
	categories, err := s.catalog.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}
	return model.ModulesInOrder(categories), nil
}

func (s *roleService) reload(ctx context.Context, roleID uuid.UUID, modules []model.Module) (*RoleResponse, error) {
	role, err := s.roster.LoadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	resp := toRoleResponse(role, modules)
	return &resp, nil
}

// afterSave runs the side effects of a completed save. None of them can fail the save.
func (s *roleService) afterSave(ctx context.Context, out Outcome, action, roleName string, actorID int64) {
	s.invalidate(ctx, out.RoleID)

	if s.audit != nil {
		details := map[string]interface{}{
			"role_created":        out.RoleCreated,
			"role_updated":        out.RoleUpdated,
			"permissions_changed": out.PermissionsChanged,
			"rows_created":        out.Created,
			"rows_updated":        out.Updated,
		}
		if err := s.audit.Record(ctx, actorID, action, out.RoleID.String(), roleName, details); err != nil {
			s.log.Warn("failed to write audit log", zap.String("role_id", out.RoleID.String()), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.Publish("roles.changed", map[string]interface{}{
			"role_id": out.RoleID.String(),
			"action":  action,
		})
	}
}

// invalidate drops the cached matrix of roleID. A failed save may have written
// some rows already, so it is called on error paths as well.
func (s *roleService) invalidate(ctx context.Context, roleID uuid.UUID) {
	if s.permCache == nil || roleID == uuid.Nil {
		return
	}
	if err := s.permCache.Invalidate(ctx, roleID); err != nil {
		s.log.Warn("failed to invalidate permission cache", zap.String("role_id", roleID.String()), zap.Error(err))
	}
}

func parseRoleID(id string) (uuid.UUID, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, &apperror.ValidationError{Fields: []apperror.FieldError{{Field: "id", Tag: "uuid"}}}
	}
	return roleID, nil
}

func toRoleResponse(r Role, modules []model.Module) RoleResponse {
	enabled := slices.Collect(r.EnabledModuleNames(modules))
	if enabled == nil {
		enabled = []string{}
	}

	return RoleResponse{
		ID:                  r.ID.String(),
		Name:                r.Name,
		Description:         r.Description,
		RoleCode:            r.RoleCode,
		DefaultDashboardURL: r.DefaultDashboardURL,
		IsSystem:            r.IsSystem,
		Permissions:         r.Permissions.Complete(modules),
		EnabledModules:      enabled,
		CreatedAt:           r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
