package service

import (
	"context"
	"strings"
	"time"

	"roleconsole/internal/model"
	"roleconsole/internal/observability"
	"roleconsole/internal/permission"
	"roleconsole/internal/repository"
	"roleconsole/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleDraft is the editable metadata of a role as submitted by the console
type RoleDraft struct {
	Name                string `validate:"required,max=100"`
	Description         string
	RoleCode            string `validate:"max=50"`
	DefaultDashboardURL string `validate:"max=255"`
	IsSystem            bool
}

// normalize trims the name and validates the draft without touching any store
func (d RoleDraft) normalize() (RoleDraft, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := validator.ValidateStruct(d); err != nil {
		return RoleDraft{}, err
	}
	return d, nil
}

// SaveRequest describes one role save: the role write followed by the permission sync
type SaveRequest struct {
	// RoleID is uuid.Nil when the role has to be created first
	RoleID uuid.UUID
	Draft  RoleDraft
	// PreviousDraft is the last-known metadata; nil always writes the metadata
	PreviousDraft *RoleDraft
	Edited        permission.Matrix
	// Previous is the last-known matrix; nil forces a full sync
	Previous permission.Matrix
	// Modules is the catalog in display order
	Modules []model.Module
	ActorID int64
}

// Outcome reports what a save wrote
type Outcome struct {
	RoleID             uuid.UUID
	RoleCreated        bool
	RoleUpdated        bool
	PermissionsChanged bool
	Created            int
	Updated            int
}

// writePlan is the remote diff for one role: rows to insert and rows to overwrite
type writePlan struct {
	creates []model.NewPermissionRow
	updates []model.PermissionRowUpdate
}

// Reconciler synchronizes an edited permission matrix with the permission store.
//
// Any difference between the edited and the last-known matrix triggers a full
// re-sync of every catalog module, not just the modules that changed. Creates go
// out in one bulk call that completes before the per-row updates start. There
// is no rollback: the first failing write stops the save and partial writes stay.
type Reconciler struct {
	roles   repository.RoleRepository
	perms   repository.PermissionRepository
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewReconciler(roles repository.RoleRepository, perms repository.PermissionRepository, log *zap.Logger, metrics *observability.Metrics) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{roles: roles, perms: perms, log: log, metrics: metrics}
}

// Save validates the draft, writes the role (create, or update when the metadata
// changed) and then reconciles its permissions. The returned Outcome is filled in
// as far as the save got, so a caller can see a created role id even on failure.
func (r *Reconciler) Save(ctx context.Context, req SaveRequest) (Outcome, error) {
	draft, err := req.Draft.normalize()
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{RoleID: req.RoleID}
	previous := req.Previous

	if req.RoleID == uuid.Nil {
		role := &model.Role{
			Name:                draft.Name,
			Description:         draft.Description,
			RoleCode:            draft.RoleCode,
			DefaultDashboardURL: draft.DefaultDashboardURL,
			IsSystem:            draft.IsSystem,
			CreatedBy:           req.ActorID,
			UpdatedBy:           req.ActorID,
		}
		if err := r.roles.Create(ctx, role); err != nil {
			r.metrics.ObserveReconcile("error", 0, 0)
			return out, err
		}
		out.RoleID = role.ID
		out.RoleCreated = true
		// A new role has nothing to compare against.
		previous = nil
	} else if req.PreviousDraft == nil || *req.PreviousDraft != draft {
		upd := model.RoleUpdate{
			Name:                draft.Name,
			Description:         draft.Description,
			RoleCode:            draft.RoleCode,
			DefaultDashboardURL: draft.DefaultDashboardURL,
			IsSystem:            draft.IsSystem,
			UpdatedBy:           req.ActorID,
		}
		if err := r.roles.Update(ctx, req.RoleID, upd); err != nil {
			r.metrics.ObserveReconcile("error", 0, 0)
			return out, err
		}
		out.RoleUpdated = true
	}

	synced, err := r.Reconcile(ctx, out.RoleID, req.Edited, previous, req.Modules, req.ActorID)
	out.PermissionsChanged = synced.PermissionsChanged
	out.Created = synced.Created
	out.Updated = synced.Updated
	return out, err
}

// Reconcile brings the stored rows of roleID in line with edited. When previous
// is non-nil and no catalog module differs from it, nothing is written.
func (r *Reconciler) Reconcile(ctx context.Context, roleID uuid.UUID, edited, previous permission.Matrix, modules []model.Module, actorID int64) (Outcome, error) {
	start := time.Now()
	out := Outcome{RoleID: roleID}

	if previous != nil && !permission.Changed(previous, edited, modules) {
		r.log.Debug("permissions unchanged", zap.String("role_id", roleID.String()))
		r.metrics.ObserveReconcile("noop", 0, 0)
		return out, nil
	}
	out.PermissionsChanged = true

	current, err := r.perms.ListByRole(ctx, roleID)
	if err != nil {
		r.fail(roleID, "fetch", err, out)
		return out, err
	}

	plan := planWrites(roleID, edited, current, modules, actorID)

	if len(plan.creates) > 0 {
		if err := r.perms.BulkCreate(ctx, plan.creates); err != nil {
			r.fail(roleID, "bulk create", err, out)
			return out, err
		}
		out.Created = len(plan.creates)
	}

	for _, upd := range plan.updates {
		if err := r.perms.Update(ctx, upd); err != nil {
			r.fail(roleID, "update", err, out, zap.String("module_id", upd.ModuleID))
			return out, err
		}
		out.Updated++
	}

	r.metrics.ObserveReconcile("synced", out.Created, out.Updated)
	r.log.Info("permissions synced",
		zap.String("role_id", roleID.String()),
		zap.Int("created", out.Created),
		zap.Int("updated", out.Updated),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (r *Reconciler) fail(roleID uuid.UUID, step string, err error, out Outcome, extra ...zap.Field) {
	r.metrics.ObserveReconcile("error", out.Created, out.Updated)
	fields := append([]zap.Field{
		zap.String("role_id", roleID.String()),
		zap.String("step", step),
		zap.Int("created", out.Created),
		zap.Int("updated", out.Updated),
		zap.Error(err),
	}, extra...)
	r.log.Error("permission sync aborted", fields...)
}

// planWrites classifies every catalog module: a module with a stored row becomes
// an update carrying that row id, any other module becomes a create. Modules are
// visited once each in catalog order; stored rows for modules outside the catalog
// are left alone.
func planWrites(roleID uuid.UUID, edited permission.Matrix, current []model.PermissionRow, modules []model.Module, actorID int64) writePlan {
	rowByModule := make(map[string]uuid.UUID, len(current))
	for _, row := range current {
		if _, seen := rowByModule[row.ModuleID]; !seen {
			rowByModule[row.ModuleID] = row.ID
		}
	}

	var plan writePlan
	visited := make(map[string]struct{}, len(modules))
	for _, mod := range modules {
		if _, dup := visited[mod.ID]; dup {
			continue
		}
		visited[mod.ID] = struct{}{}

		flags := edited[mod.ID].Flags()
		if rowID, ok := rowByModule[mod.ID]; ok {
			plan.updates = append(plan.updates, model.PermissionRowUpdate{
				RowID:     rowID,
				ModuleID:  mod.ID,
				Flags:     flags,
				UpdatedBy: actorID,
			})
			continue
		}
		plan.creates = append(plan.creates, model.NewPermissionRow{
			RoleID:    roleID,
			ModuleID:  mod.ID,
			Flags:     flags,
			CreatedBy: actorID,
		})
	}
	return plan
}
