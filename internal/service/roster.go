package service

import (
	"context"
	"iter"
	"time"

	"roleconsole/internal/model"
	"roleconsole/internal/observability"
	"roleconsole/internal/permission"
	"roleconsole/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Role is a role summary joined with its permission matrix
type Role struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	RoleCode            string
	DefaultDashboardURL string
	IsSystem            bool
	CreatedAt           time.Time
	Permissions         permission.Matrix
}

// Draft returns the editable metadata of r
func (r Role) Draft() RoleDraft {
	return RoleDraft{
		Name:                r.Name,
		Description:         r.Description,
		RoleCode:            r.RoleCode,
		DefaultDashboardURL: r.DefaultDashboardURL,
		IsSystem:            r.IsSystem,
	}
}

// EnabledModuleNames yields the catalog names of modules where r holds any flag
func (r Role) EnabledModuleNames(catalog []model.Module) iter.Seq[string] {
	return permission.EnabledModuleNames(r.Permissions, catalog)
}

func assembleRole(summary model.Role, rows []model.PermissionRow) Role {
	return Role{
		ID:                  summary.ID,
		Name:                summary.Name,
		Description:         summary.Description,
		RoleCode:            summary.RoleCode,
		DefaultDashboardURL: summary.DefaultDashboardURL,
		IsSystem:            summary.IsSystem,
		CreatedAt:           summary.CreatedAt,
		Permissions:         permission.FromRows(rows),
	}
}

// Roster is one page of roles in role-store order
type Roster struct {
	Roles []Role
	Total int64
}

// RosterLoader reads a page of roles and fetches every role's permissions concurrently.
// Nothing is cached; every call goes to the stores.
type RosterLoader struct {
	roles repository.RoleRepository
	perms repository.PermissionRepository
	// fanoutLimit caps concurrent permission fetches; 0 or less means one goroutine per role
	fanoutLimit int
	log         *zap.Logger
	metrics     *observability.Metrics
}

func NewRosterLoader(roles repository.RoleRepository, perms repository.PermissionRepository, fanoutLimit int, log *zap.Logger, metrics *observability.Metrics) *RosterLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &RosterLoader{roles: roles, perms: perms, fanoutLimit: fanoutLimit, log: log, metrics: metrics}
}

// Load returns the roles of one page with their matrices, index-aligned with the
// page order. If any permission fetch fails, the whole load fails with that error
// and no partial roster is returned. Fetches already in flight are left to finish.
func (l *RosterLoader) Load(ctx context.Context, page, pageSize int) (Roster, error) {
	start := time.Now()

	summaries, total, err := l.roles.ListPage(ctx, page, pageSize)
	if err != nil {
		l.metrics.ObserveRosterLoad(err)
		return Roster{}, err
	}

	rows := make([][]model.PermissionRow, len(summaries))

	// Plain Group: siblings get no cancellation signal when one fetch fails.
	var g errgroup.Group
	if l.fanoutLimit > 0 {
		g.SetLimit(l.fanoutLimit)
	}
	for i, summary := range summaries {
		g.Go(func() error {
			fetched, err := l.perms.ListByRole(ctx, summary.ID)
			if err != nil {
				return err
			}
			rows[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.log.Error("roster load failed", zap.Int("page", page), zap.Int("roles", len(summaries)), zap.Error(err))
		l.metrics.ObserveRosterLoad(err)
		return Roster{}, err
	}

	roster := Roster{Roles: make([]Role, 0, len(summaries)), Total: total}
	for i, summary := range summaries {
		roster.Roles = append(roster.Roles, assembleRole(summary, rows[i]))
	}

	l.metrics.ObserveRosterLoad(nil)
	l.log.Debug("roster loaded",
		zap.Int("page", page),
		zap.Int("roles", len(roster.Roles)),
		zap.Int64("total", total),
		zap.Duration("duration", time.Since(start)),
	)
	return roster, nil
}

// LoadRole reads a single active role with its matrix
func (l *RosterLoader) LoadRole(ctx context.Context, id uuid.UUID) (Role, error) {
	summary, err := l.roles.FindByID(ctx, id)
	if err != nil {
		return Role{}, err
	}
	rows, err := l.perms.ListByRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	return assembleRole(*summary, rows), nil
}
