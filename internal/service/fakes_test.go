package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"roleconsole/internal/model"
	"roleconsole/internal/permission"
	"roleconsole/pkg/apperror"

	"github.com/google/uuid"
)

// fakeRoleRepo keeps roles in insertion order
type fakeRoleRepo struct {
	mu      sync.Mutex
	order   []uuid.UUID
	roles   map[uuid.UUID]*model.Role
	calls   []string
	errOn   map[string]error
	deleted map[uuid.UUID]int64
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:   map[uuid.UUID]*model.Role{},
		errOn:   map[string]error{},
		deleted: map[uuid.UUID]int64{},
	}
}

func (f *fakeRoleRepo) add(name string, system bool) model.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := model.Role{
		ID:        uuid.New(),
		Name:      name,
		IsSystem:  system,
		IsActive:  true,
		CreatedAt: time.Date(2026, 1, len(f.order)+1, 9, 0, 0, 0, time.UTC),
	}
	f.roles[r.ID] = &r
	f.order = append(f.order, r.ID)
	return r
}

func (f *fakeRoleRepo) record(call string) error {
	f.calls = append(f.calls, call)
	return f.errOn[call]
}

func (f *fakeRoleRepo) ListPage(_ context.Context, page, pageSize int) ([]model.Role, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPage"); err != nil {
		return nil, 0, err
	}
	var active []model.Role
	for _, id := range f.order {
		if r := f.roles[id]; r.IsActive {
			active = append(active, *r)
		}
	}
	start := (page - 1) * pageSize
	if start > len(active) {
		start = len(active)
	}
	end := min(start+pageSize, len(active))
	return active[start:end], int64(len(active)), nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByID"); err != nil {
		return nil, err
	}
	r, ok := f.roles[id]
	if !ok || !r.IsActive {
		return nil, apperror.NotFound("role", id.String())
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoleRepo) FindByName(_ context.Context, name string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByName"); err != nil {
		return nil, err
	}
	for _, id := range f.order {
		if r := f.roles[id]; r.IsActive && strings.EqualFold(r.Name, name) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("role", name)
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Create"); err != nil {
		return err
	}
	role.ID = uuid.New()
	role.IsActive = true
	role.CreatedAt = time.Now()
	cp := *role
	f.roles[role.ID] = &cp
	f.order = append(f.order, role.ID)
	return nil
}

func (f *fakeRoleRepo) Update(_ context.Context, id uuid.UUID, upd model.RoleUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Update"); err != nil {
		return err
	}
	r, ok := f.roles[id]
	if !ok || !r.IsActive {
		return apperror.NotFound("role", id.String())
	}
	r.Name = upd.Name
	r.Description = upd.Description
	r.RoleCode = upd.RoleCode
	r.DefaultDashboardURL = upd.DefaultDashboardURL
	r.IsSystem = upd.IsSystem
	r.UpdatedBy = upd.UpdatedBy
	return nil
}

func (f *fakeRoleRepo) SoftDelete(_ context.Context, id uuid.UUID, performedBy int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SoftDelete"); err != nil {
		return err
	}
	r, ok := f.roles[id]
	if !ok || !r.IsActive {
		return apperror.NotFound("role", id.String())
	}
	r.IsActive = false
	f.deleted[id] = performedBy
	return nil
}

// fakePermRepo records every call in order. It is safe for concurrent ListByRole calls.
type fakePermRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID][]model.PermissionRow
	calls    []string
	bulk     [][]model.NewPermissionRow
	updates  []model.PermissionRowUpdate
	listErr  map[uuid.UUID]error
	bulkErr  error
	updateOn int // 1-based index of the update that fails; 0 for none
	updateEr error

	// gates block ListByRole for a role until closed; done reports each finished fetch
	gates map[uuid.UUID]chan struct{}
	done  chan uuid.UUID
}

func newFakePermRepo() *fakePermRepo {
	return &fakePermRepo{
		rows:    map[uuid.UUID][]model.PermissionRow{},
		listErr: map[uuid.UUID]error{},
	}
}

func (f *fakePermRepo) seed(roleID uuid.UUID, moduleID string, s permission.Set) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := model.PermissionRow{
		ID:       uuid.New(),
		RoleID:   roleID,
		ModuleID: moduleID,
		Flags:    s.Flags(),
		IsActive: true,
	}
	f.rows[roleID] = append(f.rows[roleID], row)
	return row.ID
}

func (f *fakePermRepo) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePermRepo) ListByRole(ctx context.Context, roleID uuid.UUID) ([]model.PermissionRow, error) {
	f.mu.Lock()
	gate := f.gates[roleID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, "ListByRole")
	err := f.listErr[roleID]
	rows := append([]model.PermissionRow(nil), f.rows[roleID]...)
	done := f.done
	f.mu.Unlock()

	if done != nil {
		defer func() { done <- roleID }()
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *fakePermRepo) BulkCreate(_ context.Context, rows []model.NewPermissionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "BulkCreate")
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.bulk = append(f.bulk, rows)
	for _, r := range rows {
		f.rows[r.RoleID] = append(f.rows[r.RoleID], model.PermissionRow{
			ID:       uuid.New(),
			RoleID:   r.RoleID,
			ModuleID: r.ModuleID,
			Flags:    r.Flags,
			IsActive: true,
		})
	}
	return nil
}

func (f *fakePermRepo) Update(_ context.Context, upd model.PermissionRowUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Update:"+upd.ModuleID)
	if f.updateOn > 0 && len(f.updates)+1 == f.updateOn {
		return f.updateEr
	}
	f.updates = append(f.updates, upd)
	for roleID, rows := range f.rows {
		for i := range rows {
			if rows[i].ID == upd.RowID {
				f.rows[roleID][i].Flags = upd.Flags
				f.rows[roleID][i].IsActive = true
				return nil
			}
		}
	}
	return apperror.NotFound("permission row", upd.RowID.String())
}

type fakeCatalogRepo struct {
	categories []model.Category
	err        error
	listCalls  int
}

func (f *fakeCatalogRepo) ListCategories(_ context.Context, onlyActive bool) ([]model.Category, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	if !onlyActive {
		return f.categories, nil
	}
	var out []model.Category
	for _, c := range f.categories {
		if !c.IsActive {
			continue
		}
		cp := c
		cp.Modules = nil
		for _, m := range c.Modules {
			if m.IsActive {
				cp.Modules = append(cp.Modules, m)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeCatalogRepo) UpsertCategory(_ context.Context, category *model.Category) error {
	for i := range f.categories {
		if f.categories[i].Code == category.Code {
			modules := f.categories[i].Modules
			f.categories[i] = *category
			f.categories[i].Modules = modules
			return nil
		}
	}
	c := *category
	c.Modules = nil
	f.categories = append(f.categories, c)
	return nil
}

func (f *fakeCatalogRepo) UpsertModule(_ context.Context, module *model.Module) error {
	for i := range f.categories {
		if f.categories[i].Code != module.CategoryCode {
			continue
		}
		for j := range f.categories[i].Modules {
			if f.categories[i].Modules[j].ID == module.ID {
				f.categories[i].Modules[j] = *module
				return nil
			}
		}
		f.categories[i].Modules = append(f.categories[i].Modules, *module)
		return nil
	}
	return fmt.Errorf("unknown category %q", module.CategoryCode)
}

type fakeTx struct{ runs int }

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.runs++
	return fn(ctx)
}

type auditEntry struct {
	actorID  int64
	action   string
	entityID string
}

type fakeAudit struct {
	entries []auditEntry
	err     error
}

func (f *fakeAudit) GetAuditLogs(context.Context, int, int) ([]AuditLogResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeAudit) Record(_ context.Context, actorID int64, action, entityID, _ string, _ map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, auditEntry{actorID: actorID, action: action, entityID: entityID})
	return nil
}

type fakeCache struct {
	invalidated []uuid.UUID
}

func (f *fakeCache) Get(context.Context, uuid.UUID) (permission.Matrix, bool, error) {
	return nil, false, nil
}

func (f *fakeCache) Set(context.Context, uuid.UUID, permission.Matrix) error { return nil }

func (f *fakeCache) Invalidate(_ context.Context, roleID uuid.UUID) error {
	f.invalidated = append(f.invalidated, roleID)
	return nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Publish(event string, _ map[string]interface{}) {
	f.events = append(f.events, event)
}

func testModules() []model.Module {
	return []model.Module{
		{ID: "A", Name: "Alpha", IsActive: true},
		{ID: "B", Name: "Bravo", IsActive: true},
		{ID: "C", Name: "Charlie", IsActive: true},
	}
}

func testCatalog() []model.Category {
	return []model.Category{{Code: "core", Name: "Core", IsActive: true, Modules: testModules()}}
}

func set(actions ...permission.Action) permission.Set {
	var s permission.Set
	for _, a := range actions {
		s = s.With(a, true)
	}
	return s
}
