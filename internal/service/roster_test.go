package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"roleconsole/internal/permission"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterLoad_OrderIndependentOfArrival(t *testing.T) {
	roles := newFakeRoleRepo()
	perms := newFakePermRepo()
	r1 := roles.add("R1", false)
	r2 := roles.add("R2", false)
	r3 := roles.add("R3", false)
	perms.seed(r1.ID, "A", set(permission.ActionView))
	perms.seed(r2.ID, "B", set(permission.ActionAdd))
	perms.seed(r3.ID, "C", set(permission.ActionEdit))

	perms.gates = map[uuid.UUID]chan struct{}{
		r1.ID: make(chan struct{}),
		r2.ID: make(chan struct{}),
		r3.ID: make(chan struct{}),
	}
	perms.done = make(chan uuid.UUID, 3)

	loader := NewRosterLoader(roles, perms, 0, nil, nil)

	type result struct {
		roster Roster
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		roster, err := loader.Load(context.Background(), 1, 10)
		resCh <- result{roster, err}
	}()

	for _, id := range []uuid.UUID{r3.ID, r1.ID, r2.ID} {
		close(perms.gates[id])
		select {
		case got := <-perms.done:
			assert.Equal(t, id, got)
		case <-time.After(2 * time.Second):
			t.Fatal("fetch did not complete")
		}
	}

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, int64(3), res.roster.Total)

	names := make([]string, 0, len(res.roster.Roles))
	for _, r := range res.roster.Roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"R1", "R2", "R3"}, names)

	assert.True(t, res.roster.Roles[0].Permissions.Get("A").View)
	assert.True(t, res.roster.Roles[1].Permissions.Get("B").Add)
	assert.True(t, res.roster.Roles[2].Permissions.Get("C").Edit)
	assert.False(t, res.roster.Roles[0].Permissions.Get("B").Any())
}

func TestRosterLoad_OneFailureFailsWholeLoad(t *testing.T) {
	roles := newFakeRoleRepo()
	perms := newFakePermRepo()
	roles.add("R1", false)
	r2 := roles.add("R2", false)
	roles.add("R3", false)
	boom := errors.New("permission fetch for R2 failed")
	perms.listErr[r2.ID] = boom

	loader := NewRosterLoader(roles, perms, 2, nil, nil)
	roster, err := loader.Load(context.Background(), 1, 10)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, roster.Roles)
	assert.Zero(t, roster.Total)
}

func TestRosterLoad_ExcludesSoftDeleted(t *testing.T) {
	roles := newFakeRoleRepo()
	perms := newFakePermRepo()
	keep := roles.add("Keep", false)
	gone := roles.add("Gone", false)
	require.NoError(t, roles.SoftDelete(context.Background(), gone.ID, 7))

	roster, err := NewRosterLoader(roles, perms, 0, nil, nil).Load(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, roster.Roles, 1)
	assert.Equal(t, keep.ID, roster.Roles[0].ID)
	assert.Equal(t, int64(1), roster.Total)
}

func TestRosterLoad_RoleStoreFailure(t *testing.T) {
	roles := newFakeRoleRepo()
	boom := errors.New("role store down")
	roles.errOn["ListPage"] = boom

	_, err := NewRosterLoader(roles, newFakePermRepo(), 0, nil, nil).Load(context.Background(), 1, 10)

	assert.ErrorIs(t, err, boom)
}

func TestRole_EnabledModuleNames(t *testing.T) {
	role := Role{Permissions: permission.Matrix{
		"C": set(permission.ActionRestore),
		"A": set(permission.ActionView),
	}}

	names := slices.Collect(role.EnabledModuleNames(testModules()))

	assert.Equal(t, []string{"Alpha", "Charlie"}, names)
}
