// Package cache keeps recently checked role matrices for the authorization middleware.
// The roster loader and the reconciliation engine never read from it.
package cache

import (
	"context"

	"roleconsole/internal/permission"

	"github.com/google/uuid"
)

// PermissionCache stores a role's matrix for a bounded time
type PermissionCache interface {
	// Get reports ok=false on a miss
	Get(ctx context.Context, roleID uuid.UUID) (permission.Matrix, bool, error)
	Set(ctx context.Context, roleID uuid.UUID, m permission.Matrix) error
	Invalidate(ctx context.Context, roleID uuid.UUID) error
}
