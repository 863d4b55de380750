// Package permission holds the in-memory permission matrix of a role and the
// pure helpers the console uses to edit and compare it.
package permission

import (
	"fmt"

	"roleconsole/internal/model"
)

// Action names one of the eight flags of a Set
type Action string

const (
	ActionView        Action = "view"
	ActionAdd         Action = "add"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionApprove     Action = "approve"
	ActionLock        Action = "lock"
	ActionRestore     Action = "restore"
	ActionManageUsers Action = "manage_users"
)

// Actions lists every flag in display order
var Actions = []Action{
	ActionView, ActionAdd, ActionEdit, ActionDelete,
	ActionApprove, ActionLock, ActionRestore, ActionManageUsers,
}

// ParseAction validates an action name coming from a request
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown permission action %q", s)
}

// Set is the eight capability flags for one (role, module) pair. The zero value is all-false.
type Set model.PermissionFlags

// All returns a Set with every flag on
func All() Set {
	return Set{View: true, Add: true, Edit: true, Delete: true, Approve: true, Lock: true, Restore: true, ManageUsers: true}
}

// Has reports whether the flag for a is on
func (s Set) Has(a Action) bool {
	switch a {
	case ActionView:
		return s.View
	case ActionAdd:
		return s.Add
	case ActionEdit:
		return s.Edit
	case ActionDelete:
		return s.Delete
	case ActionApprove:
		return s.Approve
	case ActionLock:
		return s.Lock
	case ActionRestore:
		return s.Restore
	case ActionManageUsers:
		return s.ManageUsers
	}
	return false
}

// With returns a copy of s with the flag for a set to v
func (s Set) With(a Action, v bool) Set {
	switch a {
	case ActionView:
		s.View = v
	case ActionAdd:
		s.Add = v
	case ActionEdit:
		s.Edit = v
	case ActionDelete:
		s.Delete = v
	case ActionApprove:
		s.Approve = v
	case ActionLock:
		s.Lock = v
	case ActionRestore:
		s.Restore = v
	case ActionManageUsers:
		s.ManageUsers = v
	}
	return s
}

// Any reports whether at least one flag is on
func (s Set) Any() bool {
	return s != Set{}
}

// IsAll reports whether every flag is on
func (s Set) IsAll() bool {
	return s == All()
}

// Flags converts s to its storage form
func (s Set) Flags() model.PermissionFlags {
	return model.PermissionFlags(s)
}
