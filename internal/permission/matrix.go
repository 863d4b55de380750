package permission

import (
	"iter"

	"roleconsole/internal/model"
)

// Matrix maps a module id to the Set a role holds on it. A missing entry means all-false.
type Matrix map[string]Set

// Get returns the Set for moduleID, all-false when absent
func (m Matrix) Get(moduleID string) Set {
	return m[moduleID]
}

// Clone returns an independent copy of m. Cloning nil yields nil.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Complete returns a copy of m with an entry for every module, filling gaps with all-false
func (m Matrix) Complete(modules []model.Module) Matrix {
	out := make(Matrix, len(modules))
	for _, mod := range modules {
		out[mod.ID] = m[mod.ID]
	}
	return out
}

// FromRows assembles a Matrix from stored rows. Inactive rows read as all-false.
// When a module has several active rows the first one wins, the same row a sync overwrites.
func FromRows(rows []model.PermissionRow) Matrix {
	m := make(Matrix, len(rows))
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		if _, seen := m[row.ModuleID]; seen {
			continue
		}
		m[row.ModuleID] = Set(row.Flags)
	}
	return m
}

// Toggle flips exactly one flag of one module, leaving the other seven untouched
func Toggle(moduleID string, a Action, m Matrix) Matrix {
	out := m.Clone()
	if out == nil {
		out = Matrix{}
	}
	cur := out[moduleID]
	out[moduleID] = cur.With(a, !cur.Has(a))
	return out
}

// SelectAll clears every flag of a module when all are on, otherwise turns all of them on.
// Applying it twice restores the input only for an all-on or all-off Set; a mixed Set ends all-off.
func SelectAll(moduleID string, m Matrix) Matrix {
	out := m.Clone()
	if out == nil {
		out = Matrix{}
	}
	if out[moduleID].IsAll() {
		out[moduleID] = Set{}
	} else {
		out[moduleID] = All()
	}
	return out
}

// Changed reports whether edited differs from previous for any module in catalog order.
// A module with no entry in previous always counts as changed.
func Changed(previous, edited Matrix, modules []model.Module) bool {
	for _, mod := range modules {
		prev, ok := previous[mod.ID]
		if !ok {
			return true
		}
		if prev != edited[mod.ID] {
			return true
		}
	}
	return false
}

// EnabledModuleNames yields, in catalog order, the names of modules where m holds at least one flag.
// The sequence reads m lazily and can be ranged over any number of times.
func EnabledModuleNames(m Matrix, catalog []model.Module) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, mod := range catalog {
			if !m[mod.ID].Any() {
				continue
			}
			if !yield(mod.Name) {
				return
			}
		}
	}
}
