package authz

// Action is one of the four capabilities a permission cell grants.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions returns the closed action set in canonical order.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// ValidAction reports whether a is one of the four known actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Cell is a dense capability record for one module. The zero value denies
// every action.
type Cell struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Get returns the flag for the given action; unknown actions deny.
func (c Cell) Get(a Action) bool {
	switch a {
	case ActionCreate:
		return c.Create
	case ActionRead:
		return c.Read
	case ActionUpdate:
		return c.Update
	case ActionDelete:
		return c.Delete
	}
	return false
}

// With returns a copy of the cell with one action flag replaced.
func (c Cell) With(a Action, v bool) Cell {
	switch a {
	case ActionCreate:
		c.Create = v
	case ActionRead:
		c.Read = v
	case ActionUpdate:
		c.Update = v
	case ActionDelete:
		c.Delete = v
	}
	return c
}

// FilledCell returns a cell with every action set to v.
func FilledCell(v bool) Cell {
	return Cell{Create: v, Read: v, Update: v, Delete: v}
}

// Matrix is a dense permission matrix keyed by module. Modules absent from
// the map resolve to the zero Cell, i.e. full denial.
type Matrix map[string]Cell

// Get returns the cell for a module, the zero cell when absent.
func (m Matrix) Get(module string) Cell {
	if m == nil {
		return Cell{}
	}
	return m[module]
}

// Clone returns a deep copy of the matrix.
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

// Overrides is the sparse user-level permission layer. A module/action pair
// present here takes precedence over the role default; absent pairs inherit.
// The nesting mirrors the persisted JSON shape.
type Overrides map[string]map[Action]bool

// Get reports the override value for a cell and whether it is explicitly set.
func (o Overrides) Get(module string, action Action) (value bool, ok bool) {
	if o == nil {
		return false, false
	}
	row, ok := o[module]
	if !ok {
		return false, false
	}
	value, ok = row[action]
	return value, ok
}

// Set records an explicit override for one cell, creating the module row as
// needed.
func (o Overrides) Set(module string, action Action, v bool) {
	row, ok := o[module]
	if !ok {
		row = make(map[Action]bool, 4)
		o[module] = row
	}
	row[action] = v
}

// SetRow sets all four actions of one module to v.
func (o Overrides) SetRow(module string, v bool) {
	row := make(map[Action]bool, 4)
	for _, a := range Actions() {
		row[a] = v
	}
	o[module] = row
}

// Clone returns a deep copy of the overrides.
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for module, row := range o {
		cp := make(map[Action]bool, len(row))
		for a, v := range row {
			cp[a] = v
		}
		out[module] = cp
	}
	return out
}

// IsEmpty reports whether no cell is explicitly set.
func (o Overrides) IsEmpty() bool {
	for _, row := range o {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// OverridesFromMatrix converts a dense matrix into a fully explicit override
// set covering every module of the matrix.
func OverridesFromMatrix(m Matrix) Overrides {
	out := make(Overrides, len(m))
	for module, cell := range m {
		row := make(map[Action]bool, 4)
		for _, a := range Actions() {
			row[a] = cell.Get(a)
		}
		out[module] = row
	}
	return out
}
