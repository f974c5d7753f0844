package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSelection is returned when an editor operation needs a selected
	// user and none is selected.
	ErrNoSelection = errors.New("authz: no user selected")
	// ErrSaveInFlight is returned while a previous Save has not resolved.
	ErrSaveInFlight = errors.New("authz: save already in flight")
)

// UserStore persists the override layer. The editor never writes anywhere
// else; the effective matrix is derived state and is not stored.
type UserStore interface {
	UpdatePermissions(ctx context.Context, userID string, role string, overrides Overrides) error
}

// Confirmer gates destructive editor operations.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Editor is the stateful workflow for inspecting and modifying one user's
// permission overrides. Edits operate on the sparse override layer, never on
// a denormalized effective matrix, so untouched cells keep inheriting role
// defaults. The editor is safe for use from a single session; concurrent
// sessions editing the same user are last-write-wins at the store.
type Editor struct {
	resolver *Resolver
	store    UserStore
	confirm  Confirmer

	mu       sync.Mutex
	selected bool
	userID   string
	role     string
	working  Overrides
	saving   bool
}

// NewEditor constructs an editor. A nil confirmer declines every destructive
// operation.
func NewEditor(resolver *Resolver, store UserStore, confirm Confirmer) *Editor {
	if confirm == nil {
		confirm = ConfirmerFunc(func(string) bool { return false })
	}
	return &Editor{resolver: resolver, store: store, confirm: confirm}
}

// SelectUser transitions into the editing state. The working matrix starts
// from the user's existing overrides, not the effective matrix.
func (e *Editor) SelectUser(userID, role string, overrides Overrides) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = true
	e.userID = userID
	e.role = role
	e.working = overrides.Clone()
	if e.working == nil {
		e.working = make(Overrides)
	}
}

// Selected reports whether a user is currently selected.
func (e *Editor) Selected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// UserID returns the selected user's identifier, empty when none.
func (e *Editor) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Role returns the role the working matrix is layered over.
func (e *Editor) Role() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.role
}

// Working returns a copy of the current override layer.
func (e *Editor) Working() Overrides {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working.Clone()
}

// Effective returns the resolved matrix for the current role and working
// overrides.
func (e *Editor) Effective() Matrix {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Resolve(e.role, e.working)
}

// ToggleCell flips one cell in the working matrix, creating the module row if
// absent. The new explicit value is the inverse of the current effective one.
func (e *Editor) ToggleCell(module string, action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return ErrNoSelection
	}
	current := e.resolver.Resolve(e.role, e.working).Get(module).Get(action)
	e.working.Set(module, action, !current)
	return nil
}

// SetModuleRow sets all four actions of one module to value.
func (e *Editor) SetModuleRow(module string, value bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return ErrNoSelection
	}
	e.working.SetRow(module, value)
	return nil
}

// SetAllModules replaces the working matrix with a fully explicit matrix in
// which every registry cell equals value. Unlike ToggleCell this is a total
// override, matching the bulk select-all intent.
func (e *Editor) SetAllModules(value bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return ErrNoSelection
	}
	next := make(Overrides)
	for _, m := range e.resolver.Catalog().Modules() {
		next.SetRow(m.Key, value)
	}
	e.working = next
	return nil
}

// IsOverridden reports whether a cell is explicitly set and differs from the
// role default. Display hint only; resolution never consults it.
func (e *Editor) IsOverridden(module string, action Action) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return false
	}
	v, ok := e.working.Get(module, action)
	if !ok {
		return false
	}
	return v != e.resolver.RoleDefaults(e.role).Get(module).Get(action)
}

// ChangeRole switches the selected user's role. Overrides made against the
// previous role are discarded so the new role's defaults take over fully.
func (e *Editor) ChangeRole(role string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return ErrNoSelection
	}
	e.role = role
	e.working = make(Overrides)
	return nil
}

// ApplyRoleDefaults replaces the working matrix with the current role's
// defaults, all cells explicit. When the working matrix holds cells that
// diverge from those defaults the operation is destructive and the confirmer
// is consulted first; declining leaves the working matrix untouched. With no
// divergent cells the defaults apply silently, so an immediate second call
// never prompts.
func (e *Editor) ApplyRoleDefaults() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return false, ErrNoSelection
	}
	defaults := e.resolver.RoleDefaults(e.role)
	if !e.working.IsEmpty() && e.divergesLocked(defaults) {
		if !e.confirm.Confirm("Replace hand-made overrides with role defaults?") {
			return false, nil
		}
	}
	e.working = OverridesFromMatrix(defaults)
	return true, nil
}

func (e *Editor) divergesLocked(defaults Matrix) bool {
	for module, row := range e.working {
		cell := defaults.Get(module)
		for a, v := range row {
			if v != cell.Get(a) {
				return true
			}
		}
	}
	return false
}

// Save persists {role, overrides} through the user store. The edit state is
// retained on failure so the operator can retry. A Save while a previous one
// is unresolved is rejected rather than queued.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.selected {
		e.mu.Unlock()
		return ErrNoSelection
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	e.saving = true
	userID := e.userID
	role := e.role
	overrides := e.working.Clone()
	e.mu.Unlock()

	err := e.store.UpdatePermissions(ctx, userID, role, overrides)

	e.mu.Lock()
	e.saving = false
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("authz: save permissions: %w", err)
	}
	return nil
}

// Cancel discards unsaved edits and returns to the unselected state. The
// confirmer is consulted; declining keeps the session as is.
func (e *Editor) Cancel() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return false, ErrNoSelection
	}
	if !e.confirm.Confirm("Discard unsaved permission changes?") {
		return false, nil
	}
	e.selected = false
	e.userID = ""
	e.role = ""
	e.working = nil
	return true, nil
}
