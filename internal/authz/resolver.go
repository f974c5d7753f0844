package authz

// Subject is the authenticated actor a permission check runs against.
// Implementations must tolerate zero values; the resolver treats a nil
// subject as unauthenticated and denies everything.
type Subject interface {
	RoleKey() string
	PermissionOverrides() Overrides
}

// Resolver computes effective permission matrices from a catalog. All methods
// are pure and never return errors: missing or malformed data resolves to
// denial.
type Resolver struct {
	catalog Catalog
}

// NewResolver constructs a resolver over the given catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Catalog returns the registry the resolver was built with.
func (r *Resolver) Catalog() Catalog {
	return r.catalog
}

// RoleDefaults returns the complete default matrix for a role, covering every
// registry module. Unknown roles yield an all-false matrix.
func (r *Resolver) RoleDefaults(role string) Matrix {
	defaults := r.catalog.roleDefaults(role)
	out := make(Matrix, len(r.catalog.modules))
	for _, m := range r.catalog.modules {
		out[m.Key] = defaults.Get(m.Key)
	}
	return out
}

// Resolve merges user overrides onto role defaults cell by cell. A module can
// be partially overridden; anything the overrides leave unsaid inherits the
// role default verbatim.
func (r *Resolver) Resolve(role string, overrides Overrides) Matrix {
	out := r.RoleDefaults(role)
	for _, m := range r.catalog.modules {
		cell := out[m.Key]
		for _, a := range Actions() {
			if v, ok := overrides.Get(m.Key, a); ok {
				cell = cell.With(a, v)
			}
		}
		out[m.Key] = cell
	}
	return out
}

// Can is the single authorization predicate for module actions. It is false
// for a nil subject, an unregistered module or an unknown action.
func (r *Resolver) Can(sub Subject, module string, action Action) bool {
	if sub == nil {
		return false
	}
	if !r.catalog.HasModule(module) || !ValidAction(action) {
		return false
	}
	return r.Resolve(sub.RoleKey(), sub.PermissionOverrides()).Get(module).Get(action)
}

// IsManager reports whether the subject's role identity alone grants user
// administration. This is a second authorization axis, deliberately not
// expressed through the module matrix.
func (r *Resolver) IsManager(sub Subject) bool {
	if sub == nil {
		return false
	}
	return r.catalog.isManagerRole(sub.RoleKey())
}
