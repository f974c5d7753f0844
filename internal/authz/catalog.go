package authz

// Module keys for the business areas permissions are scoped to.
const (
	ModuleDashboard = "dashboard"
	ModuleProduct   = "product"
	ModuleOrder     = "order"
	ModuleShipping  = "shipping"
	ModuleCustomer  = "customer"
	ModulePromotion = "promotion"
	ModuleCoupon    = "coupon"
	ModuleInventory = "inventory"
	ModuleReport    = "report"
	ModuleUser      = "user"
	ModuleSettings  = "settings"
)

// Canonical role keys.
const (
	RoleSuperadmin      = "superadmin"
	RoleAdmin           = "admin"
	RoleSellerOwner     = "seller_owner"
	RoleSellerAdmin     = "seller_admin"
	RoleSellerStaff     = "seller_staff"
	RoleSellerInventory = "seller_inventory"
)

// ModuleDescriptor identifies one business module in the registry.
type ModuleDescriptor struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// RoleDescriptor identifies one canonical role.
type RoleDescriptor struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Catalog is the immutable registry of modules, roles and role default
// matrices. It is the single source of truth for iteration order so the
// resolver, the editor endpoints and validation never drift apart.
type Catalog struct {
	modules  []ModuleDescriptor
	roles    []RoleDescriptor
	defaults map[string]Matrix
	managers map[string]struct{}
}

// NewCatalog builds a catalog from static configuration. All inputs are
// copied; the catalog never exposes mutable state.
func NewCatalog(modules []ModuleDescriptor, roles []RoleDescriptor, defaults map[string]Matrix, managerRoles []string) Catalog {
	c := Catalog{
		modules:  make([]ModuleDescriptor, len(modules)),
		roles:    make([]RoleDescriptor, len(roles)),
		defaults: make(map[string]Matrix, len(defaults)),
		managers: make(map[string]struct{}, len(managerRoles)),
	}
	copy(c.modules, modules)
	copy(c.roles, roles)
	for role, m := range defaults {
		c.defaults[role] = m.Clone()
	}
	for _, role := range managerRoles {
		c.managers[role] = struct{}{}
	}
	return c
}

// Modules returns the ordered module descriptors.
func (c Catalog) Modules() []ModuleDescriptor {
	out := make([]ModuleDescriptor, len(c.modules))
	copy(out, c.modules)
	return out
}

// Roles returns the ordered role descriptors.
func (c Catalog) Roles() []RoleDescriptor {
	out := make([]RoleDescriptor, len(c.roles))
	copy(out, c.roles)
	return out
}

// HasModule reports whether key names a registered module.
func (c Catalog) HasModule(key string) bool {
	for _, m := range c.modules {
		if m.Key == key {
			return true
		}
	}
	return false
}

// HasRole reports whether key names a canonical role.
func (c Catalog) HasRole(key string) bool {
	_, ok := c.defaults[key]
	return ok
}

func (c Catalog) isManagerRole(role string) bool {
	_, ok := c.managers[role]
	return ok
}

func (c Catalog) roleDefaults(role string) Matrix {
	return c.defaults[role]
}

// DefaultCatalog returns the production module and role registry.
func DefaultCatalog() Catalog {
	modules := []ModuleDescriptor{
		{Key: ModuleDashboard, Name: "Dashboard"},
		{Key: ModuleProduct, Name: "Products"},
		{Key: ModuleOrder, Name: "Orders"},
		{Key: ModuleShipping, Name: "Shipping"},
		{Key: ModuleCustomer, Name: "Customers"},
		{Key: ModulePromotion, Name: "Promotions"},
		{Key: ModuleCoupon, Name: "Coupons"},
		{Key: ModuleInventory, Name: "Inventory"},
		{Key: ModuleReport, Name: "Reports"},
		{Key: ModuleUser, Name: "Users"},
		{Key: ModuleSettings, Name: "Settings"},
	}
	roles := []RoleDescriptor{
		{Key: RoleSuperadmin, Name: "Super Admin"},
		{Key: RoleAdmin, Name: "Admin"},
		{Key: RoleSellerOwner, Name: "Seller Owner"},
		{Key: RoleSellerAdmin, Name: "Seller Admin"},
		{Key: RoleSellerStaff, Name: "Seller Staff"},
		{Key: RoleSellerInventory, Name: "Seller Inventory"},
	}

	full := FilledCell(true)
	readOnly := Cell{Read: true}
	readUpdate := Cell{Read: true, Update: true}
	noDelete := Cell{Create: true, Read: true, Update: true}

	defaults := map[string]Matrix{
		RoleSuperadmin: {
			ModuleDashboard: full, ModuleProduct: full, ModuleOrder: full,
			ModuleShipping: full, ModuleCustomer: full, ModulePromotion: full,
			ModuleCoupon: full, ModuleInventory: full, ModuleReport: full,
			ModuleUser: full, ModuleSettings: full,
		},
		RoleAdmin: {
			ModuleDashboard: full, ModuleProduct: full, ModuleOrder: full,
			ModuleShipping: full, ModuleCustomer: full, ModulePromotion: full,
			ModuleCoupon: full, ModuleInventory: full, ModuleReport: full,
			ModuleUser: noDelete, ModuleSettings: readUpdate,
		},
		RoleSellerOwner: {
			ModuleDashboard: full, ModuleProduct: full, ModuleOrder: full,
			ModuleShipping: full, ModuleCustomer: full, ModulePromotion: full,
			ModuleCoupon: full, ModuleInventory: full, ModuleReport: full,
			ModuleUser: readOnly, ModuleSettings: readUpdate,
		},
		RoleSellerAdmin: {
			ModuleDashboard: readOnly, ModuleProduct: full, ModuleOrder: noDelete,
			ModuleShipping: noDelete, ModuleCustomer: readUpdate,
			ModulePromotion: full, ModuleCoupon: full, ModuleInventory: readUpdate,
			ModuleReport: readOnly,
		},
		RoleSellerStaff: {
			ModuleDashboard: readOnly, ModuleProduct: readOnly,
			ModuleOrder: readUpdate, ModuleShipping: readUpdate,
			ModuleCustomer: readOnly, ModulePromotion: readOnly,
			ModuleCoupon: readOnly, ModuleInventory: readOnly,
		},
		// Inventory staff see products and stock only; absent modules
		// resolve to full denial.
		RoleSellerInventory: {
			ModuleDashboard: readOnly,
			ModuleProduct:   readUpdate,
			ModuleInventory: full,
			ModuleReport:    readOnly,
		},
	}

	return NewCatalog(modules, roles, defaults, []string{RoleSuperadmin, RoleAdmin})
}
