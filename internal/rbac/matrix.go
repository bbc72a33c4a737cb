package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Module is a resource-domain key in the permission matrix.
type Module string

// Action is a verb key in the permission matrix.
type Action string

const (
	ModuleProducts    Module = "products"
	ModuleStock       Module = "stock"
	ModuleOrders      Module = "orders"
	ModuleSuppliers   Module = "suppliers"
	ModuleCustomers   Module = "customers"
	ModuleWarehouses  Module = "warehouses"
	ModuleBilling     Module = "billing"
	ModuleRentals     Module = "rentals"
	ModuleStorage     Module = "storage"
	ModuleLockers     Module = "lockers"
	ModuleMessaging   Module = "messaging"
	ModulePermissions Module = "permissions"
	ModuleUsers       Module = "users"
	ModuleTeam        Module = "team"
	ModuleAnalytics   Module = "analytics"
	ModuleInventory   Module = "inventory"
	ModuleShipping    Module = "shipping"
	ModuleSettings    Module = "settings"
	ModuleAudit       Module = "audit"
	ModuleCategories  Module = "categories"
	ModuleCart        Module = "cart"
	ModuleReports     Module = "reports"
	ModuleAbout       Module = "about"
)

const (
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionExport   Action = "export"
	ActionImport   Action = "import"
	ActionApprove  Action = "approve"
	ActionAdjust   Action = "adjust"
	ActionTransfer Action = "transfer"
	ActionManage   Action = "manage"
	ActionSend     Action = "send"
	ActionGroup    Action = "group"
	ActionPDF      Action = "pdf"
)

var (
	// ErrInvalidModule indicates a module key outside the closed set.
	ErrInvalidModule = errors.New("rbac: invalid module")
	// ErrInvalidAction indicates an action key outside the closed set.
	ErrInvalidAction = errors.New("rbac: invalid action")
)

var knownModules = map[Module]struct{}{
	ModuleProducts: {}, ModuleStock: {}, ModuleOrders: {}, ModuleSuppliers: {},
	ModuleCustomers: {}, ModuleWarehouses: {}, ModuleBilling: {}, ModuleRentals: {},
	ModuleStorage: {}, ModuleLockers: {}, ModuleMessaging: {}, ModulePermissions: {},
	ModuleUsers: {}, ModuleTeam: {}, ModuleAnalytics: {}, ModuleInventory: {},
	ModuleShipping: {}, ModuleSettings: {}, ModuleAudit: {}, ModuleCategories: {},
	ModuleCart: {}, ModuleReports: {}, ModuleAbout: {},
}

var knownActions = map[Action]struct{}{
	ActionView: {}, ActionCreate: {}, ActionEdit: {}, ActionDelete: {},
	ActionExport: {}, ActionImport: {}, ActionApprove: {}, ActionAdjust: {},
	ActionTransfer: {}, ActionManage: {}, ActionSend: {}, ActionGroup: {},
	ActionPDF: {},
}

// ParseModule validates a module key.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownModules[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidModule, s)
	}
	return m, nil
}

// ParseAction validates an action key.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownActions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// defaultGrants is the static permission table. Superadmin is omitted on
// purpose: that row is generated as total-allow and Allowed short-circuits
// on it, so the table can never accidentally narrow it.
var defaultGrants = map[Role]map[Module][]Action{
	RoleAdmin: {
		ModuleProducts:    {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport, ActionImport},
		ModuleCategories:  {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ModuleStock:       {ActionView, ActionCreate, ActionEdit, ActionAdjust, ActionTransfer, ActionExport, ActionImport},
		ModuleInventory:   {ActionView, ActionEdit, ActionAdjust, ActionTransfer, ActionExport},
		ModuleOrders:      {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport, ActionApprove, ActionPDF},
		ModuleSuppliers:   {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ModuleCustomers:   {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport},
		ModuleWarehouses:  {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ModuleBilling:     {ActionView, ActionCreate, ActionEdit, ActionApprove, ActionExport, ActionPDF},
		ModuleRentals:     {ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove},
		ModuleStorage:     {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ModuleLockers:     {ActionView, ActionCreate, ActionEdit, ActionDelete},
		ModuleMessaging:   {ActionView, ActionCreate, ActionSend, ActionGroup},
		ModulePermissions: {ActionView},
		ModuleUsers:       {ActionView, ActionCreate, ActionEdit},
		ModuleTeam:        {ActionView, ActionCreate, ActionEdit},
		ModuleAnalytics:   {ActionView, ActionExport},
		ModuleReports:     {ActionView, ActionExport, ActionPDF},
		ModuleShipping:    {ActionView, ActionCreate, ActionEdit, ActionTransfer},
		ModuleCart:        {ActionView},
		ModuleAbout:       {ActionView},
	},
	RoleSubadmin: {
		ModuleProducts:    {ActionView, ActionExport},
		ModuleCategories:  {ActionView, ActionCreate, ActionEdit},
		ModuleStock:       {ActionView, ActionCreate, ActionEdit, ActionAdjust, ActionTransfer, ActionExport},
		ModuleInventory:   {ActionView, ActionAdjust, ActionTransfer, ActionExport},
		ModuleOrders:      {ActionView, ActionCreate, ActionEdit, ActionExport, ActionApprove, ActionPDF},
		ModuleSuppliers:   {ActionView, ActionCreate, ActionEdit},
		ModuleCustomers:   {ActionView, ActionCreate, ActionEdit},
		ModuleWarehouses:  {ActionView, ActionEdit},
		ModuleBilling:     {ActionView, ActionCreate, ActionEdit, ActionPDF},
		ModuleRentals:     {ActionView, ActionCreate, ActionEdit, ActionApprove},
		ModuleStorage:     {ActionView, ActionCreate, ActionEdit},
		ModuleLockers:     {ActionView, ActionCreate, ActionEdit},
		ModuleMessaging:   {ActionView, ActionCreate, ActionSend, ActionGroup},
		ModulePermissions: {ActionView},
		ModuleUsers:       {ActionView},
		ModuleTeam:        {ActionView, ActionEdit},
		ModuleAnalytics:   {ActionView},
		ModuleReports:     {ActionView, ActionExport},
		ModuleShipping:    {ActionView, ActionCreate, ActionEdit},
		ModuleCart:        {ActionView},
		ModuleAbout:       {ActionView},
	},
	RoleSupervisor: {
		ModuleProducts:    {ActionView, ActionEdit, ActionExport},
		ModuleCategories:  {ActionView, ActionEdit},
		ModuleStock:       {ActionView, ActionEdit, ActionAdjust, ActionTransfer, ActionExport},
		ModuleInventory:   {ActionView, ActionAdjust, ActionTransfer},
		ModuleOrders:      {ActionView, ActionCreate, ActionEdit, ActionExport, ActionApprove, ActionPDF},
		ModuleSuppliers:   {ActionView, ActionEdit},
		ModuleCustomers:   {ActionView, ActionEdit},
		ModuleWarehouses:  {ActionView},
		ModuleBilling:     {ActionView, ActionPDF},
		ModuleRentals:     {ActionView, ActionCreate, ActionEdit},
		ModuleStorage:     {ActionView, ActionCreate, ActionEdit},
		ModuleLockers:     {ActionView, ActionCreate, ActionEdit},
		ModuleMessaging:   {ActionView, ActionSend},
		ModulePermissions: {ActionView},
		ModuleUsers:       {ActionView},
		ModuleTeam:        {ActionView},
		ModuleAnalytics:   {ActionView},
		ModuleReports:     {ActionView},
		ModuleShipping:    {ActionView, ActionEdit},
		ModuleCart:        {ActionView},
		ModuleAbout:       {ActionView},
	},
	RoleStaff: {
		ModuleProducts:   {ActionView},
		ModuleCategories: {ActionView},
		ModuleStock:      {ActionView, ActionAdjust},
		ModuleInventory:  {ActionView},
		ModuleOrders:     {ActionView, ActionCreate, ActionEdit, ActionPDF},
		ModuleSuppliers:  {ActionView},
		ModuleCustomers:  {ActionView, ActionCreate},
		ModuleWarehouses: {ActionView},
		ModuleBilling:    {ActionView},
		ModuleRentals:    {ActionView, ActionCreate},
		ModuleStorage:    {ActionView, ActionCreate},
		ModuleLockers:    {ActionView, ActionCreate},
		ModuleMessaging:  {ActionView, ActionSend},
		ModuleShipping:   {ActionView},
		ModuleCart:       {ActionView},
		ModuleAbout:      {ActionView},
	},
	RoleCustomer: {
		ModuleCart:     {ActionView, ActionCreate},
		ModuleOrders:   {ActionView, ActionCreate},
		ModuleRentals:  {ActionView, ActionCreate},
		ModuleStorage:  {ActionView, ActionCreate},
		ModuleLockers:  {ActionView, ActionCreate},
		ModuleBilling:  {ActionView},
		ModuleProducts: {ActionView},
		ModuleAbout:    {ActionView},
	},
	RoleGuest: {
		ModuleProducts: {ActionView},
		ModuleRentals:  {ActionView},
		ModuleStorage:  {ActionView},
		ModuleLockers:  {ActionView},
		ModuleAbout:    {ActionView},
	},
}

// Matrix maps role -> module -> action -> allowed. Missing entries deny.
// A Matrix is immutable after construction; runtime overrides produce a new
// Matrix through Clone (see Snapshot).
type Matrix struct {
	grants map[Role]map[Module]map[Action]bool
}

// NewMatrix builds the static matrix and validates every key against the
// closed role, module and action sets. A validation failure here aborts
// process start.
func NewMatrix() (*Matrix, error) {
	m := &Matrix{grants: make(map[Role]map[Module]map[Action]bool, len(roleRanks))}
	for role, modules := range defaultGrants {
		if !role.Valid() {
			return nil, fmt.Errorf("rbac: matrix references unknown role %q", role)
		}
		if role == RoleSuperadmin {
			return nil, errors.New("rbac: matrix must not declare a superadmin row")
		}
		for module, actions := range modules {
			if _, ok := knownModules[module]; !ok {
				return nil, fmt.Errorf("rbac: matrix role %q references unknown module %q", role, module)
			}
			for _, action := range actions {
				if _, ok := knownActions[action]; !ok {
					return nil, fmt.Errorf("rbac: matrix %q/%q references unknown action %q", role, module, action)
				}
				m.set(role, module, action, true)
			}
		}
	}
	// Superadmin row is total-allow across the whole keyspace.
	for module := range knownModules {
		for action := range knownActions {
			m.set(RoleSuperadmin, module, action, true)
		}
	}
	return m, nil
}

func (m *Matrix) set(role Role, module Module, action Action, allowed bool) {
	modules, ok := m.grants[role]
	if !ok {
		modules = make(map[Module]map[Action]bool)
		m.grants[role] = modules
	}
	actions, ok := modules[module]
	if !ok {
		actions = make(map[Action]bool)
		modules[module] = actions
	}
	actions[action] = allowed
}

// Allowed reports whether the role holds the permission. Superadmin is
// always allowed regardless of table contents; every missing entry denies.
func (m *Matrix) Allowed(role Role, module Module, action Action) bool {
	if role == RoleSuperadmin {
		return true
	}
	modules, ok := m.grants[role]
	if !ok {
		return false
	}
	actions, ok := modules[module]
	if !ok {
		return false
	}
	return actions[action]
}

// Clone returns a deep copy for copy-on-write override application.
func (m *Matrix) Clone() *Matrix {
	clone := &Matrix{grants: make(map[Role]map[Module]map[Action]bool, len(m.grants))}
	for role, modules := range m.grants {
		for module, actions := range modules {
			for action, allowed := range actions {
				clone.set(role, module, action, allowed)
			}
		}
	}
	return clone
}

// Modules returns the closed module set in stable order, for matrix pages.
func Modules() []Module {
	out := make([]Module, 0, len(knownModules))
	for module := range knownModules {
		out = append(out, module)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Actions returns the closed action set in stable order.
func Actions() []Action {
	out := make([]Action, 0, len(knownActions))
	for action := range knownActions {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
