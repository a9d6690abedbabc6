package shared

// RoleCustomerUnlocker is the role allowed to clear a customer's lock flag.
const RoleCustomerUnlocker = "Customer Unlocker"

// Permissions declared for RBAC.
const (
	PermLockRun    = "lock.run"
	PermLockView   = "lock.view"
	PermLockExport = "lock.export"

	PermCustomerView   = "sales.customer.view"
	PermCustomerCreate = "sales.customer.create"
	PermCustomerEdit   = "sales.customer.edit"

	PermSalesOrderView   = "sales.order.view"
	PermSalesOrderCreate = "sales.order.create"
	PermSalesOrderEdit   = "sales.order.edit"

	PermQuotationView   = "sales.quotation.view"
	PermQuotationCreate = "sales.quotation.create"
	PermQuotationEdit   = "sales.quotation.edit"

	PermFinanceARView = "finance.ar.view"
)

// LockScopes lists the permissions of the lock module.
func LockScopes() []string {
	return []string{PermLockRun, PermLockView, PermLockExport}
}

// SalesScopes lists all permissions related to the sales module.
func SalesScopes() []string {
	return []string{
		PermCustomerView,
		PermCustomerCreate,
		PermCustomerEdit,
		PermSalesOrderView,
		PermSalesOrderCreate,
		PermSalesOrderEdit,
		PermQuotationView,
		PermQuotationCreate,
		PermQuotationEdit,
	}
}

// AllScopes returns every permission known to the application.
func AllScopes() []string {
	scopes := append(LockScopes(), SalesScopes()...)
	return append(scopes, PermFinanceARView)
}
