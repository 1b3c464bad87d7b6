package models

// Operation names one guarded entry point. The permission table below is the
// single source of truth for role gating; route middleware and the services
// both consult it instead of carrying ad hoc role checks.
type Operation string

const (
	OpViewStock        Operation = "stock.view"
	OpProcureStock     Operation = "stock.procure"
	OpUpdatePrice      Operation = "stock.update_price"
	OpDeleteLot        Operation = "stock.delete"
	OpViewSales        Operation = "sales.view"
	OpRecordSale       Operation = "sales.record"
	OpViewCredits      Operation = "credits.view"
	OpMarkCreditPaid   Operation = "credits.mark_paid"
	OpViewDashboard    Operation = "reports.dashboard"
	OpViewSalesReport  Operation = "reports.sales"
	OpViewCreditReport Operation = "reports.credit"
	OpViewStockReport  Operation = "reports.stock"
	OpManageUsers      Operation = "users.manage"
)

// permissions maps each operation to the roles allowed to perform it.
// Directors administer and read across branches but do not record sales,
// since they are not attached to a trading branch.
var permissions = map[Operation]map[Role]bool{
	OpViewStock:        {RoleDirector: true, RoleManager: true, RoleSales: true},
	OpProcureStock:     {RoleManager: true},
	OpUpdatePrice:      {RoleManager: true},
	OpDeleteLot:        {RoleManager: true},
	OpViewSales:        {RoleDirector: true, RoleManager: true, RoleSales: true},
	OpRecordSale:       {RoleManager: true, RoleSales: true},
	OpViewCredits:      {RoleDirector: true, RoleManager: true, RoleSales: true},
	OpMarkCreditPaid:   {RoleManager: true},
	OpViewDashboard:    {RoleDirector: true, RoleManager: true, RoleSales: true},
	OpViewSalesReport:  {RoleDirector: true, RoleManager: true},
	OpViewCreditReport: {RoleDirector: true, RoleManager: true},
	OpViewStockReport:  {RoleDirector: true, RoleManager: true, RoleSales: true},
	OpManageUsers:      {RoleDirector: true},
}

// Allowed reports whether role may perform op.
func Allowed(role Role, op Operation) bool {
	return permissions[op][role]
}
