package models

import "time"

// DashboardSummary is the KPI card payload for the landing page.
type DashboardSummary struct {
	TotalStockValue float64        `json:"totalStockValue"`
	TotalStockKg    int64          `json:"totalStockKg"`
	TodaySales      float64        `json:"todaySales"`
	TodaySalesCount int            `json:"todaySalesCount"`
	PendingCredit   float64        `json:"pendingCredit"`
	LowStockCount   int            `json:"lowStockCount"`
	LowStockItems   []LowStockItem `json:"lowStockItems"`
	TotalUsers      int64          `json:"totalUsers"`
	Branch          string         `json:"branch"`
}

// LowStockItem flags a lot that has fallen below the restock threshold.
type LowStockItem struct {
	Name    ProduceKind `json:"name"`
	Branch  Branch      `json:"branch"`
	Tonnage int64       `json:"tonnage"`
}

// GroupTotals aggregates a slice of sales along one dimension.
type GroupTotals struct {
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Quantity int64   `json:"quantity"`
}

// ReportPeriod echoes the requested date range back to the caller.
type ReportPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SalesReport summarises cash sales over a period.
type SalesReport struct {
	Period    ReportPeriod           `json:"period"`
	Totals    GroupTotals            `json:"totals"`
	ByBranch  map[string]GroupTotals `json:"byBranch"`
	ByProduce map[string]GroupTotals `json:"byProduce"`
	Sales     []Transaction          `json:"sales"`
}

// CreditBucket counts and totals one settlement state.
type CreditBucket struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// CreditSummary is the pending vs paid roll-up for the credit sales page.
type CreditSummary struct {
	Pending CreditBucket `json:"pending"`
	Paid    CreditBucket `json:"paid"`
	Overall CreditBucket `json:"overall"`
}

// CreditBranchTotals breaks credit exposure down for one branch.
type CreditBranchTotals struct {
	Pending float64 `json:"pending"`
	Paid    float64 `json:"paid"`
	Total   float64 `json:"total"`
}

// CreditReport summarises credit sales: settled, outstanding and overdue.
type CreditReport struct {
	TotalCredit float64                       `json:"totalCredit"`
	Pending     CreditBucket                  `json:"pending"`
	Paid        CreditBucket                  `json:"paid"`
	Overdue     CreditBucket                  `json:"overdue"`
	ByBranch    map[string]CreditBranchTotals `json:"byBranch"`
	Recent      []Transaction                 `json:"recent"`
}

// StockBranchTotals breaks stock holdings down for one branch.
type StockBranchTotals struct {
	Items      []ProduceLot `json:"items"`
	TotalKg    int64        `json:"totalKg"`
	TotalValue float64      `json:"totalValue"`
	LowStock   int          `json:"lowStock"`
}

// StockReport summarises current holdings across branches.
type StockReport struct {
	TotalItems    int                          `json:"totalItems"`
	TotalKg       int64                        `json:"totalKg"`
	TotalValue    float64                      `json:"totalValue"`
	LowStockCount int                          `json:"lowStockCount"`
	ByBranch      map[string]StockBranchTotals `json:"byBranch"`
	Stock         []ProduceLot                 `json:"stock"`
}

// DailySummaryRow is one branch's line in the scheduled spreadsheet export.
type DailySummaryRow struct {
	Date          time.Time
	Branch        Branch
	StockKg       int64
	StockValue    float64
	SalesAmount   float64
	SalesCount    int
	PendingCredit float64
	OverdueCredit float64
}
