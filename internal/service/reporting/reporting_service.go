package reporting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

// Service is the read side of the ledger: it derives dashboards and reports
// from stored lots and transactions. It never mutates state, and every
// operation tolerates an empty store by returning zeroed aggregates.
type Service struct {
	repo   mongodb.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(repo mongodb.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// scope returns the branch filter implied by the actor's role: managers and
// sales agents see their own branch, directors see everything.
func scope(actor models.Actor) *models.Branch {
	if actor.BranchScoped() {
		branch := actor.Branch
		return &branch
	}
	return nil
}

// DashboardSummary assembles the KPI cards for the landing page.
func (s *Service) DashboardSummary(ctx context.Context, actor models.Actor) (models.DashboardSummary, error) {
	if !models.Allowed(actor.Role, models.OpViewDashboard) {
		return models.DashboardSummary{}, models.ErrForbidden
	}

	branch := scope(actor)

	lots, err := s.repo.ListLots(ctx, mongodb.LotFilter{Branch: branch})
	if err != nil {
		return models.DashboardSummary{}, err
	}

	summary := models.DashboardSummary{
		LowStockItems: []models.LowStockItem{},
		Branch:        "All Branches",
	}
	if branch != nil {
		summary.Branch = string(*branch)
	}

	for _, lot := range lots {
		summary.TotalStockValue += lot.Cost
		summary.TotalStockKg += lot.Tonnage
		if lot.Tonnage < models.LowStockThresholdKg {
			summary.LowStockItems = append(summary.LowStockItems, models.LowStockItem{
				Name:    lot.Name,
				Branch:  lot.Branch,
				Tonnage: lot.Tonnage,
			})
		}
	}
	summary.LowStockCount = len(summary.LowStockItems)

	// Today's cash sales, midnight to midnight in the server's locale.
	year, month, day := s.now().Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, s.now().Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	cash := models.KindCash
	todaySales, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{
		Kind:   &cash,
		Branch: branch,
		From:   &dayStart,
		To:     &dayEnd,
	})
	if err != nil {
		return models.DashboardSummary{}, err
	}
	for _, sale := range todaySales {
		summary.TodaySales += sale.Amount
	}
	summary.TodaySalesCount = len(todaySales)

	credit := models.KindCredit
	pending := models.CreditPending
	pendingCredits, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{
		Kind:   &credit,
		Branch: branch,
		Status: &pending,
	})
	if err != nil {
		return models.DashboardSummary{}, err
	}
	for _, c := range pendingCredits {
		summary.PendingCredit += c.Amount
	}

	summary.TotalUsers, err = s.repo.CountUsers(ctx, branch)
	if err != nil {
		return models.DashboardSummary{}, err
	}

	return summary, nil
}

// SalesReport aggregates cash sales over an optional date range, grouped by
// branch and by produce kind.
func (s *Service) SalesReport(ctx context.Context, actor models.Actor, startDate, endDate string) (models.SalesReport, error) {
	if !models.Allowed(actor.Role, models.OpViewSalesReport) {
		return models.SalesReport{}, models.ErrForbidden
	}

	cash := models.KindCash
	filter := mongodb.TransactionFilter{Kind: &cash, Branch: scope(actor)}

	if startDate != "" && endDate != "" {
		from, err := time.Parse(dateLayout, startDate)
		if err == nil {
			filter.From = &from
		}
		to, err := time.Parse(dateLayout, endDate)
		if err == nil {
			// Inclusive of the whole end day.
			end := to.AddDate(0, 0, 1)
			filter.To = &end
		}
	}

	sales, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return models.SalesReport{}, err
	}

	report := models.SalesReport{
		Period:    models.ReportPeriod{StartDate: startDate, EndDate: endDate},
		ByBranch:  map[string]models.GroupTotals{},
		ByProduce: map[string]models.GroupTotals{},
		Sales:     sales,
	}

	for _, sale := range sales {
		report.Totals.Count++
		report.Totals.Total += sale.Amount
		report.Totals.Quantity += sale.Quantity

		byBranch := report.ByBranch[string(sale.Branch)]
		byBranch.Count++
		byBranch.Total += sale.Amount
		byBranch.Quantity += sale.Quantity
		report.ByBranch[string(sale.Branch)] = byBranch

		byProduce := report.ByProduce[string(sale.ProduceName)]
		byProduce.Count++
		byProduce.Total += sale.Amount
		byProduce.Quantity += sale.Quantity
		report.ByProduce[string(sale.ProduceName)] = byProduce
	}

	return report, nil
}

// CreditSummary rolls up pending vs paid credit exposure.
func (s *Service) CreditSummary(ctx context.Context, actor models.Actor) (models.CreditSummary, error) {
	if !models.Allowed(actor.Role, models.OpViewCredits) {
		return models.CreditSummary{}, models.ErrForbidden
	}

	credit := models.KindCredit
	credits, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{Kind: &credit, Branch: scope(actor)})
	if err != nil {
		return models.CreditSummary{}, err
	}

	var summary models.CreditSummary
	for _, c := range credits {
		if c.Status == models.CreditPaid {
			summary.Paid.Count++
			summary.Paid.Total += c.Amount
		} else {
			summary.Pending.Count++
			summary.Pending.Total += c.Amount
		}
		summary.Overall.Count++
		summary.Overall.Total += c.Amount
	}
	return summary, nil
}

// CreditReport details credit exposure: pending, paid and overdue, broken
// down by branch. A credit sale is overdue when its due date has passed and
// it is still pending.
func (s *Service) CreditReport(ctx context.Context, actor models.Actor) (models.CreditReport, error) {
	if !models.Allowed(actor.Role, models.OpViewCreditReport) {
		return models.CreditReport{}, models.ErrForbidden
	}

	credit := models.KindCredit
	credits, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{Kind: &credit, Branch: scope(actor)})
	if err != nil {
		return models.CreditReport{}, err
	}

	report := models.CreditReport{
		ByBranch: map[string]models.CreditBranchTotals{},
		Recent:   credits,
	}
	if len(report.Recent) > 30 {
		report.Recent = report.Recent[:30]
	}

	today := s.now()
	for _, c := range credits {
		byBranch := report.ByBranch[string(c.Branch)]
		byBranch.Total += c.Amount

		if c.Status == models.CreditPaid {
			report.Paid.Count++
			report.Paid.Total += c.Amount
			byBranch.Paid += c.Amount
		} else {
			report.Pending.Count++
			report.Pending.Total += c.Amount
			byBranch.Pending += c.Amount

			if due, err := time.Parse(dateLayout, c.DueDate); err == nil && due.Before(today) {
				report.Overdue.Count++
				report.Overdue.Total += c.Amount
			}
		}
		report.ByBranch[string(c.Branch)] = byBranch
	}
	report.TotalCredit = report.Pending.Total + report.Paid.Total

	return report, nil
}

// OverdueCredits lists pending credit sales whose due date has passed.
// The daily sweep uses this to raise follow-up alerts.
func (s *Service) OverdueCredits(ctx context.Context, branch *models.Branch) ([]models.Transaction, error) {
	credit := models.KindCredit
	pending := models.CreditPending
	credits, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{
		Kind:   &credit,
		Branch: branch,
		Status: &pending,
	})
	if err != nil {
		return nil, err
	}

	today := s.now()
	overdue := []models.Transaction{}
	for _, c := range credits {
		if due, err := time.Parse(dateLayout, c.DueDate); err == nil && due.Before(today) {
			overdue = append(overdue, c)
		}
	}
	return overdue, nil
}

// StockReport summarises current holdings, valued at selling price.
func (s *Service) StockReport(ctx context.Context, actor models.Actor) (models.StockReport, error) {
	if !models.Allowed(actor.Role, models.OpViewStockReport) {
		return models.StockReport{}, models.ErrForbidden
	}

	lots, err := s.repo.ListLots(ctx, mongodb.LotFilter{Branch: scope(actor)})
	if err != nil {
		return models.StockReport{}, err
	}

	report := models.StockReport{
		ByBranch: map[string]models.StockBranchTotals{},
		Stock:    lots,
	}
	if len(report.Stock) > 100 {
		report.Stock = report.Stock[:100]
	}

	for _, lot := range lots {
		byBranch := report.ByBranch[string(lot.Branch)]
		byBranch.Items = append(byBranch.Items, lot)
		byBranch.TotalKg += lot.Tonnage
		byBranch.TotalValue += float64(lot.Tonnage) * lot.SellingPrice
		if lot.Tonnage < models.LowStockThresholdKg {
			byBranch.LowStock++
		}
		report.ByBranch[string(lot.Branch)] = byBranch

		report.TotalItems++
		report.TotalKg += lot.Tonnage
		report.TotalValue += float64(lot.Tonnage) * lot.SellingPrice
		if lot.Tonnage < models.LowStockThresholdKg {
			report.LowStockCount++
		}
	}

	return report, nil
}

// DailySummaryRows builds one export row per trading branch for the given
// day, for the scheduled spreadsheet export.
func (s *Service) DailySummaryRows(ctx context.Context, day time.Time) ([]models.DailySummaryRow, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows := make([]models.DailySummaryRow, 0, len(models.TradingBranches))
	for _, branch := range models.TradingBranches {
		branch := branch
		row := models.DailySummaryRow{Date: dayStart, Branch: branch}

		lots, err := s.repo.ListLots(ctx, mongodb.LotFilter{Branch: &branch})
		if err != nil {
			return nil, err
		}
		for _, lot := range lots {
			row.StockKg += lot.Tonnage
			row.StockValue += float64(lot.Tonnage) * lot.SellingPrice
		}

		cash := models.KindCash
		sales, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{
			Kind:   &cash,
			Branch: &branch,
			From:   &dayStart,
			To:     &dayEnd,
		})
		if err != nil {
			return nil, err
		}
		for _, sale := range sales {
			row.SalesAmount += sale.Amount
		}
		row.SalesCount = len(sales)

		credit := models.KindCredit
		pending := models.CreditPending
		credits, err := s.repo.ListTransactions(ctx, mongodb.TransactionFilter{
			Kind:   &credit,
			Branch: &branch,
			Status: &pending,
		})
		if err != nil {
			return nil, err
		}
		for _, c := range credits {
			row.PendingCredit += c.Amount
			if due, err := time.Parse(dateLayout, c.DueDate); err == nil && due.Before(day) {
				row.OverdueCredit += c.Amount
			}
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// LowStockLots lists every lot below the restock threshold, unscoped. The
// daily sweep uses this to raise restock alerts.
func (s *Service) LowStockLots(ctx context.Context) ([]models.LowStockItem, error) {
	lots, err := s.repo.ListLots(ctx, mongodb.LotFilter{})
	if err != nil {
		return nil, err
	}

	items := []models.LowStockItem{}
	for _, lot := range lots {
		if lot.Tonnage < models.LowStockThresholdKg {
			items = append(items, models.LowStockItem{
				Name:    lot.Name,
				Branch:  lot.Branch,
				Tonnage: lot.Tonnage,
			})
		}
	}
	return items, nil
}
