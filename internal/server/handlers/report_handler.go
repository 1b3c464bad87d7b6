package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reportingsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/reporting"
)

// ReportHandler exposes the read-side aggregation endpoints.
type ReportHandler struct {
	svc    *reportingsvc.Service
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reportingsvc.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Dashboard returns the KPI cards for the landing page.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor, _ := ActorFrom(c)

	summary, err := h.svc.DashboardSummary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// Sales returns the cash sales report over ?startDate=&endDate=.
func (h *ReportHandler) Sales(c *gin.Context) {
	actor, _ := ActorFrom(c)

	report, err := h.svc.SalesReport(c.Request.Context(), actor, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// Credit returns the credit exposure report.
func (h *ReportHandler) Credit(c *gin.Context) {
	actor, _ := ActorFrom(c)

	report, err := h.svc.CreditReport(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// Stock returns the current holdings report.
func (h *ReportHandler) Stock(c *gin.Context) {
	actor, _ := ActorFrom(c)

	report, err := h.svc.StockReport(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
