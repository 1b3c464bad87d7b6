package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	ledgersvc "github.com/Patrick7854/kgl-groceries-system/internal/service/ledger"
	reportingsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/reporting"
)

// SaleHandler exposes cash sale endpoints.
type SaleHandler struct {
	ledger    *ledgersvc.Service
	reporting *reportingsvc.Service
	logger    *zap.Logger
}

// NewSaleHandler constructs the HTTP handler adapter.
func NewSaleHandler(ledger *ledgersvc.Service, reporting *reportingsvc.Service, logger *zap.Logger) *SaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleHandler{ledger: ledger, reporting: reporting, logger: logger}
}

// List returns cash sales visible to the actor.
func (h *SaleHandler) List(c *gin.Context) {
	actor, _ := ActorFrom(c)

	sales, err := h.ledger.ListSales(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sales": sales})
}

type cashSaleRequest struct {
	ProduceName models.ProduceKind `json:"produceName"`
	Quantity    int64              `json:"quantity"`
	AmountPaid  float64            `json:"amountPaid"`
	BuyerName   string             `json:"buyerName"`
}

// Create records a cash sale against the actor's branch.
func (h *SaleHandler) Create(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req cashSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}

	sale, err := h.ledger.RecordTransaction(c.Request.Context(), actor, models.TransactionRequest{
		Kind:        models.KindCash,
		ProduceName: req.ProduceName,
		Quantity:    req.Quantity,
		Amount:      req.AmountPaid,
		BuyerName:   req.BuyerName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"sale":    sale,
		"message": "Sale recorded successfully",
	})
}

// Report aggregates cash sales over an optional ?startDate=&endDate= range.
func (h *SaleHandler) Report(c *gin.Context) {
	actor, _ := ActorFrom(c)

	report, err := h.reporting.SalesReport(c.Request.Context(), actor, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sales":   report.Sales,
		"summary": gin.H{
			"totalSales":    report.Totals.Count,
			"totalAmount":   report.Totals.Total,
			"totalQuantity": report.Totals.Quantity,
		},
	})
}
