package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	ledgersvc "github.com/Patrick7854/kgl-groceries-system/internal/service/ledger"
	reportingsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/reporting"
)

// CreditHandler exposes credit sale endpoints.
type CreditHandler struct {
	ledger    *ledgersvc.Service
	reporting *reportingsvc.Service
	logger    *zap.Logger
}

// NewCreditHandler constructs the HTTP handler adapter.
func NewCreditHandler(ledger *ledgersvc.Service, reporting *reportingsvc.Service, logger *zap.Logger) *CreditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditHandler{ledger: ledger, reporting: reporting, logger: logger}
}

// List returns credit sales visible to the actor.
func (h *CreditHandler) List(c *gin.Context) {
	actor, _ := ActorFrom(c)

	creditSales, err := h.ledger.ListCreditSales(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creditSales": creditSales})
}

type creditSaleRequest struct {
	BuyerName    string             `json:"buyerName"`
	NIN          string             `json:"nin"`
	Location     string             `json:"location"`
	Contact      string             `json:"contact"`
	AmountDue    float64            `json:"amountDue"`
	ProduceName  models.ProduceKind `json:"produceName"`
	Quantity     int64              `json:"quantity"`
	DueDate      string             `json:"dueDate"`
	DispatchDate string             `json:"dispatchDate"`
}

// Create records a credit sale against the actor's branch.
func (h *CreditHandler) Create(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req creditSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid credit sale payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}

	creditSale, err := h.ledger.RecordTransaction(c.Request.Context(), actor, models.TransactionRequest{
		Kind:         models.KindCredit,
		ProduceName:  req.ProduceName,
		Quantity:     req.Quantity,
		Amount:       req.AmountDue,
		BuyerName:    req.BuyerName,
		NIN:          req.NIN,
		Location:     req.Location,
		Contact:      req.Contact,
		DueDate:      req.DueDate,
		DispatchDate: req.DispatchDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"creditSale": creditSale,
		"message":    "Credit sale recorded successfully",
	})
}

type statusUpdateRequest struct {
	Status models.CreditStatus `json:"status"`
}

// UpdateStatus settles a pending credit sale. Anything other than a Paid
// request is rejected.
func (h *CreditHandler) UpdateStatus(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid status payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide a status"})
		return
	}

	creditSale, err := h.ledger.MarkCreditPaid(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"creditSale": creditSale,
		"message":    "Credit sale marked as Paid",
	})
}

// Summary rolls up pending vs paid credit exposure.
func (h *CreditHandler) Summary(c *gin.Context) {
	actor, _ := ActorFrom(c)

	summary, err := h.reporting.CreditSummary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}
