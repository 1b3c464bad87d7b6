package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	ledgersvc "github.com/Patrick7854/kgl-groceries-system/internal/service/ledger"
)

// ProduceHandler exposes stock procurement and lot management endpoints.
type ProduceHandler struct {
	svc    *ledgersvc.Service
	logger *zap.Logger
}

// NewProduceHandler constructs the HTTP handler adapter.
func NewProduceHandler(svc *ledgersvc.Service, logger *zap.Logger) *ProduceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProduceHandler{svc: svc, logger: logger}
}

// List returns visible lots. Directors may narrow with ?branch=.
func (h *ProduceHandler) List(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var branchOverride *models.Branch
	if raw := c.Query("branch"); raw != "" {
		branch := models.Branch(raw)
		branchOverride = &branch
	}

	lots, err := h.svc.ListLots(c.Request.Context(), actor, branchOverride)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "produce": lots})
}

// Create records a procurement.
func (h *ProduceHandler) Create(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req models.ProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid procurement payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}

	lot, err := h.svc.Procure(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"produce": lot,
		"message": "Procurement recorded successfully",
	})
}

type priceUpdateRequest struct {
	SellingPrice float64 `json:"sellingPrice"`
}

// UpdatePrice adjusts a lot's selling price.
func (h *ProduceHandler) UpdatePrice(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req priceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid price payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide a selling price"})
		return
	}

	lot, err := h.svc.UpdateSellingPrice(c.Request.Context(), actor, c.Param("id"), req.SellingPrice)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"produce": lot,
		"message": "Produce updated successfully",
	})
}

// Delete removes a lot.
func (h *ProduceHandler) Delete(c *gin.Context) {
	actor, _ := ActorFrom(c)

	if err := h.svc.DeleteLot(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Produce deleted successfully"})
}
