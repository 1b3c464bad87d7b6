package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	authsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/auth"
)

// UserHandler exposes director-only user administration.
type UserHandler struct {
	svc    *authsvc.Service
	logger *zap.Logger
}

// NewUserHandler constructs the HTTP handler adapter.
func NewUserHandler(svc *authsvc.Service, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// List returns every account, passwords excluded.
func (h *UserHandler) List(c *gin.Context) {
	actor, _ := ActorFrom(c)

	users, err := h.svc.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// Create registers a new account.
func (h *UserHandler) Create(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid user payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
		"message": "User created successfully",
	})
}

// Update modifies an account.
func (h *UserHandler) Update(c *gin.Context) {
	actor, _ := ActorFrom(c)

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid user payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide all required fields"})
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"message": "User updated successfully",
	})
}

// Delete removes an account.
func (h *UserHandler) Delete(c *gin.Context) {
	actor, _ := ActorFrom(c)

	if err := h.svc.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}
