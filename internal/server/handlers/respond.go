package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
)

const actorContextKey = "actor"

// SetActor attaches the authenticated actor to the request context. The auth
// middleware is the only caller.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorContextKey, actor)
}

// ActorFrom retrieves the authenticated actor placed by the middleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

// respondError maps domain errors onto the JSON envelope the frontend
// expects: {success:false, message:...} with the right status code.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var stockErr *models.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Please provide all required fields",
			"errors":  validationErr.Fields,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   stockErr.Error(),
			"available": stockErr.Available,
		})
	case errors.Is(err, models.ErrLotNotFound),
		errors.Is(err, models.ErrCreditSaleNotFound),
		errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	case errors.Is(err, models.ErrDuplicateEmail), errors.Is(err, models.ErrAlreadyPaid):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	}
}
