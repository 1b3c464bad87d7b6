package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/server/handlers"
	authsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/auth"
)

// Handlers bundles the HTTP adapters the router wires up.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Produce *handlers.ProduceHandler
	Sales   *handlers.SaleHandler
	Credits *handlers.CreditHandler
	Reports *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares. Route
// gating consults the same permission table the services check, so a denied
// role fails fast with 403 instead of reaching the store.
func New(authService *authsvc.Service, h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(requireAuth(authService))

	users := authed.Group("/users", requirePermission(models.OpManageUsers))
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	produce := authed.Group("/produce")
	produce.GET("", requirePermission(models.OpViewStock), h.Produce.List)
	produce.POST("", requirePermission(models.OpProcureStock), h.Produce.Create)
	produce.PUT("/:id", requirePermission(models.OpUpdatePrice), h.Produce.UpdatePrice)
	produce.DELETE("/:id", requirePermission(models.OpDeleteLot), h.Produce.Delete)

	sales := authed.Group("/sales")
	sales.GET("", requirePermission(models.OpViewSales), h.Sales.List)
	sales.GET("/report", requirePermission(models.OpViewSalesReport), h.Sales.Report)
	sales.POST("", requirePermission(models.OpRecordSale), h.Sales.Create)

	credits := authed.Group("/creditsales")
	credits.GET("", requirePermission(models.OpViewCredits), h.Credits.List)
	credits.GET("/summary", requirePermission(models.OpViewCredits), h.Credits.Summary)
	credits.POST("", requirePermission(models.OpRecordSale), h.Credits.Create)
	credits.PUT("/:id", requirePermission(models.OpMarkCreditPaid), h.Credits.UpdateStatus)

	reports := authed.Group("/reports")
	reports.GET("/dashboard", requirePermission(models.OpViewDashboard), h.Reports.Dashboard)
	reports.GET("/sales", requirePermission(models.OpViewSalesReport), h.Reports.Sales)
	reports.GET("/credit", requirePermission(models.OpViewCreditReport), h.Reports.Credit)
	reports.GET("/stock", requirePermission(models.OpViewStockReport), h.Reports.Stock)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requireAuth validates the bearer token and stores the actor on the request
// context.
func requireAuth(authService *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "No token, authorization denied",
			})
			return
		}

		actor, err := authService.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Token is not valid",
			})
			return
		}

		handlers.SetActor(c, actor)
		c.Next()
	}
}

// requirePermission rejects roles the permission table does not allow for
// the operation.
func requirePermission(op models.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := handlers.ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "No token, authorization denied",
			})
			return
		}

		if !models.Allowed(actor.Role, op) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied",
			})
			return
		}

		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
