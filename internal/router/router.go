package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/crmkit/backend/api/handler"
)

type Handlers struct {
	Collections *apiHandler.CollectionHandler
	Dashboard   *apiHandler.DashboardHandler
	Payments    *apiHandler.PaymentsHandler
	Security    *apiHandler.SecurityHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Generic collection CRUD
	r.GET("/api/v1/collections/{name}", authMiddleware(handlers.Collections.List))
	r.POST("/api/v1/collections/{name}", authMiddleware(handlers.Collections.Create))
	r.GET("/api/v1/collections/{name}/{id}", authMiddleware(handlers.Collections.Get))
	r.PUT("/api/v1/collections/{name}/{id}", authMiddleware(handlers.Collections.Update))
	r.DELETE("/api/v1/collections/{name}/{id}", authMiddleware(handlers.Collections.Delete))

	// Derived views and demos
	r.GET("/api/v1/dashboard/stats", authMiddleware(handlers.Dashboard.Stats))
	r.POST("/api/v1/payments/transfer", authMiddleware(handlers.Payments.Transfer))
	r.GET("/api/v1/security/code", authMiddleware(handlers.Security.Code))
	r.POST("/api/v1/security/verify", authMiddleware(handlers.Security.Verify))

	return r
}
