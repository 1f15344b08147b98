// Package router assembles the gin engine: the middleware stack and the
// /api/v1 route groups for each handler.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/infrastructure/logger"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
	"github.com/shipshape/backend/internal/interfaces/http/handler"
	"github.com/shipshape/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar...)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
}

// NewEngine creates a gin engine with request ids, panic recovery, request
// logging, security headers, CORS and a body limit, in that order
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, "/api/v1/system/ping"),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeBadRequest, "Method not allowed", middleware.GetRequestID(c)))
	})

	middleware.SetupValidator()
	return engine, nil
}

// Handlers bundles every API handler
type Handlers struct {
	System    *handler.SystemHandler
	Trailers  *handler.TrailerHandler
	Shipments *handler.ShipmentHandler
	Reports   *handler.ReportHandler
	Quiz      *handler.QuizHandler
}

// Groups returns the route groups of every handler
func (h Handlers) Groups() []RouteRegistrar {
	system := NewDomainGroup("system", "/system").
		GET("/ping", h.System.Ping).
		GET("/info", h.System.GetSystemInfo)

	trailers := NewDomainGroup("trailers", "/trailers").
		GET("", h.Trailers.List).
		POST("", h.Trailers.Create).
		GET("/:id", h.Trailers.Get).
		PATCH("/:id", h.Trailers.Update).
		DELETE("/:id", h.Trailers.Delete).
		PUT("/:id/status", h.Trailers.UpdateStatus).
		GET("/:id/shipments", h.Trailers.ListShipments)

	shipments := NewDomainGroup("shipments", "/shipments").
		GET("", h.Shipments.List).
		POST("", h.Shipments.Create).
		GET("/lookup", h.Shipments.Lookup).
		GET("/:id", h.Shipments.Get).
		PATCH("/:id", h.Shipments.Update).
		DELETE("/:id", h.Shipments.Delete).
		POST("/:id/print", h.Shipments.Print)

	reports := NewDomainGroup("reports", "/reports").
		GET("/unreleased", h.Reports.Unreleased).
		GET("/weekly", h.Reports.Weekly).
		GET("/activity", h.Reports.Activity).
		GET("/companies", h.Reports.Companies).
		GET("/overdue", h.Reports.Overdue).
		GET("/expiring", h.Reports.Expiring).
		GET("/pending", h.Reports.Pending)

	quizGroup := NewDomainGroup("quiz", "/quiz").
		POST("/generate", h.Quiz.Generate)
	quizGroup.Group("quiz-reports", "/reports").
		GET("", h.Quiz.ListReports).
		POST("", h.Quiz.Complete).
		GET("/:id", h.Quiz.GetReport).
		DELETE("/:id", h.Quiz.DeleteReport)

	return []RouteRegistrar{system, trailers, shipments, reports, quizGroup}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:   name,
		prefix: prefix,
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route for method
func (dg *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{
		method:   method,
		path:     path,
		handlers: handlers,
	})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, handlers...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, handlers...)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, path, handlers...)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPatch, path, handlers...)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, path, handlers...)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}
