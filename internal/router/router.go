package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/course-site-api/internal/handler"
	"github.com/noah-isme/course-site-api/internal/middleware"
	"github.com/noah-isme/course-site-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-site-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-site-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Semesters *handler.SemesterHandler
	Offerings *handler.OfferingHandler
	Pages     *handler.PageHandler
	Publish   *handler.PublishHandler
	Metrics   *handler.MetricsHandler
}

// Options configures cross-cutting middleware.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Observer       middleware.RequestObserver
}

// New builds the gin engine with every route of the site API.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	owner := []gin.HandlerFunc{middleware.JWT(opts.Tokens), middleware.OwnerOnly()}

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/me", append(owner, h.Auth.Me)...)

	semesters := api.Group("/semesters")
	semesters.GET("", h.Semesters.List)
	semesters.GET("/:id", h.Semesters.Get)
	semesters.GET("/:id/day-index", h.Semesters.DayIndex)
	semesters.GET("/:id/dates/:index", h.Semesters.DateOf)
	semesters.POST("", append(owner, h.Semesters.Create)...)
	semesters.DELETE("/:id", append(owner, h.Semesters.Delete)...)
	semesters.POST("/:id/cancellations", append(owner, h.Semesters.Cancel)...)

	offerings := api.Group("/offerings")
	offerings.GET("", h.Offerings.List)
	offerings.GET("/:id", h.Offerings.Get)
	offerings.GET("/:id/schedule", h.Offerings.Schedule)
	offerings.GET("/:id/assignments/:type/:index/dates", h.Offerings.AssignmentDates)
	offerings.GET("/:id/pages/:page", h.Pages.Page)
	offerings.GET("/:id/export", h.Pages.Export)
	offerings.POST("", append(owner, h.Offerings.Create)...)
	offerings.DELETE("/:id", append(owner, h.Offerings.Delete)...)
	offerings.PUT("/:id/topics", append(owner, h.Offerings.ReplaceTopics)...)
	offerings.POST("/:id/pins", append(owner, h.Offerings.AddPin)...)
	offerings.POST("/:id/cancellations", append(owner, h.Offerings.CancelMeeting)...)
	offerings.PUT("/:id/assignments", append(owner, h.Offerings.ReplaceAssignments)...)
	offerings.POST("/:id/publish", append(owner, h.Publish.Publish)...)

	api.GET("/availability", h.Pages.Availability)
	api.GET("/publish/:jobId", append(owner, h.Publish.Status)...)
	api.GET("/files/:token", h.Publish.Download)
	api.GET("/metrics/summary", append(owner, h.Metrics.Snapshot)...)

	return r
}
