package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/eventmanager/internal/http/handlers"
	"github.com/geocoder89/eventmanager/internal/http/middlewares"
	"github.com/geocoder89/eventmanager/internal/observability"
	"github.com/geocoder89/eventmanager/internal/policy"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	maxBodyBytes = 1 << 20
	rateWindow   = time.Minute
)

type RouterDeps struct {
	Env            string
	Logger         *slog.Logger
	Lifecycle      handlers.Lifecycle
	Cancellations  handlers.CancelRequester
	Tokens         middlewares.TokenVerifier
	Prom           *observability.Prom
	Gatherer       prometheus.Gatherer
	ReadyChecks    map[string]handlers.Pinger
	AllowedOrigins []string
	// RateLimit is requests per minute per caller on write routes; 0 disables it.
	RateLimit int
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("eventmanager-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Logger))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	h := handlers.NewHealthHandler(d.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	eventsHandler := handlers.NewEventsHandler(d.Lifecycle, d.Cancellations)

	events := r.Group("/events", authMW.RequireAuth())
	events.GET("", authMW.RequirePermission(policy.EventRead), eventsHandler.ListEvents)
	events.GET("/:id", authMW.RequirePermission(policy.EventRead), eventsHandler.GetEventByID)

	writes := events.Group("", middlewares.MaxBodyBytes(maxBodyBytes))
	if d.RateLimit > 0 {
		rl := middlewares.NewRateLimiter(d.RateLimit, rateWindow)
		writes.Use(rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	}
	jsonBody := middlewares.RequireJSON()
	writes.POST("", authMW.RequirePermission(policy.EventCreate), jsonBody, eventsHandler.CreateEvent)
	writes.PUT("/:id", authMW.RequirePermission(policy.EventUpdate), jsonBody, eventsHandler.UpdateEvent)
	writes.DELETE("/:id", authMW.RequirePermission(policy.EventDelete), eventsHandler.DeleteEvent)
	writes.POST("/:id/publish", authMW.RequirePermission(policy.EventPublish), eventsHandler.PublishEvent)
	writes.POST("/:id/cancel", authMW.RequirePermission(policy.EventCancel), eventsHandler.CancelEvent)
	writes.POST("/:id/attendees", authMW.RequirePermission(policy.EventUpdate), jsonBody, eventsHandler.AddAttendee)

	return r
}
