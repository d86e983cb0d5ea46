package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NewRouter собирает gin-движок со всеми маршрутами
func NewRouter(h *Handler, tp trace.TracerProvider, serviceName string, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(tp)))
	r.Use(RequestLogger(logger))

	r.GET("/healthz", h.Health)

	slots := r.Group("/slots")
	{
		slots.POST("", h.CreateSlot)
		slots.GET("", h.ListSlots)
		slots.GET("/:id", h.GetSlot)
		slots.PUT("/:id", h.UpdateSlot)
		slots.DELETE("/:id", h.DeleteSlot)
		slots.PATCH("/:id/status", h.SetSlotStatus)
	}

	reservations := r.Group("/reservations")
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
	}

	r.GET("/availability", h.Availability)

	return r
}
