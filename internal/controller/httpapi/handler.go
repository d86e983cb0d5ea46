package httpapi

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/tutoring_scheduler/internal/dispatch"
	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HealthFunc проверка зависимостей для /healthz
type HealthFunc func(ctx context.Context) (map[string]any, error)

// Handler переводит HTTP в запросы шины
type Handler struct {
	bus    *dispatch.Bus
	health HealthFunc
}

func NewHandler(bus *dispatch.Bus, health HealthFunc) *Handler {
	return &Handler{bus: bus, health: health}
}

// CreateSlot POST /slots
func (h *Handler) CreateSlot(c *gin.Context) {
	var req dispatch.CreateSlot
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond[*model.Slot](c, h.bus, req, http.StatusCreated)
}

// UpdateSlot PUT /slots/:id
func (h *Handler) UpdateSlot(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req dispatch.UpdateSlot
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = id
	respond[*model.Slot](c, h.bus, req, http.StatusOK)
}

// DeleteSlot DELETE /slots/:id
func (h *Handler) DeleteSlot(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if _, err := h.bus.Dispatch(c.Request.Context(), dispatch.DeleteSlot{ID: id}); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetSlotStatus PATCH /slots/:id/status
func (h *Handler) SetSlotStatus(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	var req dispatch.SetSlotStatus
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = id
	respond[*model.Slot](c, h.bus, req, http.StatusOK)
}

// GetSlot GET /slots/:id
func (h *Handler) GetSlot(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	respond[*model.Slot](c, h.bus, dispatch.GetSlot{ID: id}, http.StatusOK)
}

// ListSlots GET /slots?owner= или каталог активных слотов с фильтрами
func (h *Handler) ListSlots(c *gin.Context) {
	if owner := c.Query("owner"); owner != "" {
		respond[[]*model.Slot](c, h.bus, dispatch.ListSlotsByOwner{OwnerID: owner}, http.StatusOK)
		return
	}
	respond[[]*model.Slot](c, h.bus, dispatch.ListActiveSlots{
		Subject:  c.Query("subject"),
		Section:  c.Query("section"),
		Semester: c.Query("semester"),
	}, http.StatusOK)
}

// CreateReservation POST /reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	var req dispatch.CreateReservation
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond[*model.Reservation](c, h.bus, req, http.StatusCreated)
}

// CancelReservation POST /reservations/:id/cancel
func (h *Handler) CancelReservation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	respond[*model.Reservation](c, h.bus, dispatch.CancelReservation{ID: id}, http.StatusOK)
}

// GetReservation GET /reservations/:id
func (h *Handler) GetReservation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	respond[*model.Reservation](c, h.bus, dispatch.GetReservation{ID: id}, http.StatusOK)
}

// ListReservations GET /reservations?student= | ?owner=
func (h *Handler) ListReservations(c *gin.Context) {
	student, owner := c.Query("student"), c.Query("owner")
	switch {
	case student != "" && owner != "":
		fail(c, model.Validationf("use either student or owner, not both"))
	case student != "":
		respond[[]*model.Reservation](c, h.bus, dispatch.FindReservationsByStudent{StudentID: student}, http.StatusOK)
	case owner != "":
		respond[[]*model.Reservation](c, h.bus, dispatch.FindReservationsByOwner{OwnerID: owner}, http.StatusOK)
	default:
		fail(c, model.Validationf("missing fields: student or owner"))
	}
}

// Availability GET /availability?owner=&weekday=&start=
func (h *Handler) Availability(c *gin.Context) {
	weekday, err := model.ParseWeekday(c.Query("weekday"))
	if err != nil {
		fail(c, err)
		return
	}
	req := dispatch.IsAvailable{
		OwnerID:   c.Query("owner"),
		Weekday:   weekday,
		StartTime: c.Query("start"),
	}
	available, err := dispatch.Execute[bool](c.Request.Context(), h.bus, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"owner_id":   req.OwnerID,
		"weekday":    req.Weekday,
		"start_time": req.StartTime,
		"available":  available,
	})
}

// Health GET /healthz
func (h *Handler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	details, err := h.health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "details": details})
}

func respond[T any](c *gin.Context, bus *dispatch.Bus, req dispatch.Request, status int) {
	out, err := dispatch.Execute[T](c.Request.Context(), bus, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, status, out)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, model.Validationf("invalid id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
