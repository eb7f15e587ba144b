package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/auth"
	"clubhub/internal/event"
	"clubhub/internal/validate"
)

// CreateEvent handles POST /v1/events.
func (h *Handler) CreateEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req event.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.events.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PUT /v1/events/:id.
func (h *Handler) UpdateEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req event.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.events.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=ongoing completed cancelled"`
}

// AdvanceEvent handles PUT /v1/events/:id/status.
func (h *Handler) AdvanceEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.Advance(c.Request.Context(), actor, c.Param("id"), event.Status(req.Status)); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelEvent handles DELETE /v1/events/:id.
func (h *Handler) CancelEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.events.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterForEvent handles POST /v1/events/:id/register.
func (h *Handler) RegisterForEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req memberRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}

	reg, err := h.events.Register(c.Request.Context(), actor, c.Param("id"), req.subject(actor.ID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// UnregisterFromEvent handles POST /v1/events/:id/unregister.
func (h *Handler) UnregisterFromEvent(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req memberRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}

	if err := h.events.CancelRegistration(c.Request.Context(), actor, c.Param("id"), req.subject(actor.ID)); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetEvent handles GET /v1/events/:id.
func (h *Handler) GetEvent(c *gin.Context) {
	ev, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// ListEvents handles GET /v1/events.
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		h.writeErr(c, err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListClubEvents handles GET /v1/clubs/:id/events.
func (h *Handler) ListClubEvents(c *gin.Context) {
	if _, err := h.clubs.Get(c.Request.Context(), c.Param("id")); err != nil {
		h.writeErr(c, err)
		return
	}
	events, err := h.events.ListByClub(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// EventRoster handles GET /v1/events/:id/registrations.
func (h *Handler) EventRoster(c *gin.Context) {
	regs, err := h.events.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// EventAvailability handles GET /v1/events/:id/availability.
func (h *Handler) EventAvailability(c *gin.Context) {
	snap, err := h.events.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
