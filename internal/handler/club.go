package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/auth"
	"clubhub/internal/club"
	"clubhub/internal/validate"
)

// CreateClub handles POST /v1/clubs.
func (h *Handler) CreateClub(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req club.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.clubs.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateClub handles PUT /v1/clubs/:id.
func (h *Handler) UpdateClub(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req club.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.clubs.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateClub handles DELETE /v1/clubs/:id.
func (h *Handler) DeactivateClub(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.clubs.Deactivate(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setCoordinatorRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// SetCoordinator handles PUT /v1/clubs/:id/coordinator.
func (h *Handler) SetCoordinator(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req setCoordinatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.clubs.SetCoordinator(c.Request.Context(), actor, c.Param("id"), req.UserID); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type memberRequest struct {
	UserID string `json:"user_id" validate:"omitempty,uuid4"`
}

// subject defaults to the actor; admins may act on another user's behalf,
// the gate decides.
func (r memberRequest) subject(actorID string) string {
	if r.UserID != "" {
		return r.UserID
	}
	return actorID
}

// JoinClub handles POST /v1/clubs/:id/join.
func (h *Handler) JoinClub(c *gin.Context) {
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

	m, err := h.clubs.Join(c.Request.Context(), actor, c.Param("id"), req.subject(actor.ID))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// LeaveClub handles POST /v1/clubs/:id/leave.
func (h *Handler) LeaveClub(c *gin.Context) {
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

	if err := h.clubs.Leave(c.Request.Context(), actor, c.Param("id"), req.subject(actor.ID)); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type promoteRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"required,oneof=member leader coordinator"`
}

// PromoteMember handles POST /v1/clubs/:id/promote.
func (h *Handler) PromoteMember(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req promoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.clubs.Promote(c.Request.Context(), actor, c.Param("id"), req.UserID, club.MemberRole(req.Role)); err != nil {
		h.writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetClub handles GET /v1/clubs/:id.
func (h *Handler) GetClub(c *gin.Context) {
	got, err := h.clubs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

// ListClubs handles GET /v1/clubs.
func (h *Handler) ListClubs(c *gin.Context) {
	clubs, err := h.clubs.List(c.Request.Context())
	if err != nil {
		h.writeErr(c, err)
		return
	}
	if clubs == nil {
		clubs = []club.Club{}
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs})
}

// ClubRoster handles GET /v1/clubs/:id/members.
func (h *Handler) ClubRoster(c *gin.Context) {
	members, err := h.clubs.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// ClubStats handles GET /v1/clubs/:id/stats. The count is recomputed from
// membership rows on every read.
func (h *Handler) ClubStats(c *gin.Context) {
	count, err := h.clubs.MemberCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_members": count})
}
