package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubhub/internal/auth"
	"clubhub/internal/validate"
)

type markAttendanceRequest struct {
	PresentUserIDs []string `json:"present_user_ids" validate:"required,dive,uuid4"`
}

// MarkAttendance handles POST /v1/events/:id/attendance. The request carries
// the complete present set; everyone else on the roster is recorded absent.
func (h *Handler) MarkAttendance(c *gin.Context) {
	actor, ok := auth.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := validate.Validate(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.recorder.Mark(c.Request.Context(), actor, c.Param("id"), req.PresentUserIDs)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AttendanceRecords handles GET /v1/events/:id/attendance.
func (h *Handler) AttendanceRecords(c *gin.Context) {
	records, err := h.recorder.Records(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
