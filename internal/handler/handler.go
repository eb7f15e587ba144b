// Package handler contains gin handlers translating HTTP requests to and
// from the core services.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clubhub/internal/attendance"
	"clubhub/internal/authz"
	"clubhub/internal/club"
	"clubhub/internal/config"
	"clubhub/internal/event"
	"clubhub/internal/identity"
)

// Handler holds all HTTP handlers for the portal API.
type Handler struct {
	cfg      config.App
	log      zerolog.Logger
	users    *identity.Service
	clubs    *club.Service
	events   *event.Service
	recorder *attendance.Recorder
}

// New constructs a Handler.
func New(cfg config.App, log zerolog.Logger, users *identity.Service, clubs *club.Service, events *event.Service, recorder *attendance.Recorder) *Handler {
	return &Handler{cfg: cfg, log: log, users: users, clubs: clubs, events: events, recorder: recorder}
}

// Healthz handles GET /healthz.
func Healthz(dbUp func() bool, redisUp func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		db, rds := dbUp(), redisUp()
		status := http.StatusOK
		if !db || !rds {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": db, "redis": rds})
	}
}

// writeErr maps domain errors onto HTTP statuses.
func (h *Handler) writeErr(c *gin.Context, err error) {
	var denied *authz.DeniedError
	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": denied.Reason})

	case errors.Is(err, identity.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, identity.ErrNotFound),
		errors.Is(err, club.ErrNotFound),
		errors.Is(err, event.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, club.ErrAlreadyMember),
		errors.Is(err, club.ErrNotAMember),
		errors.Is(err, event.ErrAlreadyRegistered),
		errors.Is(err, event.ErrNotRegistered),
		errors.Is(err, event.ErrEventFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, club.ErrClubInactive),
		errors.Is(err, event.ErrEventNotUpcoming),
		errors.Is(err, event.ErrDeadlinePassed),
		errors.Is(err, event.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, event.ErrUnknownParticipant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
