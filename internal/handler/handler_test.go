package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		db, redis  bool
		wantStatus int
	}{
		{"both up", true, true, http.StatusOK},
		{"db down", false, true, http.StatusServiceUnavailable},
		{"redis down", true, false, http.StatusServiceUnavailable},
		{"both down", false, false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/healthz", Healthz(
				func() bool { return tt.db },
				func() bool { return tt.redis },
			))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
