package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sorarelay/sorarelay/internal/logger"
)

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		wantStatus int
	}{
		{
			name:       "empty list is passthrough",
			allowed:    nil,
			remoteAddr: "203.0.113.9:1234",
			wantStatus: http.StatusOK,
		},
		{
			name:       "exact ip allowed",
			allowed:    []string{"203.0.113.9"},
			remoteAddr: "203.0.113.9:1234",
			wantStatus: http.StatusOK,
		},
		{
			name:       "cidr allowed",
			allowed:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:5555",
			wantStatus: http.StatusOK,
		},
		{
			name:       "outside cidr rejected",
			allowed:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.9:1234",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, false, logger.Nop())(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			req.RemoteAddr = tt.remoteAddr
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
