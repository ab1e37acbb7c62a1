package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/honeypot-labs/cipher/pkg/config"
)

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.APIKey = "sekrit" })

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
	}{
		{name: "missing key", wantCode: http.StatusUnauthorized},
		{name: "wrong key", header: "nope", wantCode: http.StatusUnauthorized},
		{name: "correct header", header: "sekrit", wantCode: http.StatusOK},
		{name: "correct query token", query: "?token=sekrit", wantCode: http.StatusOK},
		{name: "wrong query token", query: "?token=nope", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("x-api-key", tt.header)
			}
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"invalid API key"}`, rec.Body.String())
			}
		})
	}
}

func TestAPIKeyAuthDisabledWhenUnset(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.APIKey = "sekrit" })

	for _, path := range []string{"/health", "/api/v1/feature-flags"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}
