package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
)

func TestRequestID_Generated(t *testing.T) {
	t.Parallel()

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	w := httptest.NewRecorder()
	RequestID()(handler).ServeHTTP(w, r)

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderXRequestID))
}

func TestRequestID_HonorsUpstreamHeader(t *testing.T) {
	t.Parallel()

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	r.Header.Set(HeaderXRequestID, "upstream-id")
	w := httptest.NewRecorder()
	RequestID()(handler).ServeHTTP(w, r)

	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", w.Header().Get(HeaderXRequestID))
}

func TestRequestIDWithGenerator(t *testing.T) {
	t.Parallel()

	mw := RequestIDWithGenerator(func() string { return "fixed-id" })

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	w := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(w, r)

	assert.Equal(t, "fixed-id", w.Header().Get(HeaderXRequestID))
}
