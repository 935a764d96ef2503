package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/config"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit/store"
)

const serverTestSecret = "server-test-secret"

// signToken builds a compact HS256 token over the given claims.
func signToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	encode := func(v interface{}) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}

	header := encode(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload := encode(claims)
	signingInput := header + "." + payload

	mac := hmac.New(sha256.New, []byte(serverTestSecret))
	mac.Write([]byte(signingInput))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + "." + signature
}

// tokenFor signs a token carrying the standard audience and a future
// expiry, merged with extra claims.
func tokenFor(t *testing.T, extra map[string]interface{}) string {
	t.Helper()

	claims := map[string]interface{}{
		"sub": "user-1",
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return signToken(t, claims)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	t.Setenv(config.DefaultSecretEnv, serverTestSecret)

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	st := store.NewMemoryStore(store.WithCleanupInterval(time.Hour))

	srv, err := New(cfg, WithStore(st), WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return srv
}

func doRequest(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	r := httptest.NewRequest(method, path, reader)
	r.RemoteAddr = "192.0.2.1:5000"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, nil)

	w := doRequest(srv, http.MethodGet, "/healthz", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestServer_Me(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("without token", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/v1/me", "", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("with valid token", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"email": "dev@example.com",
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "developer",
				"permissions": []string{"keys:read"},
			},
		})

		w := doRequest(srv, http.MethodGet, "/v1/me", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "user-1", body["subject_id"])
		assert.Equal(t, "t-1", body["tenant_id"])
		assert.Equal(t, "developer", body["tenant_role"])
	})

	t.Run("with expired token", func(t *testing.T) {
		token := signToken(t, map[string]interface{}{
			"sub": "user-1",
			"aud": "authenticated",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		w := doRequest(srv, http.MethodGet, "/v1/me", token, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_EXPIRED", decodeBody(t, w)["code"])
	})
}

func TestServer_Status(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("anonymous", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/v1/status", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["authenticated"])
	})

	t.Run("authenticated", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/v1/status", tokenFor(t, nil), "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "user-1", body["subject_id"])
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/v1/status", "bad.token.here", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["authenticated"])
	})
}

func TestServer_Verify(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("valid token", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{"tenant_id": "t-1", "tenant_role": "owner"},
		})

		w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", `{"token":"`+token+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, "user-1", body["subject_id"])
		assert.Equal(t, "t-1", body["tenant_id"])
	})

	t.Run("invalid token", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", `{"token":"not.a.token"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "TOKEN_INVALID", decodeBody(t, w)["code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", `{`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_TenantInfo(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("viewer allowed", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "viewer",
				"tenant_slug": "acme",
			},
		})

		w := doRequest(srv, http.MethodGet, "/v1/tenant/info", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "acme", body["tenant_slug"])
	})

	t.Run("no tenant denied", func(t *testing.T) {
		w := doRequest(srv, http.MethodGet, "/v1/tenant/info", tokenFor(t, nil), "")
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "TENANT_REQUIRED", decodeBody(t, w)["code"])
	})
}

func TestServer_TenantKeys(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("admin with permission", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "admin",
				"permissions": []string{"keys:write"},
			},
		})

		w := doRequest(srv, http.MethodPost, "/v1/tenant/keys", token, "")
		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.NotEmpty(t, body["key_id"])
		assert.Equal(t, "t-1", body["tenant_id"])
	})

	t.Run("viewer denied by role", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "viewer",
				"permissions": []string{"keys:write"},
			},
		})

		w := doRequest(srv, http.MethodPost, "/v1/tenant/keys", token, "")
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "PERMISSION_DENIED", decodeBody(t, w)["code"])
	})

	t.Run("admin without permission denied", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "admin",
			},
		})

		w := doRequest(srv, http.MethodPost, "/v1/tenant/keys", token, "")
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "PERMISSION_DENIED", decodeBody(t, w)["code"])
	})

	t.Run("wildcard permission allowed", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "owner",
				"permissions": []string{"*"},
			},
		})

		w := doRequest(srv, http.MethodPost, "/v1/tenant/keys", token, "")
		require.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestServer_AdminStats(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("platform admin allowed", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{"is_platform_admin": true},
		})

		w := doRequest(srv, http.MethodGet, "/v1/admin/stats", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["rate_limit_enabled"])
		assert.Contains(t, body, "profiles")
		assert.Contains(t, body, "tracked_keys")
	})

	t.Run("regular user denied", func(t *testing.T) {
		token := tokenFor(t, map[string]interface{}{
			"olympus": map[string]interface{}{
				"tenant_id":   "t-1",
				"tenant_role": "owner",
				"permissions": []string{"*"},
			},
		})

		w := doRequest(srv, http.MethodGet, "/v1/admin/stats", token, "")
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "PERMISSION_DENIED", decodeBody(t, w)["code"])
	})
}

func TestServer_RateLimitEnforced(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Auth = ratelimit.Profile{Scope: "auth", Window: time.Minute, MaxRequests: 2}
	})

	body := `{"token":"x"}`
	for i := 0; i < 2; i++ {
		w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", body)
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d should reach the handler", i+1)
	}

	w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decodeBody(t, w)["code"])
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestServer_RateLimitDisabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.Auth = ratelimit.Profile{Scope: "auth", Window: time.Minute, MaxRequests: 1}
	})

	for i := 0; i < 5; i++ {
		w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", `{"token":"x"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestServer_ApplyRateLimits(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Auth = ratelimit.Profile{Scope: "auth", Window: time.Minute, MaxRequests: 1}
	})

	body := `{"token":"x"}`
	w := doRequest(srv, http.MethodPost, "/v1/auth/verify", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = doRequest(srv, http.MethodPost, "/v1/auth/verify", "", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// The store survives the swap; only the budget changes.
	newCfg := srv.config.RateLimit
	newCfg.Auth = ratelimit.Profile{Scope: "auth", Window: time.Minute, MaxRequests: 10}
	srv.ApplyRateLimits(newCfg)

	w = doRequest(srv, http.MethodPost, "/v1/auth/verify", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
}

func TestServer_MissingSecret(t *testing.T) {
	t.Setenv(config.DefaultSecretEnv, "")

	cfg := config.DefaultConfig()
	srv, err := New(cfg, WithVersion("test"))
	require.NoError(t, err)

	w := doRequest(srv, http.MethodGet, "/v1/me", tokenFor(t, nil), "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "CONFIG", decodeBody(t, w)["code"])
}

func TestServer_New_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.Error(t, err)
}
