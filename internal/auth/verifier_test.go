package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key")

// createTestToken builds a compact JWT signed with HMAC-SHA256.
func createTestToken(t *testing.T, secret []byte, header, claims map[string]interface{}) string {
	t.Helper()

	if header == nil {
		header = map[string]interface{}{
			"alg": "HS256",
			"typ": "JWT",
		}
	}

	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)
	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)

	claimsJSON, err := json.Marshal(claims)
	require.NoError(t, err)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)

	signingInput := headerB64 + "." + claimsB64

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput))
	signatureB64 := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + "." + signatureB64
}

// newTestVerifier builds a verifier with a private metrics registry.
func newTestVerifier(t *testing.T, config *VerifierConfig, opts ...VerifierOption) Verifier {
	t.Helper()

	metrics := NewMetricsWithRegisterer("test", prometheus.NewRegistry())
	opts = append(opts, WithVerifierMetrics(metrics))
	return NewVerifier(config, opts...)
}

func validClaims(exp time.Time) map[string]interface{} {
	return map[string]interface{}{
		"sub": "user-123",
		"aud": "authenticated",
		"exp": exp.Unix(),
	}
}

func TestVerifier_Verify_Success(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub":   "user-123",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"email": "user@example.com",
		"olympus": map[string]interface{}{
			"tenant_id":   "tenant-1",
			"tenant_role": "admin",
			"permissions": []string{"keys:write"},
		},
	})

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	require.NotNil(t, claims.Olympus)
	assert.Equal(t, "tenant-1", claims.Olympus.TenantID)
	assert.Equal(t, "admin", claims.Olympus.TenantRole)
	assert.Equal(t, []string{"keys:write"}, claims.Olympus.Permissions)
}

func TestVerifier_Verify_AudienceAsArray(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub": "user-123",
		"aud": []string{"other", "authenticated"},
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, claims.Audience.Contains("authenticated"))
}

func TestVerifier_Verify_NoSecret(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{})
	token := createTestToken(t, testSecret, nil, validClaims(time.Now().Add(time.Hour)))

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
	assert.Equal(t, CodeConfig, ErrorCode(err))
	assert.True(t, IsConfigError(err))
}

func TestVerifier_Verify_EmptyToken(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})

	_, err := v.Verify(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
}

func TestVerifier_Verify_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "Missing segments", token: "onlyonepart"},
		{name: "Two segments", token: "part1.part2"},
		{name: "Four segments", token: "a.b.c.d"},
		{name: "Invalid base64 header", token: "!!!.payload.sig"},
	}

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTokenMalformed)
			assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
		})
	}
}

func TestVerifier_Verify_AlgorithmRejection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		alg  string
	}{
		{name: "none algorithm", alg: "none"},
		{name: "RS256", alg: "RS256"},
		{name: "HS512", alg: "HS512"},
	}

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token := createTestToken(t, testSecret, map[string]interface{}{
				"alg": tt.alg,
				"typ": "JWT",
			}, validClaims(time.Now().Add(time.Hour)))

			_, err := v.Verify(context.Background(), token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
			assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
		})
	}
}

func TestVerifier_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, []byte("different-secret"), nil, validClaims(time.Now().Add(time.Hour)))

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
}

func TestVerifier_Verify_TamperedPayload(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, validClaims(time.Now().Add(time.Hour)))

	// Swap the payload for one claiming a different subject.
	forged := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub": "attacker",
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tokenParts := splitToken(token)
	forgedParts := splitToken(forged)
	tampered := tokenParts[0] + "." + forgedParts[1] + "." + tokenParts[2]

	_, err := v.Verify(context.Background(), tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func splitToken(token string) []string {
	parts := make([]string, 0, 3)
	start := 0
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			parts = append(parts, token[start:i])
			start = i + 1
		}
	}
	return append(parts, token[start:])
}

func TestVerifier_Verify_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret},
		WithClock(func() time.Time { return now }))

	token := createTestToken(t, testSecret, nil, validClaims(now.Add(-time.Hour)))

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, CodeTokenExpired, ErrorCode(err))
	assert.True(t, IsExpiredError(err))
}

func TestVerifier_Verify_ExpiryStrictWithoutSkew(t *testing.T) {
	t.Parallel()

	now := time.Now()
	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret},
		WithClock(func() time.Time { return now }))

	// Expired by a single second; with no skew configured this fails.
	token := createTestToken(t, testSecret, nil, validClaims(now.Add(-time.Second)))

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifier_Verify_ClockSkewTolerance(t *testing.T) {
	t.Parallel()

	now := time.Now()
	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret, ClockSkew: time.Minute},
		WithClock(func() time.Time { return now }))

	// Expired ten seconds ago, within the allowed skew.
	token := createTestToken(t, testSecret, nil, validClaims(now.Add(-10*time.Second)))

	_, err := v.Verify(context.Background(), token)
	assert.NoError(t, err)
}

func TestVerifier_Verify_MissingExpiry(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub": "user-123",
		"aud": "authenticated",
	})

	// A token without an exp claim does not fail expiry validation.
	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestVerifier_Verify_AudienceMismatch(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub": "user-123",
		"aud": "somebody-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAudience)
	assert.Equal(t, CodeTokenInvalid, ErrorCode(err))
}

func TestVerifier_Verify_MissingAudience(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, &VerifierConfig{Secret: testSecret})
	token := createTestToken(t, testSecret, nil, map[string]interface{}{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestNewVerifier_NilConfig(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, nil)

	// With no config there is no secret, so verification fails closed.
	_, err := v.Verify(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}
