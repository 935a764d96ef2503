package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
)

// AlgHS256 is the only accepted signing algorithm.
const AlgHS256 = "HS256"

// DefaultAudience is the audience every token must carry.
const DefaultAudience = "authenticated"

// Verifier validates bearer tokens and returns their claims.
type Verifier interface {
	// Verify decodes and cryptographically validates a compact JWT.
	Verify(ctx context.Context, token string) (*Claims, error)
}

// VerifierConfig configures token verification.
type VerifierConfig struct {
	// Secret is the shared HMAC signing secret. Verification fails with
	// ErrSecretNotConfigured when it is empty.
	Secret []byte

	// Audience is the expected audience claim value.
	Audience string

	// ClockSkew is the allowed clock skew for expiry validation.
	ClockSkew time.Duration
}

// DefaultVerifierConfig returns a VerifierConfig with default values.
func DefaultVerifierConfig() *VerifierConfig {
	return &VerifierConfig{
		Audience: DefaultAudience,
	}
}

// verifier implements the Verifier interface.
type verifier struct {
	config  *VerifierConfig
	logger  observability.Logger
	metrics *Metrics
	now     func() time.Time
}

// VerifierOption is a functional option for the verifier.
type VerifierOption func(*verifier)

// WithVerifierLogger sets the logger for the verifier.
func WithVerifierLogger(logger observability.Logger) VerifierOption {
	return func(v *verifier) {
		v.logger = logger
	}
}

// WithVerifierMetrics sets the metrics for the verifier.
func WithVerifierMetrics(metrics *Metrics) VerifierOption {
	return func(v *verifier) {
		v.metrics = metrics
	}
}

// WithClock sets the time source, used by tests to pin the clock.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *verifier) {
		v.now = now
	}
}

// NewVerifier creates a new token verifier.
func NewVerifier(config *VerifierConfig, opts ...VerifierOption) Verifier {
	if config == nil {
		config = DefaultVerifierConfig()
	}
	if config.Audience == "" {
		config.Audience = DefaultAudience
	}

	v := &verifier{
		config: config,
		logger: observability.NopLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.metrics == nil {
		v.metrics = NewMetrics("olympus")
	}

	return v
}

// tokenHeader represents the JWT header.
type tokenHeader struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Verify decodes and validates a compact JWT. It is a pure function of
// the raw token, the configured secret, and the current time.
func (v *verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	start := v.now()

	if len(v.config.Secret) == 0 {
		v.metrics.RecordVerification("error", "no_secret", time.Since(start))
		return nil, ErrSecretNotConfigured
	}

	if token == "" {
		v.metrics.RecordVerification("error", "empty_token", time.Since(start))
		return nil, NewVerificationError("empty token", ErrEmptyToken)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		v.metrics.RecordVerification("error", "malformed", time.Since(start))
		return nil, NewVerificationError("not a compact JWT", ErrTokenMalformed)
	}

	header, err := v.decodeHeader(parts[0])
	if err != nil {
		v.metrics.RecordVerification("error", "invalid_header", time.Since(start))
		return nil, NewVerificationError("failed to decode header", err)
	}

	// Only HS256 is accepted. The asserted algorithm is checked before
	// any signature work so an attacker cannot steer verification onto
	// a different scheme.
	if header.Algorithm != AlgHS256 {
		v.metrics.RecordVerification("error", "invalid_algorithm", time.Since(start))
		return nil, NewVerificationError(
			fmt.Sprintf("algorithm %s is not allowed", header.Algorithm),
			ErrUnsupportedAlgorithm,
		)
	}

	claims, err := v.decodePayload(parts[1])
	if err != nil {
		v.metrics.RecordVerification("error", "invalid_payload", time.Since(start))
		return nil, NewVerificationError("failed to decode payload", err)
	}

	if err := v.verifySignature(parts[0]+"."+parts[1], parts[2]); err != nil {
		v.metrics.RecordVerification("error", "invalid_signature", time.Since(start))
		return nil, err
	}

	if err := v.validateClaims(claims); err != nil {
		reason := "invalid_claims"
		if IsExpiredError(err) {
			reason = "expired"
		}
		v.metrics.RecordVerification("error", reason, time.Since(start))
		return nil, err
	}

	v.metrics.RecordVerification("success", "", time.Since(start))
	v.logger.Debug("token verified",
		observability.String("subject", claims.Subject),
		observability.String("issuer", claims.Issuer),
	)

	return claims, nil
}

// decodeHeader decodes the JWT header segment.
func (v *verifier) decodeHeader(encoded string) (*tokenHeader, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	var header tokenHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return &header, nil
}

// decodePayload decodes the JWT payload segment.
func (v *verifier) decodePayload(encoded string) (*Claims, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	var claims Claims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return &claims, nil
}

// verifySignature verifies the HMAC-SHA256 signature over the signing input.
func (v *verifier) verifySignature(signingInput, signature string) error {
	sigBytes, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return NewVerificationError("failed to decode signature", ErrTokenMalformed)
	}

	mac := hmac.New(sha256.New, v.config.Secret)
	mac.Write([]byte(signingInput))
	expected := mac.Sum(nil)

	if !hmac.Equal(sigBytes, expected) {
		return NewVerificationError("HMAC signature verification failed", ErrInvalidSignature)
	}

	return nil
}

// validateClaims validates the expiry and audience claims.
func (v *verifier) validateClaims(claims *Claims) error {
	if err := claims.ValidAt(v.now(), v.config.ClockSkew); err != nil {
		return NewVerificationError("token has expired", err)
	}

	if !claims.Audience.Contains(v.config.Audience) {
		return NewVerificationError("token audience does not match", ErrInvalidAudience)
	}

	return nil
}

// Ensure verifier implements Verifier.
var _ Verifier = (*verifier)(nil)
