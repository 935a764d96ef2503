package auth

import (
	"encoding/json"
	"time"
)

// Claims represents the decoded JWT payload: the standard registered
// claims the verifier checks plus the nested custom namespace carrying
// tenant and permission data.
type Claims struct {
	Issuer    string   `json:"iss,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Audience  Audience `json:"aud,omitempty"`
	ExpiresAt *Time    `json:"exp,omitempty"`
	IssuedAt  *Time    `json:"iat,omitempty"`

	// Email claims are issued at the top level of the payload.
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`

	// Olympus is the custom claims namespace. Every field inside it is
	// optional; a token without the namespace yields zero-value claims.
	Olympus *OlympusClaims `json:"olympus,omitempty"`
}

// OlympusClaims is the nested custom claims namespace.
type OlympusClaims struct {
	TenantID        string   `json:"tenant_id,omitempty"`
	TenantRole      string   `json:"tenant_role,omitempty"`
	TenantSlug      string   `json:"tenant_slug,omitempty"`
	Permissions     []string `json:"permissions,omitempty"`
	PlanTier        string   `json:"plan_tier,omitempty"`
	IsPlatformAdmin bool     `json:"is_platform_admin,omitempty"`
}

// Time is a wrapper around time.Time for NumericDate JSON marshaling.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var timestamp float64
	if err := json.Unmarshal(data, &timestamp); err != nil {
		return err
	}
	t.Time = time.Unix(int64(timestamp), 0)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Unix())
}

// Audience represents the JWT audience claim which can be a string or array.
type Audience []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Audience) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as string first
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}

	var multiple []string
	if err := json.Unmarshal(data, &multiple); err != nil {
		return err
	}
	*a = Audience(multiple)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Contains checks if the audience contains a specific value.
func (a Audience) Contains(aud string) bool {
	for _, v := range a {
		if v == aud {
			return true
		}
	}
	return false
}

// ValidAt validates the time-based claims at the given instant with
// clock skew tolerance. A missing exp claim does not fail validation.
func (c *Claims) ValidAt(now time.Time, skew time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time.Add(skew)) {
		return ErrTokenExpired
	}
	return nil
}

// OlympusOrDefault returns the custom claims namespace, substituting
// zero-value claims when the token carries none.
func (c *Claims) OlympusOrDefault() OlympusClaims {
	if c.Olympus == nil {
		return OlympusClaims{}
	}
	return *c.Olympus
}
