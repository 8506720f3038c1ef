package domain

import "time"

// APIKey is an org-scoped credential used to resolve the tenant for
// incoming requests. Only the SHA-256 hash of the token is stored.
type APIKey struct {
	ID        string
	OrgID     string
	Name      string
	KeyHash   string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsRevoked reports whether the key has been revoked
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// ValidateAPIKey checks required fields on an API key
func ValidateAPIKey(k *APIKey) error {
	if k.ID == "" || k.OrgID == "" || k.Name == "" || k.KeyHash == "" {
		return ErrMissingRequiredField
	}
	return nil
}
