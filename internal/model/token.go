package model

import "time"

// RefreshToken is a refreshTokens/{hash} document. The opaque token itself
// is never stored.
type RefreshToken struct {
	Hash       string     `json:"-"`
	UserID     string     `json:"userId"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Revoked    bool       `json:"revoked"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	ReplacedBy string     `json:"replacedBy,omitempty"`
}

// Expired reports whether the token is past its expiry at now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Rotated reports whether the token was revoked by a refresh, as opposed
// to a logout
func (t *RefreshToken) Rotated() bool {
	return t.Revoked && t.ReplacedBy != ""
}
