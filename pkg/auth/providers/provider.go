package providers

import "context"

// AuthProvider verifies bearer tokens. Identity issuance itself happens
// outside this system; all the server needs back is a stable opaque UID.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID string `json:"uid"`
}
