package domain

import "time"

// RevokedToken identifica un token de sesion invalidado antes de su expiracion natural.
// TokenDigest es el sha256 hex del token crudo.
type RevokedToken struct {
	TokenDigest string
	ExpiresAt   time.Time
}
