package domain

import "time"

// PendingRegistration guarda un intento de registro hasta que el email se verifica.
type PendingRegistration struct {
	Email        string
	FullName     string
	Contact      string
	DateOfBirth  time.Time
	OtpHash      string
	OtpExpiresAt time.Time
	CreatedAt    time.Time
}

// Expired indica si la ventana del OTP de registro ya vencio en now.
func (p PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.OtpExpiresAt)
}
