package domain

import "time"

// LoginChallenge es el OTP de login activo de un socio. Vive separado de Member
// para que el estado transitorio no se mezcle con la identidad.
type LoginChallenge struct {
	MemberID  string
	OtpHash   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c LoginChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
