package email

import (
	"context"
	"errors"
	"time"
)

// Tipos de mensaje, usados tambien como etiqueta de metricas.
const (
	KindVerification = "verification"
	KindWelcome      = "welcome"
	KindLoginOTP     = "login_otp"
)

// Sender entrega los correos del flujo de alta y login.
type Sender interface {
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendWelcome(ctx context.Context, toEmail, fullName, memberID string) error
	SendLoginOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerificationOTP(context.Context, string, string, time.Time) error {
	return s.err()
}

func (s *disabledSender) SendWelcome(context.Context, string, string, string) error {
	return s.err()
}

func (s *disabledSender) SendLoginOTP(context.Context, string, string, time.Time) error {
	return s.err()
}
