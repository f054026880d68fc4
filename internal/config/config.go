package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"member-auth"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`

	RegistrationOTPTTL time.Duration `env:"REGISTRATION_OTP_TTL" envDefault:"5m"`
	LoginOTPTTL        time.Duration `env:"LOGIN_OTP_TTL" envDefault:"1m"`
	OTPHashCost        int           `env:"OTP_HASH_COST" envDefault:"10"`
	MemberIDMaxTries   int           `env:"MEMBER_ID_MAX_ATTEMPTS" envDefault:"32"`

	RevocationTTLMode  string        `env:"REVOCATION_TTL_MODE" envDefault:"token_expiry"`
	RevocationTTL      time.Duration `env:"REVOCATION_TTL" envDefault:"24h"`
	RevocationTTLGrace time.Duration `env:"REVOCATION_TTL_GRACE" envDefault:"1m"`
	RevocationPurge    time.Duration `env:"REVOCATION_PURGE_INTERVAL" envDefault:"1h"`

	VerifyMaxAttempts int           `env:"VERIFY_MAX_ATTEMPTS" envDefault:"5"`
	VerifyWindow      time.Duration `env:"VERIFY_WINDOW" envDefault:"5m"`
	SendMaxAttempts   int           `env:"SEND_MAX_ATTEMPTS" envDefault:"3"`
	SendWindow        time.Duration `env:"SEND_WINDOW" envDefault:"10m"`

	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	SMTPHost      string        `env:"SMTP_HOST"`
	SMTPPort      int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string        `env:"SMTP_USER"`
	SMTPPass      string        `env:"SMTP_PASS"`
	SMTPFrom      string        `env:"SMTP_FROM"`
	SMTPFromName  string        `env:"SMTP_FROM_NAME"`
	SMTPUseTLS    bool          `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Modos de expiracion para entradas de revocacion.
const (
	RevocationModeFixed       = "fixed"
	RevocationModeTokenExpiry = "token_expiry"
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.RevocationTTLMode {
	case RevocationModeFixed, RevocationModeTokenExpiry:
	default:
		return fmt.Errorf("invalid REVOCATION_TTL_MODE %q", c.RevocationTTLMode)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.RegistrationOTPTTL <= 0 || c.LoginOTPTTL <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	if c.RevocationTTLMode == RevocationModeFixed && c.RevocationTTL < c.JWTTTL {
		// una ventana fija menor que la vida del token deja revalidar un token revocado
		return fmt.Errorf("REVOCATION_TTL (%s) must be >= JWT_TTL (%s) in fixed mode", c.RevocationTTL, c.JWTTTL)
	}
	return nil
}
