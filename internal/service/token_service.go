package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig se carga una vez al arrancar y no cambia durante la vida del proceso.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// TokenService emite y valida tokens de sesion JWT ligados a un member id.
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	registry RevocationRegistry
	now      func() time.Time
}

type Claims struct {
	MemberID string `json:"uid"`
	jwt.RegisteredClaims
}

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevoked          = errors.New("token revoked")
	ErrSigningKeyMissing     = errors.New("signing key missing")
)

func NewTokenService(cfg TokenConfig, registry RevocationRegistry) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSigningKeyMissing
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = "member-auth"
	}
	if registry == nil {
		registry = NewMemoryRevocationRegistry()
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{
		secret:   secret,
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue firma un token HS256 para el socio.
func (s *TokenService) Issue(memberID string) (string, error) {
	if strings.TrimSpace(memberID) == "" {
		return "", ErrInvalidInput
	}
	now := s.now()
	claims := Claims{
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate comprueba firma, expiracion y claims. No consulta la lista de revocados.
func (s *TokenService) Validate(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrTokenMalformed
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenMalformed
		}
	}
	if !s.isValidClaims(claims) {
		return "", ErrTokenMalformed
	}
	return claims.MemberID, nil
}

// Authenticate es Validate mas la consulta al registro de revocacion.
func (s *TokenService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	memberID, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}
	revoked, err := s.registry.IsBlacklisted(ctx, tokenString)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrTokenRevoked
	}
	return memberID, nil
}

// ExpiresAt lee exp sin verificar la firma. Solo sirve para dimensionar la
// entrada de revocacion; nunca para autorizar.
func (s *TokenService) ExpiresAt(tokenString string) (time.Time, bool) {
	var claims Claims
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s *TokenService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.MemberID) == "" {
		return false
	}
	if claims.Subject != claims.MemberID {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.Issuer == s.issuer
}

// Revoke agrega el token al registro hasta expiresAt.
func (s *TokenService) Revoke(ctx context.Context, tokenString string, expiresAt time.Time) error {
	return s.registry.Blacklist(ctx, tokenString, expiresAt)
}
