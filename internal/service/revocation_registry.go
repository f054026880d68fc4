package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"member-auth/internal/repository"
)

// RevocationRegistry guarda tokens que deben rechazarse aunque no hayan expirado.
// Una entrada vencida equivale a una ausente.
type RevocationRegistry interface {
	Blacklist(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// tokenDigest evita guardar el token crudo.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

type memoryRevocationRegistry struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryRevocationRegistry() RevocationRegistry {
	return &memoryRevocationRegistry{
		items: make(map[string]time.Time),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryRevocationRegistry) Blacklist(_ context.Context, token string, expiresAt time.Time) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tokenDigest(token)
	if current, ok := r.items[key]; ok && current.After(expiresAt) {
		return nil
	}
	r.items[key] = expiresAt
	return nil
}

func (r *memoryRevocationRegistry) IsBlacklisted(_ context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tokenDigest(token)
	exp, ok := r.items[key]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.items, key)
		return false, nil
	}
	return true, nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRevocationRegistry struct {
	client redisKVClient
	prefix string
	now    func() time.Time
}

// NewRedisRevocationRegistry delega la expiracion de entradas al TTL de redis.
func NewRedisRevocationRegistry(client *redis.Client) RevocationRegistry {
	if client == nil {
		return nil
	}
	return &redisRevocationRegistry{
		client: client,
		prefix: "auth:revoked:",
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *redisRevocationRegistry) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return r.client.Set(ctx, r.prefix+tokenDigest(token), 1, ttl).Err()
}

func (r *redisRevocationRegistry) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := r.client.Exists(ctx, r.prefix+tokenDigest(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PgRevocationRegistry usa la tabla revoked_tokens cuando no hay redis.
type PgRevocationRegistry struct {
	repo repository.RevokedTokenRepository
	now  func() time.Time
}

func NewPgRevocationRegistry(repo repository.RevokedTokenRepository) *PgRevocationRegistry {
	return &PgRevocationRegistry{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *PgRevocationRegistry) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return r.repo.Insert(ctx, tokenDigest(token), expiresAt)
}

func (r *PgRevocationRegistry) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	return r.repo.Exists(ctx, tokenDigest(token), r.now())
}

// Purge borra entradas vencidas; las consultas ya las ignoran, esto solo libera espacio.
func (r *PgRevocationRegistry) Purge(ctx context.Context) (int64, error) {
	return r.repo.Purge(ctx, r.now())
}

// RevocationPolicy decide hasta cuando vive una entrada de revocacion.
type RevocationPolicy struct {
	// MatchTokenExpiry deriva la expiracion del exp del token (+Grace). Si es
	// false se usa siempre now+Fixed.
	MatchTokenExpiry bool
	Fixed            time.Duration
	Grace            time.Duration
	// MaxTokenLifetime acota el exp leido sin verificar firma: ningun token
	// emitido vive mas que now+TTL, asi que un exp mayor es falso.
	MaxTokenLifetime time.Duration
}

// ExpiresAt calcula la expiracion de la entrada. tokenExp es opcional: si el token
// no se pudo decodificar se usa la ventana fija.
func (p RevocationPolicy) ExpiresAt(now, tokenExp time.Time, ok bool) time.Time {
	fixed := p.Fixed
	if fixed <= 0 {
		fixed = 24 * time.Hour
	}
	if !p.MatchTokenExpiry || !ok {
		return now.Add(fixed)
	}
	if tokenExp.Before(now) {
		tokenExp = now
	}
	if p.MaxTokenLifetime > 0 {
		if limit := now.Add(p.MaxTokenLifetime); tokenExp.After(limit) {
			tokenExp = limit
		}
	}
	return tokenExp.Add(p.Grace)
}
