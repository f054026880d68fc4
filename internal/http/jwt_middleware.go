package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"member-auth/internal/service"
)

const authMemberKey = "auth_member_id"

// JWTAuthMiddleware valida el bearer token (firma, expiracion y revocacion) y
// guarda el member id en el contexto.
func JWTAuthMiddleware(logger *zap.Logger, tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		memberID, err := tokens.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenRevoked):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			case errors.Is(err, service.ErrTokenExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			case errors.Is(err, service.ErrTokenMalformed),
				errors.Is(err, service.ErrTokenInvalidSignature):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			default:
				logger.Error("token revocation lookup failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not authenticate"})
			}
			c.Abort()
			return
		}

		c.Set(authMemberKey, memberID)
		c.Next()
	}
}

// GetAuthMemberID obtiene el member id autenticado desde el contexto.
func GetAuthMemberID(c *gin.Context) (string, bool) {
	val, ok := c.Get(authMemberKey)
	if !ok {
		return "", false
	}
	memberID, ok := val.(string)
	return memberID, ok && memberID != ""
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
