package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pyme/backend/internal/infrastructure/auth"
	"github.com/pyme/backend/internal/infrastructure/logger"
	"github.com/pyme/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTUsernameKey = "jwt_username"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "

	// UserIDHeader identifies the user when token checks are disabled.
	UserIDHeader = "X-User-ID"
)

// TokenValidator verifies an access token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator TokenValidator
	// Disabled trusts the X-User-ID header instead of a token.
	Disabled bool
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth resolves the acting user of every request and stores it under
// JWTUserIDKey and in the request context.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		var userID, username string
		if cfg.Disabled {
			userID = c.GetHeader(UserIDHeader)
			if _, err := uuid.Parse(userID); err != nil {
				abortUnauthorized(c, log, dto.ErrCodeUnauthorized, "A valid X-User-ID header is required", err)
				return
			}
		} else {
			header := c.GetHeader(AuthHeaderKey)
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" {
				abortUnauthorized(c, log, dto.ErrCodeUnauthorized, "Authentication required", auth.ErrInvalidToken)
				return
			}
			claims, err := cfg.Validator.Validate(token)
			if err != nil {
				code, msg := dto.ErrCodeTokenInvalid, "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					code, msg = dto.ErrCodeTokenExpired, "Token has expired"
				}
				abortUnauthorized(c, log, code, msg, err)
				return
			}
			c.Set(JWTClaimsKey, claims)
			userID, username = claims.UserID, claims.Username
		}

		c.Set(JWTUserIDKey, userID)
		c.Set(JWTUsernameKey, username)

		ctx := c.Request.Context()
		ctx, reqLogger := logger.WithUserID(ctx, logger.FromContext(ctx), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinContextKey, reqLogger)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, code, message string, err error) {
	log.Warn("Authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("code", code),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetUserID returns the acting user resolved by JWTAuth.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetString(JWTUserIDKey)
	if raw == "" {
		return uuid.Nil, auth.ErrMissingUserID
	}
	return uuid.Parse(raw)
}
