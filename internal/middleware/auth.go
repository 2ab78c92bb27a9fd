package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// EngineClaims are the JWT claims the engine accepts. An empty Companies list grants
// access to every company.
type EngineClaims struct {
	Companies []string `json:"companies,omitempty"`
	jwt.RegisteredClaims
}

// Allows reports whether the token may act on companyID.
func (c *EngineClaims) Allows(companyID string) bool {
	return len(c.Companies) == 0 || slices.Contains(c.Companies, companyID)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// AuthMiddleware validates the HS256 bearer token and stores its subject as the acting user.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	}

	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())
		header := c.GetHeader("Authorization")
		if header == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		raw, ok := bearerToken(header)
		if !ok {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims := &EngineClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			msg := "Invalid token"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "Token has expired"
			case errors.Is(err, jwt.ErrTokenNotValidYet):
				msg = "Token not valid yet"
			}
			logger.Warn("Rejected token", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		if claims.Subject == "" {
			logger.Error("Token has no subject")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, claimsKey, claims)
		c.Request = c.Request.WithContext(WithLogger(ctx, logger.With(slog.String("user_id", claims.Subject))))
		c.Next()
	}
}

// CompanyScope rejects requests whose :companyID path parameter the token does not cover.
// It must run after AuthMiddleware.
func CompanyScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.Param("companyID")
		claims, ok := c.Request.Context().Value(claimsKey).(*EngineClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !claims.Allows(companyID) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Token not scoped to company", slog.String("company_id", companyID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token does not grant access to this company"})
			return
		}
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(),
			GetLoggerFromCtx(c.Request.Context()).With(slog.String("company_id", companyID))))
		c.Next()
	}
}
