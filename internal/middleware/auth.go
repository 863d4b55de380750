package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roleconsole/internal/cache"
	"roleconsole/internal/permission"
	"roleconsole/pkg/apperror"
	"roleconsole/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxActorID = "actorID"
	ctxRoleID  = "roleID"
)

// Claims carried by console tokens
type Claims struct {
	UserID int64  `json:"uid"`
	RoleID string `json:"role_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for uid acting with roleID
func IssueToken(secret []byte, uid int64, roleID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: uid,
		RoleID: roleID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", uid),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies the signature and expiry and returns the claims
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, err := uuid.Parse(claims.RoleID); err != nil {
		return nil, fmt.Errorf("invalid role_id claim: %w", err)
	}
	return claims, nil
}

// PermissionLoader reads the stored matrix of a role
type PermissionLoader interface {
	PermissionsForRole(ctx context.Context, roleID uuid.UUID) (permission.Matrix, error)
}

// Authenticator validates console tokens and checks the caller's role matrix
type Authenticator struct {
	secret []byte
	loader PermissionLoader
	cache  cache.PermissionCache
	log    *zap.Logger
}

// NewAuthenticator wires token validation to a permission source. permCache may be nil.
func NewAuthenticator(secret []byte, loader PermissionLoader, permCache cache.PermissionCache, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{secret: secret, loader: loader, cache: permCache, log: log}
}

// RequireAuth validates the JWT and stores the actor and role in the context
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission validates the JWT and checks that the caller's role holds every action on moduleID
func (a *Authenticator) RequirePermission(moduleID string, actions ...permission.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.authenticate(c)
		if !ok {
			return
		}
		roleID := uuid.MustParse(claims.RoleID)

		m, err := a.permissionsFor(c.Request.Context(), roleID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: role is no longer active"))
				return
			}
			a.log.Error("failed to load permissions", zap.String("role_id", claims.RoleID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		granted := m.Get(moduleID)
		for _, action := range actions {
			if !granted.Has(action) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+moduleID+"."+string(action)+"'"))
				return
			}
		}

		c.Next()
	}
}

// ActorID returns the authenticated user id set by the middleware
func ActorID(c *gin.Context) int64 {
	return c.GetInt64(ctxActorID)
}

// RoleID returns the caller's role id set by the middleware
func RoleID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxRoleID)
	roleID, _ := id.(uuid.UUID)
	return roleID
}

func (a *Authenticator) authenticate(c *gin.Context) (*Claims, bool) {
	tokenString, errMsg := tokenFromRequest(c)
	if errMsg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, errMsg))
		return nil, false
	}

	claims, err := ParseToken(a.secret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return nil, false
	}

	c.Set(ctxActorID, claims.UserID)
	c.Set(ctxRoleID, uuid.MustParse(claims.RoleID))
	return claims, true
}

// tokenFromRequest tries the access_token cookie first, then the Authorization header
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func (a *Authenticator) permissionsFor(ctx context.Context, roleID uuid.UUID) (permission.Matrix, error) {
	if a.cache != nil {
		m, ok, err := a.cache.Get(ctx, roleID)
		if err != nil {
			// A broken cache degrades to direct store reads.
			a.log.Warn("permission cache read failed", zap.String("role_id", roleID.String()), zap.Error(err))
		} else if ok {
			return m, nil
		}
	}

	m, err := a.loader.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, roleID, m); err != nil {
			a.log.Warn("permission cache write failed", zap.String("role_id", roleID.String()), zap.Error(err))
		}
	}
	return m, nil
}
