package authentication

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/identity"
	"github.com/mehmetcc/homefinders-service/internal/utils"
)

const (
	// ContextClaimsKey holds the *utils.IdentityClaims of a verified token.
	ContextClaimsKey = "claims"
	// ContextRoleKey holds the identity.Role resolved for the token subject.
	ContextRoleKey = "role"
)

var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden access")
)

// Check is one authorization step of a route. Checks run in order and the
// first error stops the request.
type Check func(c *gin.Context) error

type TokenVerifier interface {
	VerifyToken(tokenString string) (*utils.IdentityClaims, error)
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (identity.Role, error)
}

// Caller is the authenticated subject of a request.
type Caller struct {
	Email string
	Role  identity.Role
}

type Authorizer struct {
	tokens TokenVerifier
	roles  RoleResolver
	logger *zap.Logger
}

func NewAuthorizer(tokens TokenVerifier, roles RoleResolver, logger *zap.Logger) *Authorizer {
	return &Authorizer{tokens: tokens, roles: roles, logger: logger}
}

// Require turns checks into a single gin handler.
func (a *Authorizer) Require(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checks {
			err := check(c)
			switch {
			case err == nil:
				continue
			case errors.Is(err, ErrUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			case errors.Is(err, ErrForbidden):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
			default:
				a.logger.Error("authorization check failed", zap.String("path", c.FullPath()), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "could not authorize request"})
			}
			return
		}
		c.Next()
	}
}

// Token verifies the bearer token and stores its claims on the request.
func (a *Authorizer) Token() Check {
	return func(c *gin.Context) error {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			return ErrUnauthorized
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ErrUnauthorized
		}

		claims, err := a.tokens.VerifyToken(parts[1])
		if err != nil {
			a.logger.Warn("access token rejected", zap.Error(err))
			return ErrUnauthorized
		}
		if claims.Email == "" {
			a.logger.Warn("access token has no email claim")
			return ErrUnauthorized
		}
		c.Set(ContextClaimsKey, claims)
		return nil
	}
}

// Identify resolves the role of the token subject without restricting it.
func (a *Authorizer) Identify() Check {
	return func(c *gin.Context) error {
		_, err := a.resolve(c)
		return err
	}
}

// Role admits only callers whose stored role is one of roles.
func (a *Authorizer) Role(roles ...identity.Role) Check {
	return func(c *gin.Context) error {
		role, err := a.resolve(c)
		if err != nil {
			return err
		}
		for _, allowed := range roles {
			if role == allowed {
				return nil
			}
		}
		return ErrForbidden
	}
}

// Self admits only callers whose token email equals the path parameter param.
func (a *Authorizer) Self(param string) Check {
	return func(c *gin.Context) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return ErrUnauthorized
		}
		if c.Param(param) != claims.Email {
			return ErrForbidden
		}
		return nil
	}
}

func (a *Authorizer) resolve(c *gin.Context) (identity.Role, error) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return "", ErrUnauthorized
	}
	role, err := a.roles.ResolveRole(c.Request.Context(), claims.Email)
	if err != nil {
		return "", err
	}
	c.Set(ContextRoleKey, role)
	return role, nil
}

func ClaimsFromContext(c *gin.Context) (*utils.IdentityClaims, bool) {
	raw, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*utils.IdentityClaims)
	return claims, ok
}

// CallerFromContext returns the token subject and, when a role check ran, its role.
func CallerFromContext(c *gin.Context) (Caller, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return Caller{}, false
	}
	caller := Caller{Email: claims.Email, Role: identity.Guest}
	if raw, exists := c.Get(ContextRoleKey); exists {
		if role, ok := raw.(identity.Role); ok {
			caller.Role = role
		}
	}
	return caller, true
}
