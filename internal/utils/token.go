package utils

import (
	"errors"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenLifetime is fixed; tokens cannot be refreshed or revoked.
const TokenLifetime = time.Hour

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

// IdentityClaims is the verified content of a token.
type IdentityClaims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Claims holds every claim of the token, including email, iat and exp.
	Claims map[string]interface{}
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    TokenLifetime,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueToken signs claim as-is, overriding any iat and exp it carries.
func (s *TokenService) IssueToken(claim map[string]interface{}) (string, error) {
	now := s.now().Truncate(time.Millisecond)
	claims := jwt.MapClaims{}
	for k, v := range claim {
		claims[k] = v
	}
	claims["iat"] = numericDate(now)
	claims["exp"] = numericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken accepts a token until its exp instant inclusive.
func (s *TokenService) VerifyToken(tokenString string) (*IdentityClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	exp, ok := numericClaim(claims, "exp")
	if !ok {
		return nil, ErrInvalidToken
	}
	if s.now().After(exp) {
		return nil, ErrTokenExpired
	}
	iat, _ := numericClaim(claims, "iat")
	email, _ := claims["email"].(string)

	return &IdentityClaims{
		Email:     email,
		IssuedAt:  iat,
		ExpiresAt: exp,
		Claims:    claims,
	}, nil
}

// numericDate keeps milliseconds so exp is one lifetime after the real issue instant.
func numericDate(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1e3
}

func numericClaim(claims jwt.MapClaims, key string) (time.Time, bool) {
	v, ok := claims[key].(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Round(v * 1e3))), true
}
