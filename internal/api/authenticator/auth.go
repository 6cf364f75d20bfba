package authenticator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/praveen001/planner/internal/config"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

// UserClaims is the identity attached to every authenticated request.
type UserClaims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
}

func New(conf *config.Config) (*Authenticator, error) {
	if conf.JWT_SECRET == "" {
		return nil, ErrMissingSecret
	}

	return &Authenticator{secret: []byte(conf.JWT_SECRET)}, nil
}

// GenerateToken issues a signed access token for the given user.
func (a *Authenticator) GenerateToken(userID, email, name string) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken validates the signature and expiry of an access token
// and returns the embedded claims.
func (a *Authenticator) VerifyAccessToken(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractToken pulls the raw token out of an Authorization header value.
// Both `Bearer <token>` (scheme case-insensitive) and a bare token are accepted.
func ExtractToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return header
}
