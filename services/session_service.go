package services

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/models"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "session"

// SessionClaims are the claims signed into a session token
type SessionClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SessionService issues HS256 session tokens for logged-in users
type SessionService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService creates a session service from the loaded configuration
func NewSessionService(cfg *config.Config) *SessionService {
	return &SessionService{
		secret:   []byte(cfg.SessionSecret),
		issuer:   cfg.SessionIssuer,
		audience: cfg.SessionAudience,
		ttl:      cfg.SessionTTL,
		now:      time.Now,
	}
}

// TTL is how long issued sessions stay valid
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session token for user, returning the token and its expiry
func (s *SessionService) Issue(user models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	claims := SessionClaims{
		Role: string(user.Role),
		Name: user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, storeError("Failed to sign session token", err)
	}
	return token, expires, nil
}
