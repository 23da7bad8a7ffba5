package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer = "orcus"
	// DefaultTTL is the admin token validity window.
	DefaultTTL = 12 * time.Hour
)

var defaultLeeway = 30 * time.Second

// Claims carried by an admin token.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 admin tokens signed with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	leeway time.Duration
}

// NewManager builds a token manager. The secret must be non-empty; ttl <= 0
// falls back to DefaultTTL.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: defaultIssuer,
		leeway: defaultLeeway,
	}, nil
}

// Issue creates a signed token carrying the admin capability.
func (m *Manager) Issue() (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        randomHexID(12),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses the token and confirms it grants the admin capability.
func (m *Manager) Verify(token string) (Claims, error) {
	claims := Claims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("invalid token format")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	if !claims.Admin {
		return claims, errors.New("token lacks admin capability")
	}
	return claims, nil
}

// FromRequest extracts a token from the Authorization bearer header or,
// failing that, the "token" query parameter. Both channels carry the same
// capability so link-style admin actions work.
func FromRequest(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token != "" {
			return token, true
		}
	}
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token, true
	}
	return "", false
}

func randomHexID(nBytes int) string {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
