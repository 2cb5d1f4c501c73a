package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

type Manager struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// Claims identify a staff member. Kind keeps a refresh token from being
// accepted where an access token is expected.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// Identity is the staff member a token was issued to.
type Identity struct {
	ID       string
	Username string
	Role     string
}

func (m *Manager) newToken(id Identity, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     id.Role,
		Username: id.Username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) NewAccessToken(id Identity) (string, error) {
	return m.newToken(id, TokenAccess, m.AccessTTL)
}

func (m *Manager) NewRefreshToken(id Identity) (string, error) {
	return m.newToken(id, TokenRefresh, m.RefreshTTL)
}

func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithIssuer(m.Issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ParseKind parses tokenStr and requires it to be of the given kind.
func (m *Manager) ParseKind(tokenStr, kind string) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, errors.New("wrong token kind")
	}
	return claims, nil
}

func (c *Claims) Identity() Identity {
	return Identity{ID: c.Subject, Username: c.Username, Role: c.Role}
}
