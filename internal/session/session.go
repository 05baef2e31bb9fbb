// Package session keeps the signed-in user in a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billed/internal/core"
)

const (
	CookieName = "billed_session"
	issuer     = "billed"
)

var ErrNoSession = errors.New("no session")

// Claims are the registered JWT claims plus the user fields the app needs.
type Claims struct {
	jwt.RegisteredClaims
	Type  core.UserType `json:"type"`
	Email string        `json:"email"`
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secureCookie bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session: empty secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secureCookie, now: time.Now}, nil
}

// Sign returns a signed token for s.
func (m *Manager) Sign(s core.Session) (string, error) {
	if !s.Valid() {
		return "", fmt.Errorf("session: invalid user %q", s.Email)
	}
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Type:  s.Type,
		Email: s.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates token and returns the session it carries.
func (m *Manager) Parse(token string) (core.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return core.Session{}, fmt.Errorf("parse session: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return core.Session{}, errors.New("parse session: invalid claims")
	}
	s := core.Session{Type: claims.Type, Email: claims.Email}
	if !s.Valid() {
		return core.Session{}, errors.New("parse session: invalid user")
	}
	return s, nil
}

// Issue writes the session cookie.
func (m *Manager) Issue(w http.ResponseWriter, s core.Session) error {
	token, err := m.Sign(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest reads the session cookie of r.
func (m *Manager) FromRequest(r *http.Request) (core.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return core.Session{}, ErrNoSession
	}
	return m.Parse(c.Value)
}
