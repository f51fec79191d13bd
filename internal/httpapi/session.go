package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ashhabsport/backend/internal/domain"
)

const sessionCookieName = "ashhab_session"

type sessionClaims struct {
	jwt.RegisteredClaims
	UserType string `json:"utype"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name"`
}

// SessionManager signs and verifies the session cookie. The cookie payload
// is an HS256 JWT carrying the identity fields, so a tampered cookie fails
// signature verification instead of being trusted.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Issue writes a fresh session cookie for sess.
func (m *SessionManager) Issue(w http.ResponseWriter, sess domain.Session) error {
	now := time.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sess.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserType: sess.UserType,
		Role:     sess.Role,
		Name:     sess.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest parses and verifies the session cookie.
func (m *SessionManager) FromRequest(r *http.Request) (domain.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return domain.Session{}, err
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	if !token.Valid {
		return domain.Session{}, errors.New("invalid session token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Session{}, errors.New("invalid session subject")
	}

	return domain.Session{
		UserID:   userID,
		UserType: claims.UserType,
		Role:     claims.Role,
		Name:     claims.Name,
	}, nil
}
