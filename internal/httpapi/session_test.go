package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ashhabsport/backend/internal/domain"
)

func issueCookie(t *testing.T, m *SessionManager, sess domain.Session) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, sess); err != nil {
		t.Fatalf("issue: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("roundtrip-secret-0123456789abcdef", time.Hour)

	want := domain.Session{
		UserID: 7, UserType: domain.UserTypeEmployee,
		Role: domain.RoleAdmin, Name: "Admin User",
	}
	cookie := issueCookie(t, m, want)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	got, err := m.FromRequest(req)
	if err != nil {
		t.Fatalf("from request: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	m := NewSessionManager("tamper-secret-0123456789abcdefgh", time.Hour)

	cookie := issueCookie(t, m, domain.Session{
		UserID: 3, UserType: domain.UserTypeCustomer, Name: "Customer",
	})

	// Flip part of the payload; the signature no longer matches.
	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("expected JWT cookie, got %q", cookie.Value)
	}
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	cookie.Value = strings.Join(parts, ".")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if _, err := m.FromRequest(req); err == nil {
		t.Fatal("expected tampered cookie to be rejected")
	}
}

func TestSessionRejectsOtherSecret(t *testing.T) {
	issuer := NewSessionManager("issuer-secret-0123456789abcdefgh", time.Hour)
	verifier := NewSessionManager("another-secret-0123456789abcdefg", time.Hour)

	cookie := issueCookie(t, issuer, domain.Session{
		UserID: 1, UserType: domain.UserTypeCustomer, Name: "Customer",
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if _, err := verifier.FromRequest(req); err == nil {
		t.Fatal("expected cookie signed with a different secret to be rejected")
	}
}

func TestSessionRejectsExpired(t *testing.T) {
	m := NewSessionManager("expired-secret-0123456789abcdefgh", time.Nanosecond)

	cookie := issueCookie(t, m, domain.Session{
		UserID: 1, UserType: domain.UserTypeCustomer, Name: "Customer",
	})
	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if _, err := m.FromRequest(req); err == nil {
		t.Fatal("expected expired session to be rejected")
	}
}
