package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (string, []string, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var uid string
	var roles []string
	handler := func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		roles = RolesFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}
	err := mw(handler)(c)
	return uid, roles, err
}

func TestJWTMiddleware_MissingHeaderIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	uid, _, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "" {
		t.Errorf("expected anonymous request, got user %q", uid)
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			_, _, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "6f1c2f0e-5d7a-4c55-9a0e-111111111111",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"patient"},
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, claims, testSigningKey))

	uid, roles, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != claims.Subject {
		t.Errorf("expected subject %s, got %s", claims.Subject, uid)
	}
	if len(roles) != 1 || roles[0] != "patient" {
		t.Errorf("expected [patient], got %v", roles)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "someone"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, claims, []byte("other-key")))

	_, _, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req)
	if err == nil {
		t.Fatal("expected error for token signed with another key")
	}
}

func TestJWTMiddleware_Expired(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, claims, testSigningKey))

	if _, _, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), req); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "someone", Issuer: "elsewhere"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, claims, testSigningKey))

	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "https://id.smarthealth.local"}
	if _, _, err := runMiddleware(t, JWTMiddleware(cfg), req); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestDevAuthMiddleware_Headers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "dev-user")
	req.Header.Set(DevRoleHeader, "doctor")

	uid, roles, err := runMiddleware(t, DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "dev-user" || len(roles) != 1 || roles[0] != "doctor" {
		t.Errorf("unexpected identity %q %v", uid, roles)
	}
}

func TestDevAuthMiddleware_NoHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	uid, _, err := runMiddleware(t, DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "" {
		t.Errorf("expected anonymous, got %q", uid)
	}
}
