package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, subject, name string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func invoke(t *testing.T, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	next := func(c echo.Context) error { return nil }
	err := JWTAuth(testSecret)(next)(c)
	return c, err
}

func TestJWTAuth_ValidToken(t *testing.T) {
	token := signToken(t, testSecret, "user-1", "Maria Silva")

	c, err := invoke(t, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Get("userID"); got != "user-1" {
		t.Errorf("userID = %v, want user-1", got)
	}
	if got := c.Get("userName"); got != "Maria Silva" {
		t.Errorf("userName = %v, want Maria Silva", got)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	_, err := invoke(t, "")
	assertUnauthorized(t, err)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", "user-1", "Maria Silva")
	_, err := invoke(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	_, err = invoke(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestJWTAuth_MissingSubject(t *testing.T) {
	token := signToken(t, testSecret, "", "Nameless")
	_, err := invoke(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", he.Code)
	}
}
