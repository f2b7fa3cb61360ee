package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/student-portal/internal/domain"
)

func newTestApp(t *testing.T, tokens *TokenManager) *fiber.App {
	t.Helper()
	mw := NewAuthMiddleware(tokens, "access_token")
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(http.StatusUnauthorized).SendString(err.Error())
		},
	})
	app.Get("/me", mw.Handle, RequireIdentity(), func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		return c.SendString(identity.ID + "|" + identity.Name + "|" + identity.Email)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	token, _, err := tokens.GenerateToken(domain.Identity{ID: "u1", Name: "Ann", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	foreign, _, _ := NewTokenManager("other", 5).GenerateToken(domain.Identity{ID: "u1"})

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "u1|Ann|a@x.com"},
		{name: "cookie", cookie: token, wantStatus: http.StatusOK, wantBody: "u1|Ann|a@x.com"},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
	}

	app := newTestApp(t, tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Fatalf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestParseTokenRequiresSubject(t *testing.T) {
	tokens := NewTokenManager("secret", 5)
	token, _, err := tokens.GenerateToken(domain.Identity{Name: "Ann"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := tokens.ParseToken(token); err == nil {
		t.Fatal("expected error for token without subject")
	}
}
