package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// requestWithRole builds a request whose context already carries an
// authenticated identity, as if Authenticate had run.
func requestWithRole(role domain.Role) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	authCtx := &domain.AuthContext{
		UserID: "user-1",
		Email:  "ops@example.com",
		Role:   role,
	}
	return req.WithContext(context.WithValue(req.Context(), authContextKey, authCtx))
}

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	}
}

func forbiddenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid bearer token", "Bearer abc123", "abc123"},
		{"bearer with extra spaces", "Bearer   token-with-spaces   ", "token-with-spaces"},
		{"lowercase bearer", "bearer token123", "token123"},
		{"empty header", "", ""},
		{"no bearer prefix", "token123", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			if got := extractBearerToken(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	if GetAuthContext(context.Background()) != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &domain.AuthContext{
		UserID: "user-1",
		Email:  "admin@example.com",
		Role:   domain.RoleAdmin,
	}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)

	result := GetAuthContext(ctx)
	if result == nil {
		t.Fatal("expected auth context to be returned")
	}
	if result.UserID != "user-1" || result.Role != domain.RoleAdmin {
		t.Errorf("unexpected auth context %+v", result)
	}
}

func TestRequestLogging_PassesThrough(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	RequestLogging(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestPanicRecovery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler blew up")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	// The panic must be absorbed and turned into a 500
	PanicRecovery(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	cors := CORS([]string{"https://dashboard.example.com", "*"})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr := httptest.NewRecorder()

	cors(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "https://dashboard.example.com" {
		t.Error("expected CORS origin header to be set")
	}

	// Preflight short-circuits before the handler
	req = httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr = httptest.NewRecorder()

	cors(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for preflight, got %d", rr.Code)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	cors := CORS([]string{"https://dashboard.example.com"})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rr := httptest.NewRecorder()

	cors(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS header for disallowed origin")
	}
}

func TestStatusRecorder(t *testing.T) {
	sr := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	sr.WriteHeader(http.StatusNotFound)
	if sr.status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", sr.status)
	}
}

func TestAuthMiddleware_Authenticate_MissingToken(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	middleware.Authenticate(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	mockAuth := &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			if token != "valid-token" {
				return nil, domain.ErrUnauthorized
			}
			return &domain.AuthContext{
				UserID: "user-1",
				Email:  "admin@example.com",
				Role:   domain.RoleAdmin,
			}, nil
		},
	}
	middleware := NewAuthMiddleware(mockAuth)

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		authCtx := GetAuthContext(r.Context())
		if authCtx == nil {
			t.Error("expected auth context on request")
			return
		}
		if authCtx.UserID != "user-1" {
			t.Errorf("expected user-1, got %s", authCtx.UserID)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rr := httptest.NewRecorder()

	middleware.Authenticate(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if !handlerCalled {
		t.Error("expected handler to be called")
	}
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	// Every validation failure maps to 401, whatever the underlying cause
	tests := []struct {
		name        string
		validateErr error
	}{
		{"token expired", domain.ErrTokenExpired},
		{"session revoked", domain.ErrSessionNotFound},
		{"adapter failure", errors.New("signature mismatch")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &mockAuthService{
				validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
					return nil, tt.validateErr
				},
			}
			middleware := NewAuthMiddleware(mockAuth)

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			rr := httptest.NewRecorder()

			middleware.Authenticate(forbiddenHandler(t)).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestAuthMiddleware_RequireAdmin(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	t.Run("admin passes", func(t *testing.T) {
		called := false
		rr := httptest.NewRecorder()

		middleware.RequireAdmin(okHandler(&called)).ServeHTTP(rr, requestWithRole(domain.RoleAdmin))

		if rr.Code != http.StatusOK || !called {
			t.Errorf("expected admin through, got status %d called=%v", rr.Code, called)
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()

		middleware.RequireAdmin(forbiddenHandler(t)).ServeHTTP(rr, requestWithRole(domain.RoleMember))

		if rr.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rr.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		middleware.RequireAdmin(forbiddenHandler(t)).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rr.Code)
		}
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	t.Run("role in allowed set", func(t *testing.T) {
		called := false
		rr := httptest.NewRecorder()

		middleware.RequireRole(domain.RoleAdmin, domain.RoleMember)(okHandler(&called)).
			ServeHTTP(rr, requestWithRole(domain.RoleMember))

		if rr.Code != http.StatusOK || !called {
			t.Errorf("expected member through, got status %d called=%v", rr.Code, called)
		}
	})

	t.Run("role not in allowed set", func(t *testing.T) {
		rr := httptest.NewRecorder()

		middleware.RequireRole(domain.RoleAdmin, domain.RoleMember)(forbiddenHandler(t)).
			ServeHTTP(rr, requestWithRole(domain.RoleViewer))

		if rr.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rr.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		middleware.RequireRole(domain.RoleAdmin)(forbiddenHandler(t)).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rr.Code)
		}
	})
}
