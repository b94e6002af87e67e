package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Client, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Client, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Client, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) EnsureDefaultAdmin(context.Context, ports.AdminSeed) (*domain.Client, error) {
	return nil, errors.New("not implemented")
}

// newTestEcho returns an Echo instance with the request validator installed.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Client{ID: "CLIENT_001", Name: in.Name, Email: in.Email, Role: domain.RoleReseller, Status: domain.StatusActive}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"secret1"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	client, ok := resp["client"].(map[string]any)
	if !ok {
		t.Fatalf("expected client in response")
	}
	if client["id"] != "CLIENT_001" || client["role"] != "reseller" {
		t.Fatalf("unexpected client payload: %+v", client)
	}
	if _, hasToken := resp["token"]; hasToken {
		t.Fatalf("register must not return a token")
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"name":"Bob","email":"bob@example.com","password":"secret1"}`), httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "not-json", http.StatusBadRequest},
		{"short password", `{"name":"Bob","email":"bob@example.com","password":"123"}`, http.StatusUnprocessableEntity},
		{"bad email", `{"name":"Bob","email":"bob","password":"secret1"}`, http.StatusUnprocessableEntity},
		{"missing name", `{"email":"bob@example.com","password":"secret1"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Client, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", tt.body), httptest.NewRecorder())

			err := NewAuthHandler(stub).Register(c)
			if got := httpStatus(t, err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.Client, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.Client{ID: "CLIENT_001", Email: email, Role: domain.RoleAdmin, IsAdmin: true}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret1"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrAccountInactive} {
		t.Run(want.Error(), func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				loginFn: func(ctx context.Context, email, password string) (string, *domain.Client, error) {
					return "", nil, want
				},
			}
			c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"x"}`), httptest.NewRecorder())

			if err := NewAuthHandler(stub).Login(c); !errors.Is(err, want) {
				t.Fatalf("expected %v, got %v", want, err)
			}
		})
	}
}

func TestLoginResult(t *testing.T) {
	if got := loginResult(domain.ErrInvalidCredentials); got != "invalid_credentials" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := loginResult(domain.ErrAccountInactive); got != "inactive" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := loginResult(errors.New("boom")); got != "error" {
		t.Fatalf("unexpected label %q", got)
	}
}
