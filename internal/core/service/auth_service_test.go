package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

type recordingRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingRecorder) RecordLogin(clientID string) {
	r.mu.Lock()
	r.ids = append(r.ids, clientID)
	r.mu.Unlock()
}

func newTestAuth(t *testing.T, recorder ports.LoginRecorder) (*AuthService, *ClientStore, *stubKV) {
	t.Helper()
	kv := newStubKV()
	clients := newTestStore(kv, newFakeClock())
	return NewAuthService(clients, kv, recorder, "secret", time.Hour, zerolog.Nop()), clients, kv
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, kv := newTestAuth(t, nil)

	client, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "  Alice  ",
		Email:    "alice@example.com",
		Password: "pass123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if client.Name != "Alice" || client.ID != "CLIENT_001" {
		t.Fatalf("unexpected client: %+v", client)
	}
	if client.Role != domain.RoleReseller || client.Status != domain.StatusActive || client.IsAdmin {
		t.Fatalf("self-registration must create an active non-admin reseller: %+v", client)
	}
	if !client.Metadata.HasAnyTag([]string{"new-signup"}) {
		t.Fatalf("expected new-signup tag, got %v", client.Metadata.Tags)
	}

	cred := storedCredential(t, kv, client.ID)
	if cred.Hash == "" || cred.Hash == "pass123" {
		t.Fatalf("expected a stored password hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !cred.ClientCreatedAt.Equal(client.CreatedAt) {
		t.Fatalf("credential not pinned to the account: %v vs %v", cred.ClientCreatedAt, client.CreatedAt)
	}
	if _, ok := kv.data[credentialKeyPrefix+"alice@example.com"]; ok {
		t.Fatalf("credential must not be keyed by email")
	}
}

func storedCredential(t *testing.T, kv *stubKV, clientID string) credential {
	t.Helper()
	raw, ok := kv.data[credentialKey(clientID)]
	if !ok {
		t.Fatalf("no credential stored for %s", clientID)
	}
	var cred credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		t.Fatalf("decode credential: %v", err)
	}
	return cred
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newTestAuth(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "", Email: "a@x.com", Password: "pass123"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "12345"}); err != domain.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuth(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "B", Email: "a@x.com", Password: "pass456"}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Register_RollsBackWhenCredentialFails(t *testing.T) {
	svc, clients, kv := newTestAuth(t, nil)
	kv.failSet[credentialKey("CLIENT_001")] = true

	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if c, _ := clients.GetByEmail(context.Background(), "a@x.com"); c != nil {
		t.Fatalf("client should have been rolled back")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	recorder := &recordingRecorder{}
	svc, _, _ := newTestAuth(t, recorder)
	ctx := context.Background()

	registered, err := svc.Register(ctx, ports.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, client, err := svc.Login(ctx, "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" || client.ID != registered.ID {
		t.Fatalf("unexpected login result: %q %+v", token, client)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != registered.ID || claims["email"] != "alice@example.com" || claims["role"] != "reseller" || claims["is_admin"] != false {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if claims["created_at"] != float64(registered.CreatedAt.UnixMilli()) {
		t.Fatalf("created_at claim = %v, want %d", claims["created_at"], registered.CreatedAt.UnixMilli())
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || time.Until(exp.Time) > time.Hour {
		t.Fatalf("unexpected expiry: %v %v", exp, err)
	}

	if len(recorder.ids) != 1 || recorder.ids[0] != registered.ID {
		t.Fatalf("login was not recorded: %v", recorder.ids)
	}
}

func TestAuthService_Login_WithoutRecorderStampsInline(t *testing.T) {
	kv := newStubKV()
	clock := newFakeClock()
	clients := newTestStore(kv, clock)
	svc := NewAuthService(clients, kv, nil, "secret", time.Hour, zerolog.Nop())
	ctx := context.Background()

	registered, err := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	clock.Advance(time.Hour)

	if _, _, err := svc.Login(ctx, "a@x.com", "pass123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	after, _ := clients.GetByID(ctx, registered.ID)
	if after.LastLogin == nil || !after.LastLogin.Equal(clock.Now()) {
		t.Fatalf("lastLogin = %v, want %v", after.LastLogin, clock.Now())
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, clients, _ := newTestAuth(t, nil)
	ctx := context.Background()

	registered, _ := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"})

	if _, _, err := svc.Login(ctx, "a@x.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@x.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("empty input: expected ErrInvalidCredentials, got %v", err)
	}

	inactive := domain.StatusInactive
	if _, err := clients.Update(ctx, registered.ID, ports.ClientPatch{Status: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@x.com", "pass123"); err != domain.ErrAccountInactive {
		t.Fatalf("inactive: expected ErrAccountInactive, got %v", err)
	}
}

func TestAuthService_Login_ClientWithoutCredential(t *testing.T) {
	svc, clients, _ := newTestAuth(t, nil)
	ctx := context.Background()

	if _, err := clients.Create(ctx, clientInput("Imported", "imported@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.Login(ctx, "imported@x.com", "anything"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_EnsureDefaultAdmin(t *testing.T) {
	svc, clients, kv := newTestAuth(t, nil)
	ctx := context.Background()

	admin, err := svc.EnsureDefaultAdmin(ctx, ports.AdminSeed{Password: "admin123"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if admin.Email != DefaultAdminEmail || admin.Name != DefaultAdminName {
		t.Fatalf("unexpected admin identity: %+v", admin)
	}
	if !admin.IsAdmin || admin.Role != domain.RoleAdmin || admin.Status != domain.StatusActive {
		t.Fatalf("unexpected admin flags: %+v", admin)
	}
	if admin.Metadata.CustomFields["isDefaultAdmin"] != true || admin.Metadata.CustomFields["createdBy"] != "system" {
		t.Fatalf("unexpected custom fields: %v", admin.Metadata.CustomFields)
	}
	if !strings.HasPrefix(storedCredential(t, kv, admin.ID).Hash, "$2") {
		t.Fatalf("expected a bcrypt hash for the admin")
	}

	again, err := svc.EnsureDefaultAdmin(ctx, ports.AdminSeed{Password: "admin123"})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if again.ID != admin.ID {
		t.Fatalf("seeding twice must not create another admin")
	}
	all, _ := clients.List(ctx, domain.ClientFilter{})
	if len(all) != 1 {
		t.Fatalf("expected 1 client, got %d", len(all))
	}

	if _, _, err := svc.Login(ctx, DefaultAdminEmail, "admin123"); err != nil {
		t.Fatalf("seeded admin cannot log in: %v", err)
	}
}

func TestAuthService_EnsureDefaultAdmin_SkipsWhenAdminExists(t *testing.T) {
	svc, clients, _ := newTestAuth(t, nil)
	ctx := context.Background()

	in := clientInput("Boss", "boss@x.com")
	in.IsAdmin = true
	existing, _ := clients.Create(ctx, in)

	got, err := svc.EnsureDefaultAdmin(ctx, ports.AdminSeed{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatalf("expected the existing admin, got %+v", got)
	}
	if c, _ := clients.GetByEmail(ctx, DefaultAdminEmail); c != nil {
		t.Fatalf("default admin should not be created when an admin exists")
	}
}

func TestAuthService_Login_AfterEmailChange(t *testing.T) {
	svc, clients, _ := newTestAuth(t, nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	newEmail := "new@x.com"
	if _, err := clients.Update(ctx, registered.ID, ports.ClientPatch{Email: &newEmail}); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, client, err := svc.Login(ctx, "new@x.com", "pass123")
	if err != nil {
		t.Fatalf("login with the new email: %v", err)
	}
	if client.ID != registered.ID {
		t.Fatalf("logged into %s, want %s", client.ID, registered.ID)
	}
	if _, _, err := svc.Login(ctx, "a@x.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_DeletedAccountPasswordDoesNotCarryOver(t *testing.T) {
	svc, clients, kv := newTestAuth(t, nil)
	ctx := context.Background()

	first, _ := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "first-pass"})
	if err := clients.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := kv.data[credentialKey(first.ID)]; ok {
		t.Fatalf("credential of deleted client still stored")
	}

	second, err := svc.Register(ctx, ports.RegisterInput{Name: "B", Email: "b@x.com", Password: "second-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	takeover := "a@x.com"
	if _, err := clients.Update(ctx, second.ID, ports.ClientPatch{Email: &takeover}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, _, err := svc.Login(ctx, "a@x.com", "first-pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("deleted account's password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@x.com", "second-pass"); err != nil {
		t.Fatalf("owner login: %v", err)
	}
}

func TestAuthService_Login_RejectsCredentialOfEarlierAccount(t *testing.T) {
	svc, clients, _ := newTestAuth(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// The imported record reuses CLIENT_001 for a different account.
	payload := `[{"id":"CLIENT_001","name":"Other","email":"a@x.com","role":"customer","status":"active","createdAt":"2020-01-01T00:00:00Z","updatedAt":"2020-01-01T00:00:00Z"}]`
	if _, err := clients.ImportAll(ctx, payload); err != nil {
		t.Fatalf("import: %v", err)
	}

	if _, _, err := svc.Login(ctx, "a@x.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_CorruptCredential(t *testing.T) {
	svc, _, kv := newTestAuth(t, nil)
	ctx := context.Background()

	registered, _ := svc.Register(ctx, ports.RegisterInput{Name: "A", Email: "a@x.com", Password: "pass123"})
	kv.data[credentialKey(registered.ID)] = "$2a$10$not-json"

	if _, _, err := svc.Login(ctx, "a@x.com", "pass123"); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
