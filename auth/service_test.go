package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestService_RegisterAndAuthenticate(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	ctx := context.Background()
	params := RegisterClientParams{
		FullName: "Ivan Petrov",
		Phone:    "+7 900 000 00 01",
		Login:    "ivan",
		Password: "supersafe",
	}

	id, err := svc.RegisterClient(ctx, params)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if id != 1 {
		t.Fatalf("register: expected id 1 got %d", id)
	}

	identity, err := svc.Authenticate(ctx, params.Login, params.Password)
	if err != nil {
		t.Fatalf("authenticate: unexpected error: %v", err)
	}
	if identity.UserID != id {
		t.Fatalf("authenticate: expected user id %d got %d", id, identity.UserID)
	}
	if identity.FullName != params.FullName {
		t.Fatalf("authenticate: expected full name %q got %q", params.FullName, identity.FullName)
	}
	if identity.Role != RoleClient {
		t.Fatalf("authenticate: expected role %s got %s", RoleClient, identity.Role)
	}

	token, err := svc.IssueToken(identity)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	tokenID, tokenRole, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenID != id {
		t.Fatalf("verify token: expected user id %d got %d", id, tokenID)
	}
	if tokenRole != RoleClient {
		t.Fatalf("verify token: expected role %s got %s", RoleClient, tokenRole)
	}
}

func TestService_RegisterDuplicateLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	params := RegisterClientParams{
		FullName: "Ivan Petrov",
		Phone:    "+7 900 000 00 01",
		Login:    "ivan",
		Password: "supersafe",
	}
	if _, err := svc.RegisterClient(context.Background(), params); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.RegisterClient(context.Background(), params); !errors.Is(err, ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	if _, err := svc.RegisterClient(context.Background(), RegisterClientParams{
		FullName: "Ivan Petrov",
		Login:    "ivan",
		Password: "short",
	}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.RegisterClient(context.Background(), RegisterClientParams{
		FullName: "",
		Login:    "",
		Password: "strongpassword",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}
}

func TestService_AuthenticateInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	if _, err := svc.Authenticate(context.Background(), "unknown", "irrelevant"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown login, got %v", err)
	}

	params := RegisterClientParams{
		FullName: "Ivan Petrov",
		Login:    "ivan",
		Password: "supersafe",
	}
	if _, err := svc.RegisterClient(context.Background(), params); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "ivan", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleAdministrator, RoleManager, RoleOperator, RoleMaster, RoleClient} {
		if !ValidRole(role) {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if ValidRole(Role("supervisor")) {
		t.Fatal("expected supervisor to be invalid")
	}
}

type fakeRepository struct {
	usersByLogin map[string]User
	nextID       int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		usersByLogin: make(map[string]User),
		nextID:       1,
	}
}

func (f *fakeRepository) GetByLogin(ctx context.Context, login string) (User, error) {
	user, ok := f.usersByLogin[strings.ToLower(login)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) CreateClient(ctx context.Context, params CreateClientParams) (int64, error) {
	key := strings.ToLower(params.Login)
	if _, exists := f.usersByLogin[key]; exists {
		return 0, ErrDuplicateLogin
	}

	id := f.nextID
	f.nextID++

	phone := params.Phone
	f.usersByLogin[key] = User{
		ID:           id,
		Login:        params.Login,
		PasswordHash: params.PasswordHash,
		Role:         RoleClient,
		FullName:     params.FullName,
		Phone:        &phone,
	}

	return id, nil
}
