package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*models.User{}} }

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return core.ErrUserExists
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[email], nil
}

type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, error) { return "token-" + userID, nil }

func newUserService() (*UserService, *memUsers) {
	store := newMemUsers()
	s := NewUserService(store, stubTokens{})
	s.cost = bcrypt.MinCost
	return s, store
}

func TestSignupAndLogin(t *testing.T) {
	s, store := newUserService()
	ctx := context.Background()

	user, token, err := s.Signup(ctx, SignupInput{FirstName: " Ada ", Email: "Ada@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "ada@example.com" || user.FirstName != "Ada" {
		t.Fatalf("user = %+v", user)
	}
	if token != "token-"+user.ID {
		t.Fatalf("token = %q", token)
	}
	if store.byEmail["ada@example.com"].PasswordHash == "secret1" {
		t.Fatal("password stored in clear text")
	}

	if _, _, err := s.Signup(ctx, SignupInput{Email: "ada@example.com", Password: "another"}); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("duplicate signup err = %v", err)
	}

	got, _, err := s.Login(ctx, "ADA@example.com", "secret1")
	if err != nil || got.ID != user.ID {
		t.Fatalf("Login = %+v, %v", got, err)
	}
	if _, _, err := s.Login(ctx, "ada@example.com", "wrong!!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v", err)
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	s, _ := newUserService()
	cases := []SignupInput{
		{Email: "not-an-email", Password: "secret1"},
		{Email: "Ada <ada@example.com>", Password: "secret1"},
		{Email: "ada@example.com", Password: "123"},
	}
	for _, in := range cases {
		if _, _, err := s.Signup(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: err = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestLongPasswordsAreTruncated(t *testing.T) {
	s, _ := newUserService()
	long := strings.Repeat("p", 100)
	if _, _, err := s.Signup(context.Background(), SignupInput{Email: "long@example.com", Password: long}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, _, err := s.Login(context.Background(), "long@example.com", long); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := truncatePassword(strings.Repeat("a", 71) + "é"); len(got) != 71 {
		t.Fatalf("split rune kept: %d bytes", len(got))
	}
}
