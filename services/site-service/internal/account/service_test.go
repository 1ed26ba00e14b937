package account

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/bizsites/libs/auth"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.Email] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memUsers) Get(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, pgx.ErrNoRows
}

func (m *memUsers) EnsureAdmin(ctx context.Context, email, hash string) error {
	if _, err := m.GetByEmail(ctx, email); err == nil {
		return nil
	}
	return m.Create(ctx, &model.User{Email: email, Name: "Administrator", PasswordHash: hash, Role: auth.RoleAdmin})
}

func newService() (*Service, *memUsers, *auth.Issuer) {
	users := &memUsers{users: map[string]model.User{}}
	issuer := auth.NewIssuer("test-secret", "bizsites", time.Hour)
	svc := New(users, issuer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.cost = bcrypt.MinCost
	return svc, users, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, issuer := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Email: " Owner@Example.com ", Password: "correct-horse", Name: "Owner"})
	if err != nil {
		t.Fatal(err)
	}
	if reg.User.Email != "owner@example.com" || reg.User.Role != auth.RoleOwner {
		t.Fatalf("unexpected user %+v", reg.User)
	}
	claims, err := issuer.Verify(reg.Token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if id, _ := claims.UserID(); id != reg.User.ID {
		t.Fatalf("token subject = %d, want %d", id, reg.User.ID)
	}

	login, err := svc.Login(ctx, "OWNER@example.com", "correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatal("login returned a different user")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	in := RegisterInput{Email: "a@example.com", Password: "password1"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, in)
	if _, ok := apperr.AsConflict(err); !ok {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService()
	cases := []struct {
		in    RegisterInput
		field string
	}{
		{RegisterInput{Email: "not-an-email", Password: "password1"}, "email"},
		{RegisterInput{Email: "a@example.com", Password: "short"}, "password"},
	}
	for _, tc := range cases {
		_, err := svc.Register(context.Background(), tc.in)
		ve, ok := apperr.AsValidation(err)
		if !ok || ve.Field != tc.field {
			t.Fatalf("%+v: got %v", tc.in, err)
		}
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"}); err != nil {
		t.Fatal(err)
	}

	_, errWrong := svc.Login(ctx, "a@example.com", "password2")
	_, errUnknown := svc.Login(ctx, "b@example.com", "password1")
	for _, err := range []error{errWrong, errUnknown} {
		if _, ok := apperr.AsUnauthorized(err); !ok {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("messages differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, users, _ := newService()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "Admin@Example.com", "admin-pass"); err != nil {
			t.Fatal(err)
		}
	}
	if len(users.users) != 1 {
		t.Fatalf("users = %d", len(users.users))
	}
	s, err := svc.Login(ctx, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatal(err)
	}
	if s.User.Role != auth.RoleAdmin {
		t.Fatalf("role = %q", s.User.Role)
	}
}

func TestMe(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	u, err := svc.Me(ctx, reg.User.ID)
	if err != nil || u.Email != "a@example.com" {
		t.Fatalf("me = %+v, %v", u, err)
	}
	if _, err := svc.Me(ctx, 999); err == nil {
		t.Fatal("expected not found")
	}
}
