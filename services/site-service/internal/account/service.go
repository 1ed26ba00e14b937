// Package account registers business owners and issues session tokens.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bizsites/libs/auth"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var validate = validator.New()

type Store interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	EnsureAdmin(ctx context.Context, email, passwordHash string) error
}

type Tokens interface {
	Issue(userID int64, role string) (string, time.Time, error)
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

type Service struct {
	store  Store
	tokens Tokens
	logger *slog.Logger
	cost   int
}

func New(store Store, tokens Tokens, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates an owner account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return Session{}, apperr.Validation("email", "must be a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		return Session{}, apperr.Validation("password", "must be at least 8 characters")
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return Session{}, apperr.Storage("hash password", err)
	}
	u := model.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         auth.RoleOwner,
	}
	if err := s.store.Create(ctx, &u); err != nil {
		if db.IsUniqueViolation(err) {
			return Session{}, apperr.Conflict("user", "email already registered")
		}
		return Session{}, apperr.Storage("create user", err)
	}
	s.logger.Info("user registered", "user_id", u.ID)
	return s.session(u)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if db.IsNotFound(err) {
			return Session{}, apperr.Unauthorized("invalid email or password")
		}
		return Session{}, apperr.Storage("get user", err)
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, userID int64) (model.User, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return model.User{}, apperr.NotFound("user")
		}
		return model.User{}, apperr.Storage("get user", err)
	}
	return u, nil
}

// EnsureAdmin provisions the bootstrap administrator. An existing account
// with that email is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return errors.New("admin email and password are required")
	}
	hash, err := hashPassword(password, s.cost)
	if err != nil {
		return err
	}
	return s.store.EnsureAdmin(ctx, email, hash)
}

func (s *Service) session(u model.User) (Session, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return Session{}, apperr.Storage("issue token", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
