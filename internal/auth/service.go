package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Notifier is told about new accounts, e.g. to queue a welcome email.
type Notifier interface {
	UserRegistered(ctx context.Context, user User) error
}

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	tokens    TokenIssuer
	notifier  Notifier
	logger    *slog.Logger
	hashCost  int
	now       func() time.Time
	dummyHash []byte
}

// ServiceConfig groups optional collaborators of Service.
type ServiceConfig struct {
	Notifier Notifier
	Logger   *slog.Logger
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens TokenIssuer, cfg ServiceConfig) *Service {
	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("inkwell-timing-equaliser"), cost)
	return &Service{
		repo:      repo,
		tokens:    tokens,
		notifier:  cfg.Notifier,
		logger:    logger,
		hashCost:  cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates an account and returns it with a fresh identity token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, shared.Validationf("name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, shared.Validationf("email is required")
	}
	if input.Password == "" {
		return nil, shared.Validationf("password is required")
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, shared.Validationf("password is too long")
		}
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        input.Email,
		PasswordHash: string(hashed),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.UserRegistered(ctx, user); err != nil {
			s.logger.Warn("notify registration", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	return s.session(user)
}

// Authenticate validates email/password credentials and issues a token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		// keep the response time of unknown emails close to a real comparison
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.session(*user)
}

// Identity resolves the account behind a verified token subject.
func (s *Service) Identity(ctx context.Context, userID string) (*shared.Identity, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	return &shared.Identity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Profile returns the stored account for userID.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// PurgeUsers deletes every account. It exists for maintenance tooling only.
func (s *Service) PurgeUsers(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *Service) session(user User) (*Session, error) {
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return &Session{User: user, Token: tok}, nil
}
