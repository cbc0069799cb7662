package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	staffrepo "pahana-billing/internal/repository/staff"
	tokenrepo "pahana-billing/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when username/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Service handles staff accounts and login.
type Service struct {
	repo        staffrepo.Repository
	tokens      *tokenManager
	sweeper     tokenrepo.Repository
	accessTTL   time.Duration
	passwordMin int
	logger      *zap.Logger
}

func New(repo staffrepo.Repository, tokens tokenrepo.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		sweeper:     tokens,
		accessTTL:   12 * time.Hour,
		passwordMin: 8,
		logger:      logging.OrNop(logger).Named("staff_service"),
	}
}

// CreateInput captures fields for a new staff account.
type CreateInput struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Staff       domain.Staff `json:"staff"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Staff, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if username == "" {
		return nil, domain.Invalid("username", "username required")
	}
	role := strings.TrimSpace(strings.ToLower(in.Role))
	if role == "" {
		role = RoleCashier
	}
	if role != RoleAdmin && role != RoleCashier {
		return nil, domain.Invalid("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.Staff{
		Username:     username,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		PasswordHash: string(hashed),
	})
}

func (s *Service) List(ctx context.Context) ([]domain.Staff, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	st, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		s.logger.Info("login failed", zap.String("username", st.Username))
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(ctx, st.ID, s.accessTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login", zap.Int64("staff_id", st.ID))
	return &Session{Staff: *st, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LookupByToken returns the staff account bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Staff, error) {
	staffID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	st, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return st, nil
}

// SweepExpired deletes expired tokens until ctx is done.
func (s *Service) SweepExpired(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sweeper.DeleteExpired(ctx, time.Now())
			if err != nil {
				s.logger.Warn("sweep tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Debug("swept tokens", zap.Int64("count", n))
			}
		}
	}
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return domain.Invalid("password", fmt.Sprintf("password must be at least %d characters", min))
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalid("password", "password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
