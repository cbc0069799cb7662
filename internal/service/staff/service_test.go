package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"pahana-billing/internal/domain"
	tokenrepo "pahana-billing/internal/repository/token"
)

type memoryRepo struct {
	byID   map[int64]domain.Staff
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]domain.Staff)}
}

func (r *memoryRepo) List(_ context.Context) ([]domain.Staff, error) { return nil, nil }

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.Staff, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*domain.Staff, error) {
	for _, s := range r.byID {
		if s.Username == username {
			clone := s
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, s domain.Staff) (*domain.Staff, error) {
	if _, err := r.GetByUsername(context.Background(), s.Username); err == nil {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	s.ID = r.nextID
	r.byID[s.ID] = s
	return &s, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func TestCreateAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Username: " Cashier1 ", Password: " Abcdefg1 "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Username != "cashier1" || created.Role != RoleCashier || created.PasswordHash == "" {
		t.Fatalf("unexpected staff %+v", created)
	}

	sess, err := svc.Login(ctx, "cashier1", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken == "" || sess.Staff.ID != created.ID {
		t.Fatalf("unexpected session %+v", sess)
	}

	who, err := svc.LookupByToken(ctx, sess.AccessToken)
	if err != nil || who.ID != created.ID {
		t.Fatalf("lookup by token: %+v err=%v", who, err)
	}

	if err := svc.Logout(ctx, sess.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token after logout, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Username: "admin", Role: "ADMIN", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "Abcdefg1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestLookupByToken_ExpiredTokenRemoved(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Username: "admin", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	sess, err := svc.Login(ctx, "admin", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
	if _, ok := tokens.tokens[sess.AccessToken]; ok {
		t.Fatalf("expired token should be deleted")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	cases := map[string]CreateInput{
		"username": {Password: "Abcdefg1"},
		"role":     {Username: "x", Role: "owner", Password: "Abcdefg1"},
		"password": {Username: "y", Password: "abcdefgh"},
	}
	for field, in := range cases {
		_, err := svc.Create(context.Background(), in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != field {
			t.Fatalf("expected validation error on %s, got %v", field, err)
		}
	}
}
