package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/credential-auth/internal/domain"
)

// PasswordHasher is implemented by security.BcryptHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// CredentialStore keeps users in process memory. Uniqueness is enforced on
// the normalized username and email under a single lock.
type CredentialStore struct {
	hasher PasswordHasher
	now    func() time.Time

	mu         sync.RWMutex
	byID       map[string]domain.User
	byEmail    map[string]string // normalized email -> userID
	byUserName map[string]string // normalized username -> userID
}

func NewCredentialStore(hasher PasswordHasher) *CredentialStore {
	return &CredentialStore{
		hasher:     hasher,
		now:        time.Now,
		byID:       make(map[string]domain.User),
		byEmail:    make(map[string]string),
		byUserName: make(map[string]string),
	}
}

func (s *CredentialStore) Create(ctx context.Context, userName, email, password string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	// Hash outside the lock; bcrypt is slow on purpose.
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:                 uuid.NewString(),
		UserName:           userName,
		NormalizedUserName: domain.NormalizeUserName(userName),
		Email:              email,
		NormalizedEmail:    domain.NormalizeEmail(email),
		PasswordHash:       hash,
		CreatedAt:          s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUserName[u.NormalizedUserName]; exists {
		return domain.User{}, domain.ErrCreateConflict("username is already taken")
	}
	if _, exists := s.byEmail[u.NormalizedEmail]; exists {
		return domain.User{}, domain.ErrCreateConflict("email is already taken")
	}

	s.byID[u.ID] = u
	s.byEmail[u.NormalizedEmail] = u.ID
	s.byUserName[u.NormalizedUserName] = u.ID
	return cloneUser(u), nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.find(ctx, s.byEmail, domain.NormalizeEmail(email))
}

func (s *CredentialStore) FindByUsername(ctx context.Context, userName string) (domain.User, error) {
	return s.find(ctx, s.byUserName, domain.NormalizeUserName(userName))
}

func (s *CredentialStore) find(ctx context.Context, index map[string]string, key string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := index[key]
	if !ok || key == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return cloneUser(s.byID[id]), nil
}

func (s *CredentialStore) VerifyPassword(ctx context.Context, u domain.User, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.hasher.Verify(u.PasswordHash, password)
}

func (s *CredentialStore) AssignRole(ctx context.Context, u domain.User, role string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !domain.IsValidRole(role) {
		return domain.ErrInvalidInput("unknown role: " + role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	if stored.HasRole(role) {
		return nil
	}
	stored.Roles = append(stored.Roles, role)
	s.byID[u.ID] = stored
	return nil
}

// Ping always succeeds; it lets the memory store stand in for readiness checks.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneUser(u domain.User) domain.User {
	if u.Roles != nil {
		u.Roles = append([]string(nil), u.Roles...)
	}
	return u
}
