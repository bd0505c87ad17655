package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/credential-auth/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintUserName = "users_normalized_user_name_key"
	constraintEmail    = "users_normalized_email_key"
)

// PasswordHasher is implemented by security.BcryptHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// CredentialStore persists users in the users / user_roles tables.
// Uniqueness of usernames and emails is left to the unique constraints.
type CredentialStore struct {
	db     *sql.DB
	hasher PasswordHasher
}

func NewCredentialStore(db *sql.DB, hasher PasswordHasher) *CredentialStore {
	return &CredentialStore{db: db, hasher: hasher}
}

// ---------- auth.CredentialStore ----------

func (s *CredentialStore) Create(ctx context.Context, userName, email, password string) (domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	const q = `
INSERT INTO users (id, user_name, normalized_user_name, email, normalized_email, password_hash)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING ` + userColumns + `;
`
	ur, err := scanUserRow(s.db.QueryRowContext(ctx, q,
		uuid.NewString(),
		userName,
		domain.NormalizeUserName(userName),
		email,
		domain.NormalizeEmail(email),
		hash,
	))
	if err != nil {
		if detail, ok := duplicateDetail(err); ok {
			return domain.User{}, domain.ErrCreateConflict(detail)
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return ur.toDomain(), nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE normalized_email = $1
LIMIT 1;
`
	return s.findOne(ctx, q, domain.NormalizeEmail(email))
}

func (s *CredentialStore) FindByUsername(ctx context.Context, userName string) (domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE normalized_user_name = $1
LIMIT 1;
`
	return s.findOne(ctx, q, domain.NormalizeUserName(userName))
}

func (s *CredentialStore) findOne(ctx context.Context, q, key string) (domain.User, error) {
	if key == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	ur, err := scanUserRow(s.db.QueryRowContext(ctx, q, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return ur.toDomain(), nil
}

func (s *CredentialStore) VerifyPassword(ctx context.Context, u domain.User, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.hasher.Verify(u.PasswordHash, password)
}

func (s *CredentialStore) AssignRole(ctx context.Context, u domain.User, role string) error {
	if !domain.IsValidRole(role) {
		return domain.ErrInvalidInput("unknown role: " + role)
	}

	const q = `
INSERT INTO user_roles (user_id, role_name)
VALUES ($1,$2)
ON CONFLICT (user_id, role_name) DO NOTHING;
`
	if _, err := s.db.ExecContext(ctx, q, u.ID, role); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.ErrUserNotFound()
		}
		return domain.ErrStoreUnavailable(err)
	}
	return nil
}

// Ping reports whether the database answers. Used by the readiness probe.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// duplicateDetail recognises a unique violation and says which field clashed.
func duplicateDetail(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		switch pgErr.ConstraintName {
		case constraintUserName:
			return "username is already taken", true
		case constraintEmail:
			return "email is already taken", true
		default:
			return "user already exists", true
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
		return "user already exists", true
	}
	return "", false
}
