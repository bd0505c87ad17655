package auth

import (
	"context"
	"time"

	"github.com/baechuer/credential-auth/internal/domain"
)

/*
CredentialStore
---------------
Holds user records and checks passwords. Hashing is the store's job,
the orchestrator never sees a hash.

Lookups return domain.ErrUserNotFound when nothing matches. Create
returns domain.ErrCreateConflict when the username or email is taken.
*/
type CredentialStore interface {
	Create(ctx context.Context, userName, email, password string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	// FindByUsername matches case-insensitively.
	FindByUsername(ctx context.Context, userName string) (domain.User, error)
	VerifyPassword(ctx context.Context, u domain.User, password string) (bool, error)
	AssignRole(ctx context.Context, u domain.User, role string) error
}

/*
TokenIssuer
-----------
Signs a bearer token for a user. Implemented by token.Codec.
*/
type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

/*
EventPublisher
--------------
Announces account lifecycle events to other services. Publishing is
best effort: a failure is logged and never fails the request.
*/
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error
}

type UserRegisteredEvent struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
