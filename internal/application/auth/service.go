package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baechuer/credential-auth/internal/domain"
)

const (
	// DefaultStoreTimeout bounds every credential store call.
	DefaultStoreTimeout = 5 * time.Second
	// DefaultPublishTimeout bounds how long register waits on the event publisher.
	DefaultPublishTimeout = 2 * time.Second
)

type Service struct {
	store  CredentialStore
	issuer TokenIssuer
	pub    EventPublisher

	storeTimeout   time.Duration
	publishTimeout time.Duration
	audit          func(action string, fields map[string]string)
	now            func() time.Time
}

type Config struct {
	StoreTimeout   time.Duration
	PublishTimeout time.Duration
}

func NewService(store CredentialStore, issuer TokenIssuer, cfg Config) *Service {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	publishTimeout := cfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &Service{
		store:          store,
		issuer:         issuer,
		storeTimeout:   timeout,
		publishTimeout: publishTimeout,
		audit:          func(string, map[string]string) {},
		now:            time.Now,
	}
}

// Result is what register and login hand back to the transport layer.
type Result struct {
	Email    string
	UserName string
	Token    string
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithEvents(pub EventPublisher) *Service {
	s.pub = pub
	return s
}

// storeCtx derives the per-call deadline for store I/O.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// issue signs a token for u. A non-domain failure is reported as token_sign_failed.
func (s *Service) issue(u domain.User) (string, error) {
	tok, err := s.issuer.Issue(&u)
	if err != nil {
		if domain.Is(err, domain.CodeTokenSignFailed) {
			return "", err
		}
		return "", domain.ErrTokenSignFailed(err)
	}
	return tok, nil
}

// storeErr keeps domain errors from the store and hides everything else
// behind store_unavailable.
func storeErr(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.ErrStoreUnavailable(err)
}

func (s *Service) publishRegistered(ctx context.Context, u domain.User) {
	if s.pub == nil {
		return
	}
	evt := UserRegisteredEvent{
		UserID:     u.ID,
		UserName:   u.UserName,
		Email:      u.Email,
		Role:       string(domain.RoleUser),
		OccurredAt: s.now().UTC(),
	}

	// The publisher may block on a reconnect; register only waits publishTimeout.
	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.pub.PublishUserRegistered(pctx, evt) }()

	var err error
	select {
	case err = <-done:
	case <-pctx.Done():
		err = fmt.Errorf("publish user registered: %w", pctx.Err())
	}
	if err != nil {
		s.audit("register.event_failed", map[string]string{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}
}
