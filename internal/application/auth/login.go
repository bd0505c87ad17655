package auth

import (
	"context"
	"strings"

	"github.com/baechuer/credential-auth/internal/domain"
)

// Login checks credentials and signs a token.
// The identifier is tried as an email first, then as a username.
// Unknown accounts and wrong passwords produce different messages.
func (s *Service) Login(ctx context.Context, in LoginInput) (Result, error) {
	in.UserName = strings.TrimSpace(in.UserName)

	if err := validateInput(in); err != nil {
		return Result{}, err
	}

	u, err := s.lookup(ctx, in.UserName)
	if err != nil {
		s.audit("login.failed", map[string]string{"email": in.UserName, "code": domainCode(err)})
		return Result{}, err
	}

	ok, err := s.verifyPassword(ctx, u, in.Password)
	if err != nil {
		s.audit("login.failed", map[string]string{"user_id": u.ID, "code": domainCode(err)})
		return Result{}, err
	}
	if !ok {
		err := domain.ErrWrongPassword()
		s.audit("login.failed", map[string]string{"user_id": u.ID, "code": err.Code})
		return Result{}, err
	}

	tok, err := s.issue(u)
	if err != nil {
		return Result{}, err
	}

	s.audit("login.success", map[string]string{"user_id": u.ID, "email": u.Email})
	return Result{Email: u.Email, UserName: u.UserName, Token: tok}, nil
}

func (s *Service) lookup(ctx context.Context, identifier string) (domain.User, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	u, err := s.store.FindByEmail(sctx, identifier)
	if err == nil {
		return u, nil
	}
	if !domain.Is(err, domain.CodeUserNotFound) {
		return domain.User{}, storeErr(err)
	}

	u, err = s.store.FindByUsername(sctx, identifier)
	if err == nil {
		return u, nil
	}
	if domain.Is(err, domain.CodeUserNotFound) {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return domain.User{}, storeErr(err)
}

func (s *Service) verifyPassword(ctx context.Context, u domain.User, password string) (bool, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	ok, err := s.store.VerifyPassword(sctx, u, password)
	if err != nil {
		return false, storeErr(err)
	}
	return ok, nil
}
