package auth

import (
	"context"
	"strings"

	"github.com/baechuer/credential-auth/internal/domain"
)

// Register creates an account, gives it the User role and signs a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)

	if err := validateInput(in); err != nil {
		s.audit("register.rejected", map[string]string{"email": in.Email, "code": domainCode(err)})
		return Result{}, err
	}

	u, err := s.create(ctx, in)
	if err != nil {
		s.audit("register.failed", map[string]string{"email": in.Email, "code": domainCode(err)})
		return Result{}, err
	}

	if err := s.assignRole(ctx, u, string(domain.RoleUser)); err != nil {
		s.audit("register.failed", map[string]string{"user_id": u.ID, "code": domainCode(err)})
		return Result{}, err
	}

	tok, err := s.issue(u)
	if err != nil {
		return Result{}, err
	}

	s.audit("register.success", map[string]string{"user_id": u.ID, "email": in.Email})
	s.publishRegistered(ctx, u)

	return Result{Email: in.Email, UserName: in.UserName, Token: tok}, nil
}

func (s *Service) create(ctx context.Context, in RegisterInput) (domain.User, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	u, err := s.store.Create(sctx, in.UserName, in.Email, in.Password)
	if err != nil {
		if domain.Is(err, domain.CodeCreateConflict) {
			return domain.User{}, err
		}
		return domain.User{}, domain.ErrCreateFailed(err)
	}
	return u, nil
}

func (s *Service) assignRole(ctx context.Context, u domain.User, role string) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.AssignRole(sctx, u, role); err != nil {
		return domain.ErrRoleAssignFailed(role, err)
	}
	return nil
}
