package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/baechuer/credential-auth/internal/domain"
)

func TestDomainCode(t *testing.T) {
	t.Parallel()

	if got := domainCode(nil); got != "" {
		t.Fatalf("expected empty for nil, got %q", got)
	}

	if got := domainCode(domain.ErrWrongPassword()); got != domain.CodeWrongPassword {
		t.Fatalf("expected %q, got %q", domain.CodeWrongPassword, got)
	}

	wrapped := fmt.Errorf("outer: %w", domain.ErrUserNotFound())
	if got := domainCode(wrapped); got != domain.CodeUserNotFound {
		t.Fatalf("expected wrapped code, got %q", got)
	}

	if got := domainCode(errors.New("x")); got != "non_domain_error" {
		t.Fatalf("expected non_domain_error, got %q", got)
	}
}
