package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/credential-auth/internal/domain"
)

// Seeder is the slice of auth.CredentialStore needed to create dev accounts.
// Both the postgres and memory stores satisfy it.
type Seeder interface {
	Create(ctx context.Context, userName, email, password string) (domain.User, error)
	AssignRole(ctx context.Context, u domain.User, role string) error
}

type SeedUser struct {
	UserName string
	Email    string
	Password string
}

// DevSeedUsers are created on startup in dev.
var DevSeedUsers = []SeedUser{
	{UserName: "demo", Email: "demo@example.com", Password: "DemoPassword1!"},
	{UserName: "tester", Email: "tester@example.com", Password: "TesterPassword1!"},
}

// SeedUsers creates each user and gives it the User role.
// Safe to call multiple times (duplicates ignored).
func SeedUsers(ctx context.Context, store Seeder, users []SeedUser, log zerolog.Logger) int {
	created := 0
	for _, s := range users {
		u, err := store.Create(ctx, s.UserName, s.Email, s.Password)
		if err != nil {
			if !domain.Is(err, domain.CodeCreateConflict) {
				log.Warn().Err(err).Str("user_name", s.UserName).Msg("seed: create failed")
			}
			continue
		}
		if err := store.AssignRole(ctx, u, string(domain.RoleUser)); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID).Msg("seed: role assignment failed")
			continue
		}
		created++
	}

	log.Info().Int("created", created).Msg("seed: users seeded")
	return created
}
