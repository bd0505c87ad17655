package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/credential-auth/internal/domain"
)

const userColumns = `id, user_name, normalized_user_name, email, normalized_email, password_hash, created_at`

type userRow struct {
	ID                 string
	UserName           string
	NormalizedUserName string
	Email              string
	NormalizedEmail    string
	PasswordHash       string
	CreatedAt          time.Time
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.UserName,
		&ur.NormalizedUserName,
		&ur.Email,
		&ur.NormalizedEmail,
		&ur.PasswordHash,
		&ur.CreatedAt,
	)
	return ur, err
}

func (ur userRow) toDomain() domain.User {
	return domain.User{
		ID:                 ur.ID,
		UserName:           ur.UserName,
		NormalizedUserName: ur.NormalizedUserName,
		Email:              ur.Email,
		NormalizedEmail:    ur.NormalizedEmail,
		PasswordHash:       ur.PasswordHash,
		CreatedAt:          ur.CreatedAt,
	}
}

var _ rowScanner = (*sql.Row)(nil)
