package domain

type Role string

// RoleUser is the only role handed out; every registered account gets it.
const RoleUser Role = "User"

func IsValidRole(r string) bool {
	return r == string(RoleUser)
}
