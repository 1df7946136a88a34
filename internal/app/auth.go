package app

import (
	"crypto/subtle"
	"strings"

	"github.com/yokyay/classhub/internal/domain"
)

// CredentialChecker validates the single configured teacher account. There is
// no user database; students never log in at all.
type CredentialChecker struct {
	username string
	password string
}

func NewCredentialChecker(username, password string) *CredentialChecker {
	return &CredentialChecker{
		username: strings.ToLower(strings.TrimSpace(username)),
		password: strings.TrimSpace(password),
	}
}

// Check returns the teacher identity when the credentials match.
func (c *CredentialChecker) Check(username, password string) (domain.Identity, bool) {
	user := strings.ToLower(strings.TrimSpace(username))
	pass := strings.TrimSpace(password)
	if c.username == "" || user != c.username {
		return domain.Identity{}, false
	}
	if subtle.ConstantTimeCompare([]byte(pass), []byte(c.password)) != 1 {
		return domain.Identity{}, false
	}
	return domain.Identity{Name: c.username, Role: domain.RoleTeacher}, true
}
