// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxNameLen = 64

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
)

type Role string

const (
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// Identity is the self-reported {name, role} pair of a connecting client.
// There is no account behind it; the normalized name is the only key.
type Identity struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(name string, role Role) (Identity, error) {
	if strings.TrimSpace(name) == "" {
		return Identity{}, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return Identity{}, ErrNameTooLong
	}
	return Identity{Name: name, Role: role}, nil
}

// NormalizedKey returns the lower-cased, trimmed name used as the
// approval-matching key, or "" when the name is unusable.
func (id Identity) NormalizedKey() string {
	key := strings.ToLower(strings.TrimSpace(id.Name))
	return key
}
