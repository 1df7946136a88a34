package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yokyay/classhub/internal/domain"
)

func TestCredentialChecker(t *testing.T) {
	c := NewCredentialChecker("Yokyay", "s3cret ")

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact", "yokyay", "s3cret", true},
		{"case and spaces normalized", "  YokYay ", " s3cret ", true},
		{"wrong password", "yokyay", "nope", false},
		{"wrong user", "intruder", "s3cret", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := c.Check(tt.username, tt.password)
			require.Equal(t, tt.want, ok)
			if ok {
				require.Equal(t, "yokyay", user.Name)
				require.Equal(t, domain.RoleTeacher, user.Role)
			}
		})
	}
}

func TestCredentialCheckerUnconfigured(t *testing.T) {
	c := NewCredentialChecker("", "")
	_, ok := c.Check("", "")
	require.False(t, ok, "empty config must not allow empty login")
}
