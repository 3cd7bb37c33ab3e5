package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in       string
		expected Role
		wantErr  bool
	}{
		{"administrator", RoleAdministrator, false},
		{"Administrator", RoleAdministrator, false},
		{"ADMINISTRATOR", RoleAdministrator, false},
		{" reviewer ", RoleReviewer, false},
		{"admin", "", true},
		{"superuser", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		role, err := ParseRole(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
		} else {
			assert.NoError(t, err, "input %q", tt.in)
			assert.Equal(t, tt.expected, role)
		}
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdministrator.Valid())
	assert.True(t, RoleReviewer.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}
