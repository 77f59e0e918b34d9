package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRank(t *testing.T) {
	assert.Equal(t, 0, RoleUser.Rank())
	assert.Equal(t, 1, RoleManager.Rank())
	assert.Equal(t, 2, RoleAdmin.Rank())
	assert.Equal(t, -1, Role("superuser").Rank(), "unknown roles rank below user")
	assert.Equal(t, -1, Role("").Rank())
}

func TestRoleHasAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.HasAtLeast(RoleManager))
	assert.True(t, RoleManager.HasAtLeast(RoleManager))
	assert.False(t, RoleUser.HasAtLeast(RoleManager))
	assert.False(t, Role("garbage").HasAtLeast(RoleUser))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleManager.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUserPrincipal(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.com", Role: RoleManager, PasswordHash: "secret"}
	p := u.Principal()
	assert.Equal(t, Principal{ID: "u1", Email: "a@b.com", Role: RoleManager}, p)

	var nilUser *User
	assert.Equal(t, Principal{}, nilUser.Principal())
}
