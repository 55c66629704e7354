package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleEligible(t *testing.T) {
	t.Run("пустой список разрешает всем", func(t *testing.T) {
		sp := Space{}
		assert.True(t, sp.RoleEligible("участник"))
		assert.True(t, sp.RoleEligible(""))
	})

	t.Run("список ограничивает роли", func(t *testing.T) {
		sp := Space{EligibleRoles: []string{"участник", "ветеран"}}
		assert.True(t, sp.RoleEligible("ветеран"))
		assert.False(t, sp.RoleEligible("гость"))
		assert.False(t, sp.RoleEligible(""))
	})
}
