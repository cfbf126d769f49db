// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncora/syncora/internal/access"
)

func TestPermission_BitsAreDistinct(t *testing.T) {
	keys := access.AllPermissionKeys()
	require.Len(t, keys, 19)

	seen := make(map[access.Permission]bool)
	for _, p := range keys {
		assert.False(t, seen[p], "duplicate permission bit %s", p)
		seen[p] = true
	}
}

func TestPermission_NameRoundTrip(t *testing.T) {
	for _, p := range access.AllPermissionKeys() {
		name := p.String()
		require.NotEqual(t, "UNKNOWN", name)

		parsed, err := access.ParsePermission(name)
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}

func TestParsePermission_UnknownName(t *testing.T) {
	_, err := access.ParsePermission("FLY_TO_MOON")
	assert.Error(t, err)
}

func TestPermissionSet_Operations(t *testing.T) {
	s := access.NewPermissionSet(access.PermSendMessages, access.PermAddReactions)

	assert.True(t, s.Has(access.PermSendMessages))
	assert.True(t, s.Has(access.PermAddReactions))
	assert.False(t, s.Has(access.PermManageRoles))

	s = s.With(access.PermManageRoles)
	assert.True(t, s.Has(access.PermManageRoles))

	s = s.Without(access.PermSendMessages)
	assert.False(t, s.Has(access.PermSendMessages))
	assert.True(t, s.Has(access.PermAddReactions))
}

func TestPermissionSet_AllAndNone(t *testing.T) {
	for _, p := range access.AllPermissionKeys() {
		assert.True(t, access.AllPermissions.Has(p), "AllPermissions missing %s", p)
		assert.False(t, access.NoPermissions.Has(p), "NoPermissions grants %s", p)
	}
}

func TestPermissionSet_Union(t *testing.T) {
	a := access.NewPermissionSet(access.PermViewChannels)
	b := access.NewPermissionSet(access.PermSendMessages)

	u := a.Union(b)
	assert.True(t, u.Has(access.PermViewChannels))
	assert.True(t, u.Has(access.PermSendMessages))

	// Union with self changes nothing.
	assert.Equal(t, u, u.Union(u))
}

func TestParsePermissionSet(t *testing.T) {
	s, err := access.ParsePermissionSet([]string{"VIEW_CHANNELS", "USE_AI_FEATURES"})
	require.NoError(t, err)
	assert.True(t, s.Has(access.PermViewChannels))
	assert.True(t, s.Has(access.PermUseAIFeatures))
	assert.False(t, s.Has(access.PermSendMessages))

	_, err = access.ParsePermissionSet([]string{"VIEW_CHANNELS", "NOT_A_PERMISSION"})
	assert.Error(t, err)
}

func TestPermissionSet_NamesStable(t *testing.T) {
	s := access.NewPermissionSet(access.PermSpeak, access.PermViewChannels)
	// Names come back in declaration order regardless of construction order.
	assert.Equal(t, []string{"VIEW_CHANNELS", "SPEAK"}, s.Names())
}
