// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2idHasher_HashAndVerify(t *testing.T) {
	h := NewArgon2idHasher()

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	valid, err := h.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = h.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestArgon2idHasher_EmptyPassword(t *testing.T) {
	h := NewArgon2idHasher()
	_, err := h.Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2idHasher_UniqueSalts(t *testing.T) {
	h := NewArgon2idHasher()
	hash1, err := h.Hash("password123")
	require.NoError(t, err)
	hash2, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2, "each hash must use a fresh salt")
}

func TestArgon2idHasher_Verify_InvalidHash(t *testing.T) {
	h := NewArgon2idHasher()

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "garbage", hash: "not-a-hash"},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify("password", tt.hash)
			require.Error(t, err)
		})
	}
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	h := NewArgon2idHasher()
	assert.True(t, h.NeedsUpgrade("$2a$10$bcryptbcryptbcryptbcry"))
	assert.False(t, h.NeedsUpgrade("$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"))
}
