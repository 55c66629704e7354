package moderation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func encodeArgon2id(password string) string {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		panic(err)
	}

	var (
		memory      uint32 = 65536
		iterations  uint32 = 3
		parallelism uint8  = 2
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	encoded := encodeArgon2id("правильный-пароль")

	assert.True(t, verifyArgon2id("правильный-пароль", encoded))
	assert.False(t, verifyArgon2id("неправильный", encoded))
	assert.False(t, verifyArgon2id("", encoded))
}

func TestVerifyArgon2idMalformedHash(t *testing.T) {
	assert.False(t, verifyArgon2id("пароль", "не-хеш"))
	assert.False(t, verifyArgon2id("пароль", "$argon2id$v=19$мусор$x$y"))
	assert.False(t, verifyArgon2id("пароль", ""))
}

func TestGenerateSecureToken(t *testing.T) {
	a := generateSecureToken()
	b := generateSecureToken()

	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b, "токены должны быть уникальными")

	// 32 байта в base64 URL-encoding
	decoded, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestDialogStates(t *testing.T) {
	svc := &Service{states: make(map[int64]*DialogState)}

	assert.Nil(t, svc.GetState(1))

	svc.SetState(1, StateAwaitingPassword, nil)
	state := svc.GetState(1)
	require.NotNil(t, state)
	assert.Equal(t, StateAwaitingPassword, state.State)

	svc.ClearState(1)
	assert.Nil(t, svc.GetState(1))
}
