package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	hash, err := HashPassword("secret1", salt)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "secret1", hash)

	// Тот же пароль с той же солью дает тот же хеш
	hash2, err := HashPassword("secret1", salt)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)

	// Другая соль — другой хеш
	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	hash3, err := HashPassword("secret1", otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash3)
}

func TestHashPasswordErrors(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	// Пустой пароль
	_, err = HashPassword("", salt)
	assert.Error(t, err)

	// Соль неверного размера
	_, err = HashPassword("secret1", []byte("short"))
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)

	hashed, err := HashPasswordBase64Salt("secret1", saltBase64)
	require.NoError(t, err)

	// Верный пароль
	ok, err := VerifyPassword("secret1", saltBase64, hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	// Неверный пароль: false без ошибки
	ok, err = VerifyPassword("wrong-password", saltBase64, hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordErrors(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)

	// Пустой сохраненный хеш — ошибка входных данных
	_, err = VerifyPassword("secret1", saltBase64, "")
	assert.Error(t, err)

	// Порченая соль
	hashed, err := HashPasswordBase64Salt("secret1", saltBase64)
	require.NoError(t, err)
	_, err = VerifyPassword("secret1", "not-base64!!!", hashed)
	assert.Error(t, err)
}

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt1, SaltSize)

	salt2, err := GenerateSalt()
	require.NoError(t, err)

	// Соли должны быть уникальны
	assert.NotEqual(t, salt1, salt2)
}
