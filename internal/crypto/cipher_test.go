package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"id":"abc","lifetimeCount":108}`)

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	// nonce || ciphertext || tag всегда длиннее открытого текста
	assert.Greater(t, len(encrypted), len(plaintext))

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

// Каждый вызов использует свежий nonce: шифртексты не повторяются
func TestEncryptUniqueNonce(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same input")

	first, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	second, err := Encrypt(plaintext, key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptErrors(t *testing.T) {
	key := testKey(t)

	encrypted, err := Encrypt([]byte("value"), key)
	require.NoError(t, err)

	// Чужой ключ
	_, err = Decrypt(encrypted, testKey(t))
	assert.Error(t, err)

	// Подмененный байт ломает auth tag
	tampered := append([]byte{}, encrypted...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Decrypt(tampered, key)
	assert.Error(t, err)

	// Слишком короткий вход
	_, err = Decrypt([]byte("short"), key)
	assert.Error(t, err)
}

func TestEncryptErrors(t *testing.T) {
	// Пустой открытый текст
	_, err := Encrypt(nil, testKey(t))
	assert.Error(t, err)

	// Ключ неверного размера
	_, err = Encrypt([]byte("value"), []byte("short-key"))
	assert.Error(t, err)
}

func TestEncryptToBase64RoundTrip(t *testing.T) {
	key := testKey(t)

	encoded, err := EncryptToBase64([]byte("payload"), key)
	require.NoError(t, err)

	decoded, err := DecryptFromBase64(encoded, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), decoded)

	// Невалидный base64 — ошибка, не паника
	_, err = DecryptFromBase64("!!!", key)
	assert.Error(t, err)
}
