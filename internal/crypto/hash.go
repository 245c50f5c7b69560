package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для хеширования паролей аккаунтов
const (
	// Argon2Time — количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory — объем памяти в KB (64MB)
	Argon2Memory = 64 * 1024
	// Argon2Threads — количество параллельных потоков
	Argon2Threads = 4
	// Argon2KeyLen — длина выходного хеша в байтах
	Argon2KeyLen = 32
)

// HashPassword хеширует пароль с данной солью через Argon2id.
// Возвращает Base64-кодированный хеш. Пароль никогда не сохраняется
// в форме, из которой он восстановим без соли.
func HashPassword(password string, salt []byte) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if len(salt) != SaltSize {
		return "", fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	hash := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)
	return base64.StdEncoding.EncodeToString(hash), nil
}

// HashPasswordBase64Salt хеширует пароль с Base64-кодированной солью
func HashPasswordBase64Salt(password, saltBase64 string) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode salt: %w", err)
	}
	return HashPassword(password, salt)
}

// VerifyPassword пересчитывает salted-хеш кандидата и сравнивает с сохраненным.
// Сравнение выполняется за константное время. Возвращает false без ошибки,
// если пароль не подошел; ошибку — только при некорректных входных данных.
func VerifyPassword(password, saltBase64, hashedPassword string) (bool, error) {
	if hashedPassword == "" {
		return false, fmt.Errorf("hashed password cannot be empty")
	}

	computed, err := HashPasswordBase64Salt(password, saltBase64)
	if err != nil {
		return false, fmt.Errorf("failed to compute password hash: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashedPassword)) == 1, nil
}
