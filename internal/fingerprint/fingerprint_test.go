package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	token := Generate()

	// Длина в допустимых пределах
	assert.GreaterOrEqual(t, len(token), MinLen)
	assert.LessOrEqual(t, len(token), MaxLen)

	// Только base36-символы
	for _, c := range token {
		assert.True(t, (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'),
			"unexpected character %q in token %q", c, token)
	}
}

// Токен стабилен в пределах одного хоста и процесса
func TestGenerateStable(t *testing.T) {
	assert.Equal(t, Generate(), Generate())
}

func TestFallback(t *testing.T) {
	token := fallback()
	assert.GreaterOrEqual(t, len(token), MinLen)
}
