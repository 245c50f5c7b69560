package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObfuscateDeobfuscate(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple string", plaintext: "hello world"},
		{name: "empty string", plaintext: ""},
		{name: "json payload", plaintext: `{"id":"abc","count":108}`},
		{name: "multibyte text", plaintext: "Харе Кришна 🙏"},
		{name: "key-sized input", plaintext: strings.Repeat("x", len(xorKey))},
		{name: "longer than key", plaintext: strings.Repeat("мантра", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Obfuscate(tt.plaintext)

			// Закодированное значение не совпадает с исходным открытым текстом
			if tt.plaintext != "" {
				assert.NotEqual(t, tt.plaintext, encoded)
			}

			decoded := Deobfuscate(encoded)
			assert.Equal(t, tt.plaintext, decoded)
		})
	}
}

// Deobfuscate никогда не падает: мусор на входе возвращается как есть
func TestDeobfuscatePassthrough(t *testing.T) {
	garbage := "not-valid-base64!!!"
	assert.Equal(t, garbage, Deobfuscate(garbage))
}

func TestCompressDecompress(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty string", text: ""},
		{name: "below threshold", text: "short value"},
		{name: "repetitive long text", text: strings.Repeat("hare krishna hare rama ", 50)},
		{name: "json record", text: `{"id":"` + strings.Repeat("a1b2c3d4-", 20) + `","userData":{"lifetimeCount":108}}`},
		{name: "multibyte long text", text: strings.Repeat("повторение мантры ", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := Compress(tt.text)
			assert.Equal(t, tt.text, Decompress(compressed))
		})
	}
}

// Короткий вход проходит через Compress без изменений
func TestCompressBelowThreshold(t *testing.T) {
	short := "tiny"
	assert.Equal(t, short, Compress(short))
}

// Повторяющийся текст реально сжимается, а не просто помечается
func TestCompressShrinksRepetitiveInput(t *testing.T) {
	text := strings.Repeat("om mani padme hum ", 100)

	compressed := Compress(text)
	require.True(t, strings.HasPrefix(compressed, compressMarker))
	assert.Less(t, len(compressed), len(text))
}

// Несжимаемый вход возвращается как есть, без маркера
func TestCompressIncompressibleInput(t *testing.T) {
	// Псевдослучайная строка без повторов длиннее порога
	var b strings.Builder
	seed := uint64(42)
	for b.Len() < 200 {
		seed = seed*6364136223846793005 + 1442695040888963407
		b.WriteByte(byte('a' + seed%26))
		b.WriteByte(byte('0' + (seed>>8)%10))
	}
	text := b.String()

	compressed := Compress(text)
	assert.Equal(t, text, Decompress(compressed))
}

func TestDecompressPassthrough(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "unmarked input", text: "plain value without marker"},
		{name: "marked but invalid base64", text: compressMarker + "!!!not-base64!!!"},
		{name: "marked but corrupt token stream", text: compressMarker + "/////w=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Порченый вход возвращается без изменений, не падает
			assert.Equal(t, tt.text, Decompress(tt.text))
		})
	}
}

func TestEncodeDecodeRecord(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "small record", value: `{"slot_id":1}`},
		{name: "large record", value: `{"data":"` + strings.Repeat("japa ", 200) + `"}`},
		{name: "empty record", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeRecord(tt.value)
			assert.Equal(t, tt.value, DecodeRecord(encoded))
		})
	}
}

func TestSealOpenSealed(t *testing.T) {
	value := `{"key":"deviceIdentity","value":"device_123"}`

	sealed, err := Seal(value)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "deviceIdentity")

	opened, err := OpenSealed(sealed)
	require.NoError(t, err)
	assert.Equal(t, value, opened)
}

// Подмена запечатанного значения обнаруживается при вскрытии
func TestOpenSealedTamperedPayload(t *testing.T) {
	sealed, err := Seal("original value")
	require.NoError(t, err)

	// Ломаем payload: меняем первый символ
	tampered := "A" + sealed[1:]
	if tampered == sealed {
		tampered = "B" + sealed[1:]
	}

	_, err = OpenSealed(tampered)
	assert.Error(t, err)
}

func TestOpenSealedGarbage(t *testing.T) {
	_, err := OpenSealed("definitely not sealed")
	assert.Error(t, err)
}
