package codec

import (
	"encoding/base64"
	"log/slog"
)

// xorKey — фиксированный повторяющийся ключ обфускации.
// Это НЕ криптографическая защита, а обратимое кодирование, чтобы payload
// не лежал в слоях хранения открытым текстом.
const xorKey = "jk-mala-shield-v1"

// Obfuscate XORs every byte of plaintext against the fixed repeating key
// and Base64-encodes the result. Deobfuscate reverses it exactly.
func Obfuscate(plaintext string) string {
	data := []byte(plaintext)
	key := []byte(xorKey)

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}

	return base64.StdEncoding.EncodeToString(out)
}

// Deobfuscate reverses Obfuscate. It never fails: malformed input is logged
// and returned unchanged, so callers must treat a structurally invalid
// result as an absent value rather than an error.
func Deobfuscate(encoded string) string {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		slog.Debug("deobfuscate: malformed base64, passing input through", "error", err)
		return encoded
	}

	key := []byte(xorKey)
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}

	return string(out)
}
