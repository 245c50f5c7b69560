// Package codec implements the reversible payload encodings applied before
// any storage-layer write: dictionary compression, XOR/Base64 obfuscation and
// an authenticated AES-GCM path for less-trusted layers.
//
// Every decode direction is fallback-safe: malformed input is passed through
// (or reported as an error for the sealed path) and callers treat a result
// that is not structurally valid as an absent value, never as a crash.
package codec

import (
	"crypto/sha256"
	"fmt"

	"github.com/iudanet/japakeeper/internal/crypto"
)

// layerKeyMaterial — фиксированный материал ключа для sealed-пути.
// Ключ общий для всех инсталляций: цель — целостность и непрозрачность
// payload в менее доверенных слоях, а не секретность.
const layerKeyMaterial = "japakeeper-layer-key-v1"

var layerKey = func() []byte {
	sum := sha256.Sum256([]byte(layerKeyMaterial))
	return sum[:]
}()

// EncodeRecord prepares a serialized record for replication: compress above
// the size threshold, then obfuscate. Applied exactly once per write by the
// replication orchestrator.
func EncodeRecord(plaintext string) string {
	return Obfuscate(Compress(plaintext))
}

// DecodeRecord reverses EncodeRecord. Like its parts it never fails hard;
// undecodable input comes back unchanged and is rejected by the caller's
// structural validation.
func DecodeRecord(encoded string) string {
	return Decompress(Deobfuscate(encoded))
}

// Seal encrypts a value with AES-256-GCM under the fixed layer key.
// Используется слоями, чьим носителям доверяем меньше всего
// (файловые чанки, внешний кеш-сервис).
func Seal(plaintext string) (string, error) {
	sealed, err := crypto.EncryptToBase64([]byte(plaintext), layerKey)
	if err != nil {
		return "", fmt.Errorf("failed to seal payload: %w", err)
	}
	return sealed, nil
}

// OpenSealed decrypts a Seal-ed value. An error means the payload is corrupt
// or foreign; callers treat it the same as "not found".
func OpenSealed(sealed string) (string, error) {
	plaintext, err := crypto.DecryptFromBase64(sealed, layerKey)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed payload: %w", err)
	}
	return string(plaintext), nil
}
