package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iudanet/japakeeper/internal/codec"
	"github.com/iudanet/japakeeper/internal/models"
)

// EmbeddedIDPrefix помечает самодостаточный переносимый идентификатор:
// вся запись аккаунта целиком упакована в одну строку, чтобы «войти» на
// новом устройстве можно было простым копированием
const EmbeddedIDPrefix = "SE_"

// EncodeEmbeddedID packs the whole account payload into a single portable
// SE_ string: JSON, dictionary compression, then unpadded base64url.
func EncodeEmbeddedID(acc *models.UserAccount) (string, error) {
	if acc == nil || acc.ID == "" {
		return "", ErrInvalidBundle
	}

	raw, err := json.Marshal(acc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal account: %w", err)
	}

	compressed := codec.Compress(string(raw))
	return EmbeddedIDPrefix + base64.RawURLEncoding.EncodeToString([]byte(compressed)), nil
}

// DecodeEmbeddedID reverses EncodeEmbeddedID. Decoding tolerates padded and
// unpadded input; any malformation yields ErrInvalidEmbeddedID rather than a
// partially decoded account.
func DecodeEmbeddedID(id string) (*models.UserAccount, error) {
	if !strings.HasPrefix(id, EmbeddedIDPrefix) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrInvalidEmbeddedID, EmbeddedIDPrefix)
	}

	// Паддинг мог потеряться при ручном копировании — срезаем его сами
	payload := strings.TrimRight(strings.TrimPrefix(id, EmbeddedIDPrefix), "=")

	compressed, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmbeddedID, err)
	}

	raw := codec.Decompress(string(compressed))

	var acc models.UserAccount
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmbeddedID, err)
	}
	if acc.ID == "" || acc.Name == "" || acc.HashedPassword == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidEmbeddedID)
	}

	return &acc, nil
}
