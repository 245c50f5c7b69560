// Package export implements manual account transfer without a server:
// a JSON backup bundle and the self-contained SE_ embedded identifier.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/japakeeper/internal/accounts"
	"github.com/iudanet/japakeeper/internal/models"
)

// BundleVersion — текущая версия формата бандла
const BundleVersion = 1

// Export errors
var (
	// ErrInvalidBundle indicates a bundle missing required fields
	ErrInvalidBundle = errors.New("invalid account bundle")

	// ErrInvalidEmbeddedID indicates a malformed SE_ identifier
	ErrInvalidEmbeddedID = errors.New("invalid embedded id")
)

// Bundle serializes an account into the portable JSON form used for manual
// backup and QR transfer.
func Bundle(acc *models.UserAccount) ([]byte, error) {
	if acc == nil {
		return nil, ErrInvalidBundle
	}

	b := models.ExportBundle{
		ID:             acc.ID,
		Name:           acc.Name,
		DOB:            acc.DOB,
		HashedPassword: acc.HashedPassword,
		Salt:           acc.Salt,
		CreatedAt:      acc.CreatedAt,
		UserData:       acc.UserData,
		ExportDate:     time.Now(),
		Version:        BundleVersion,
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return raw, nil
}

// ParseBundle validates and decodes a bundle. Минимальная проверка —
// присутствие id, name и hashedPassword.
func ParseBundle(raw []byte) (*models.ExportBundle, error) {
	var b models.ExportBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	if b.ID == "" || b.Name == "" || b.HashedPassword == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidBundle)
	}
	if b.Version == 0 {
		b.Version = BundleVersion
	}

	return &b, nil
}

// Import lands a parsed bundle in the device's account store: first free
// slot, or ErrCapacityExceeded when the device is full. Счетчики практики
// переносятся как есть.
func Import(ctx context.Context, svc *accounts.Service, b *models.ExportBundle) (int, error) {
	if b == nil {
		return 0, ErrInvalidBundle
	}

	acc := &models.UserAccount{
		ID:             b.ID,
		Name:           b.Name,
		DOB:            b.DOB,
		HashedPassword: b.HashedPassword,
		Salt:           b.Salt,
		CreatedAt:      b.CreatedAt,
		UserData:       b.UserData,
	}

	return svc.CreateAccount(ctx, acc)
}
