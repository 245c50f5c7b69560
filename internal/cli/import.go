package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/japakeeper/internal/export"
)

func (c *Cli) runImport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: japakeeper import <SE_id|bundle-file>")
	}
	arg := args[0]

	var slotID int

	if strings.HasPrefix(arg, export.EmbeddedIDPrefix) {
		// Самодостаточный идентификатор
		acc, err := export.DecodeEmbeddedID(arg)
		if err != nil {
			return err
		}
		slotID, err = c.accounts.CreateAccount(ctx, acc)
		if err != nil {
			return err
		}
	} else {
		// Иначе трактуем аргумент как путь к JSON-бандлу
		raw, err := os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("failed to read bundle file: %w", err)
		}
		bundle, err := export.ParseBundle(raw)
		if err != nil {
			return err
		}
		slotID, err = export.Import(ctx, c.accounts, bundle)
		if err != nil {
			return err
		}
	}

	acc, err := c.accounts.GetAccountBySlot(ctx, slotID)
	if err != nil {
		return fmt.Errorf("import landed but readback failed: %w", err)
	}

	c.io.Printf("✓ Imported %s into slot %d\n", acc.Name, slotID)
	c.io.Printf("Lifetime count carried over: %d\n", acc.UserData.LifetimeCount)

	return nil
}
