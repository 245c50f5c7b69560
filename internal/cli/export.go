package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/japakeeper/internal/export"
)

func (c *Cli) runExport(ctx context.Context) error {
	acc, err := c.accounts.GetActiveAccount(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve active account: %w", err)
	}
	if acc == nil {
		return fmt.Errorf("no active account; run 'japakeeper login <slot>' first")
	}

	bundle, err := export.Bundle(acc)
	if err != nil {
		return fmt.Errorf("failed to build bundle: %w", err)
	}

	embedded, err := export.EncodeEmbeddedID(acc)
	if err != nil {
		return fmt.Errorf("failed to build embedded id: %w", err)
	}

	c.io.Println("=== Export ===")
	c.io.Println()
	c.io.Println("JSON bundle (save to a file for backup):")
	c.io.Printf("%s\n", string(bundle))
	c.io.Println()
	c.io.Println("Embedded ID (paste into 'japakeeper import' on another device):")
	c.io.Printf("%s\n", embedded)

	return nil
}
