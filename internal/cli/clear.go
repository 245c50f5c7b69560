package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (c *Cli) runClear(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: japakeeper clear <slot>")
	}

	slotID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slot number: %s", args[0])
	}

	// Удаление необратимо, просим подтверждение
	answer, err := c.io.ReadInput(fmt.Sprintf("Remove the account in slot %d? (yes/no): ", slotID))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if strings.ToLower(answer) != "yes" {
		c.io.Println("Aborted.")
		return nil
	}

	if err := c.accounts.ClearSlot(ctx, slotID); err != nil {
		return err
	}

	c.io.Printf("✓ Slot %d cleared\n", slotID)
	return nil
}
