package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runSlots(ctx context.Context) error {
	slots, err := c.accounts.GetSlots(ctx)
	if err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}

	c.io.Println("=== Account Slots ===")
	c.io.Println()

	for _, slot := range slots {
		if slot.Empty() {
			c.io.Printf("  [%d] (empty)\n", slot.SlotID)
			continue
		}

		mark := " "
		if slot.IsActive {
			mark = "*"
		}

		lastLogin := "never"
		if slot.LastLogin != nil {
			lastLogin = slot.LastLogin.Format(time.RFC3339)
		}
		c.io.Printf("  [%d]%s %s (last login: %s)\n", slot.SlotID, mark, slot.Name, lastLogin)
	}

	c.io.Println()
	c.io.Println("* marks the active slot")
	return nil
}
