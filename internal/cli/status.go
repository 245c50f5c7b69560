package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Device Status ===")
	c.io.Println()

	identity := c.devices.Identity()
	if identity == nil {
		c.io.Println("Device identity is not initialized.")
		return nil
	}

	c.io.Printf("Device ID:   %s\n", identity.ID)
	c.io.Printf("Created:     %s\n", identity.Metadata.CreatedAt.Format(time.RFC3339))
	c.io.Printf("Last access: %s\n", identity.Metadata.LastAccess.Format(time.RFC3339))
	c.io.Printf("Fingerprint: %s\n", identity.Metadata.Fingerprint)
	c.io.Println()

	// Статус слоев по результатам последней записи
	c.io.Println("Storage layers (last write):")
	status := c.rep.Status()
	for _, name := range c.rep.Layers() {
		mark := "✓"
		if ok, known := status[name]; known && !ok {
			mark = "✗"
		}
		c.io.Printf("  %s %s\n", mark, name)
	}
	c.io.Println()

	// Активный аккаунт, если есть
	acc, err := c.accounts.GetActiveAccount(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve active account: %w", err)
	}
	if acc == nil {
		c.io.Println("No active account. Run 'japakeeper login <slot>'.")
		return nil
	}

	c.io.Printf("Active account: %s (slot %d)\n", acc.Name, acc.SlotID)
	c.io.Printf("Today:    %d\n", acc.UserData.TodayCount)
	c.io.Printf("Lifetime: %d\n", acc.UserData.LifetimeCount)
	c.io.Printf("Streak:   %d day(s)\n", acc.UserData.Streak)

	return nil
}
