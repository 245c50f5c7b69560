package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: japakeeper login <slot>")
	}

	slotID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slot number: %s", args[0])
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	acc, err := c.accounts.Authenticate(ctx, slotID, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("✓ Logged in as %s (slot %d)\n", acc.Name, slotID)
	c.io.Printf("Today: %d, lifetime: %d, streak: %d day(s)\n",
		acc.UserData.TodayCount, acc.UserData.LifetimeCount, acc.UserData.Streak)

	return nil
}
