package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.accounts.ClearActiveSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	c.io.Println("✓ Logged out")
	return nil
}
