package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (c *Cli) runCount(ctx context.Context, args []string) error {
	// По умолчанию засчитываем один круг
	count := int64(1)
	if len(args) > 0 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
		count = n
	}

	acc, err := c.accounts.RecordChant(ctx, count)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Recorded %d round(s) for %s\n", count, acc.Name)
	c.io.Printf("Today: %d, lifetime: %d, streak: %d day(s)\n",
		acc.UserData.TodayCount, acc.UserData.LifetimeCount, acc.UserData.Streak)

	return nil
}
