package cli

import (
	"context"
)

func (c *Cli) runHealth(ctx context.Context) error {
	c.io.Println("=== Storage Health ===")
	c.io.Println()

	// Активная проба: запись и чтение служебного ключа в каждом слое
	results := c.rep.HealthCheck(ctx)

	healthy := 0
	for _, name := range c.rep.Layers() {
		if results[name] {
			c.io.Printf("  ✓ %s\n", name)
			healthy++
		} else {
			c.io.Printf("  ✗ %s\n", name)
		}
	}

	c.io.Println()
	c.io.Printf("%d/%d layers healthy\n", healthy, len(results))

	// Проверка целостности идентичности устройства по всем слоям
	ok, err := c.devices.ValidateIntegrity(ctx)
	if err != nil {
		c.io.Printf("Identity integrity: check failed: %v\n", err)
		return nil
	}
	if ok {
		c.io.Println("Identity integrity: consistent")
	} else {
		c.io.Println("Identity integrity: inconsistent (will heal on next resync)")
	}

	return nil
}
