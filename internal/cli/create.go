package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/japakeeper/internal/accounts"
)

func (c *Cli) runCreate(ctx context.Context) error {
	c.io.Println("=== New Account ===")
	c.io.Println()

	// Запрашиваем имя
	name, err := c.io.ReadInput("Name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}

	// Дата рождения опциональна
	dob, err := c.io.ReadInput("Date of birth (YYYY-MM-DD, optional): ")
	if err != nil {
		return fmt.Errorf("failed to read date of birth: %w", err)
	}

	// Пароль с подтверждением
	password, err := c.io.ReadPassword("Password (min 6 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	acc, err := c.accounts.NewAccount(name, dob, password)
	if err != nil {
		return err
	}

	slotID, err := c.accounts.CreateAccount(ctx, acc)
	if err != nil {
		if errors.Is(err, accounts.ErrCapacityExceeded) {
			return fmt.Errorf("all slots are occupied; clear one with 'japakeeper clear <slot>' first")
		}
		return err
	}

	c.io.Println()
	c.io.Printf("✓ Account created in slot %d\n", slotID)
	c.io.Printf("User ID: %s\n", acc.ID)

	return nil
}
