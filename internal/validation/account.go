// Package validation contains input checks for locally created accounts.
package validation

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// MinNameLen минимальная длина имени
	MinNameLen = 1
	// MaxNameLen максимальная длина имени
	MaxNameLen = 64
	// MinPasswordLen минимальная длина пароля.
	// Приложение — локальный счетчик мантр, а не хранилище секретов,
	// поэтому требования мягче, чем у классического менеджера паролей.
	MinPasswordLen = 6
)

// DOBLayout — формат даты рождения
const DOBLayout = "2006-01-02"

// ValidateName проверяет имя владельца аккаунта
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	length := utf8.RuneCountInString(name)
	if length < MinNameLen || length > MaxNameLen {
		return fmt.Errorf("name must be between %d and %d characters", MinNameLen, MaxNameLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("name must not contain control characters")
		}
	}

	return nil
}

// ValidateDOB проверяет дату рождения в формате YYYY-MM-DD.
// Дата рождения опциональна: пустая строка допустима.
func ValidateDOB(dob string) error {
	if dob == "" {
		return nil
	}

	parsed, err := time.Parse(DOBLayout, dob)
	if err != nil {
		return fmt.Errorf("date of birth must be in YYYY-MM-DD format: %w", err)
	}

	if parsed.After(time.Now()) {
		return fmt.Errorf("date of birth cannot be in the future")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
