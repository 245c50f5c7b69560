// Package fingerprint derives a semi-stable host token used to season
// generated device identifiers. The token is a soft hint, not a unique or
// cryptographically meaningful identifier.
package fingerprint

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	// MinLen минимальная длина токена
	MinLen = 6
	// MaxLen максимальная длина токена
	MaxLen = 10
)

// Generate returns a 6..10 character base36 token folded from host
// characteristics. It never fails: if no host information is available it
// falls back to a timestamp-derived token.
func Generate() string {
	source := collect()
	if source == "" {
		return fallback()
	}

	// Простой rolling hash (multiply-shift-add), как и в исходной схеме
	var h uint64
	for _, c := range source {
		h = h*31 + uint64(c)
		h ^= h >> 13
	}

	token := strconv.FormatUint(h, 36)
	if len(token) < MinLen {
		// Добиваем короткий хеш нулями до минимальной длины
		token += strings.Repeat("0", MinLen-len(token))
	}
	if len(token) > MaxLen {
		token = token[:MaxLen]
	}
	return token
}

// collect собирает характеристики хоста в одну строку.
// Состав аналогичен браузерному fingerprint: платформа, размеры экрана и
// язык заменены на OS/arch, число CPU и локаль окружения.
func collect() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	zone, _ := time.Now().Zone()

	parts := []string{
		hostname,
		runtime.GOOS,
		runtime.GOARCH,
		fmt.Sprintf("cpu%d", runtime.NumCPU()),
		zone,
		os.Getenv("LANG"),
		os.Getenv("USER"),
	}

	source := strings.Join(parts, "|")
	if strings.Trim(source, "|") == "" {
		return ""
	}
	return source
}

// fallback возвращает токен, производный от текущего времени
func fallback() string {
	token := strconv.FormatInt(time.Now().UnixNano(), 36)
	if len(token) > MinLen {
		token = token[len(token)-MinLen:]
	}
	return token
}
