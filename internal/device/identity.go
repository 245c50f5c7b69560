package device

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/iudanet/japakeeper/internal/fingerprint"
)

// IDPattern — формат идентификатора устройства:
// device_<epoch_ms>_<random8>_<fingerprint6>
var IDPattern = regexp.MustCompile(`^device_\d+_[a-z0-9]+_[a-z0-9]+$`)

const (
	randomLen = 8
	base36    = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// ValidID reports whether id parses as a well-formed device identifier
func ValidID(id string) bool {
	return IDPattern.MatchString(id)
}

// NewID generates a fresh device identifier. Fingerprint — мягкая примесь
// к случайной части, а не самостоятельный источник идентичности.
func NewID() string {
	return fmt.Sprintf("device_%d_%s_%s",
		time.Now().UnixMilli(), randomToken(randomLen), fingerprint.Generate())
}

func randomToken(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}
