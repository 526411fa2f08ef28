package urgency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache memoizes results by CacheKey. Implementations must return a value
// equal to what was Put for the key. Put is unconditional.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Put(ctx context.Context, key string, r Result) error
	Clear(ctx context.Context) error
}

// CacheKey is the hex SHA-256 digest of the trimmed email text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
