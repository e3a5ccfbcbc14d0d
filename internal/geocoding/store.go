package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/handcar/handcar-backend/pkg/geo"
)

// Store caches resolved coordinates by normalised address. Implementations own
// their expiry policy; a miss is (Point{}, false, nil).
type Store interface {
	Get(ctx context.Context, key string) (geo.Point, bool, error)
	Set(ctx context.Context, key string, point geo.Point) error
}

// NormalizeAddress is the cache key for an address: trimmed, inner whitespace
// collapsed to single spaces, lower-cased.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
