package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HTTPKey generates a cache key for an HTTP response.
// The key format is: namespace:hash(url)
func HTTPKey(namespace, url string) string {
	return fmt.Sprintf("%s:%s", namespace, Hash([]byte(url)))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
