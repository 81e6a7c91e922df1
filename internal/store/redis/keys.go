package redis

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// KeyPrefixResolution is the prefix for cached resolution results.
	KeyPrefixResolution = "salvage:resolve:"
	// KeyPrefixStatus is the prefix for per-channel online status.
	KeyPrefixStatus = "salvage:status:"
	// KeyOfflineChannels is the set of channel identities currently offline.
	KeyOfflineChannels = "salvage:offline"
)

// ResolutionKey returns the cache key for a target URL. The full SHA-256
// digest is used so distinct URLs can never collide, regardless of length
// or characters.
func ResolutionKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return KeyPrefixResolution + hex.EncodeToString(sum[:])
}

// StatusKey returns the status key for a channel identity.
func StatusKey(identity string) string {
	return KeyPrefixStatus + identity
}
