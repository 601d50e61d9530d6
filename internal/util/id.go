package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier of the form "prefix_<32 hex>".
// Entity prefixes ("aud", "hk", ...) make IDs self-describing in logs;
// the "tmp" prefix marks client-provisional rows awaiting their
// canonical ID.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
