package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a filesystem-safe identifier for an owner id.
// Object keys are namespaced by it so raw ids never reach a path.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
