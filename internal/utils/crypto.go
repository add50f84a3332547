// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewTransactionID returns "txn_" followed by 32 hex characters of a random
// UUID.
func NewTransactionID() string {
	return "txn_" + randomHex()
}

func NewRefundID() string {
	return "rfnd_" + randomHex()
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
