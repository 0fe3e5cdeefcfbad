package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
)

var (
	hashSalt string
	saltOnce sync.Once
)

// InitHashSalt loads the log hash salt from the environment. Call once at startup.
func InitHashSalt() {
	saltOnce.Do(func() {
		hashSalt = os.Getenv("LOG_HASH_SALT")
		if hashSalt == "" {
			hashSalt = "default-salt-change-in-production"
		}
	})
}

// HashUserName creates a privacy-preserving hash of a username so user
// actions can be traced in logs without exposing the account name.
func HashUserName(userName string) string {
	InitHashSalt()
	data := fmt.Sprintf("%s:%s", userName, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// First 8 characters are enough to correlate entries.
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizePhone redacts a customer phone number, keeping the carrier prefix
// for debugging prefix-matching issues.
func SanitizePhone(phone string) string {
	if phone == "" {
		return "<empty>"
	}
	if len(phone) <= 3 {
		return fmt.Sprintf("<%d digits>", len(phone))
	}
	return fmt.Sprintf("%s...<%d digits>", phone[:3], len(phone))
}
