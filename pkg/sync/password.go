package sync

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/agentstation/grafsync/pkg/errors"
)

// passwordBytes is the entropy of generated account passwords. Accounts
// are SSO-style: the password is never retrievable and never reused.
const passwordBytes = 16

// randomPassword generates a fresh hex-encoded random password.
func randomPassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.WrapIO("read", "random source", err)
	}
	return hex.EncodeToString(buf), nil
}
