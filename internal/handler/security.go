package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// adminKeyHeader carries the back-office API key.
const adminKeyHeader = "X-Admin-Key"

// SecurityHandler authenticates admin requests against a single configured
// API key. Keys are compared as SHA-256 digests in constant time to prevent
// timing side-channels.
type SecurityHandler struct {
	keyDigest [sha256.Size]byte
	disabled  bool
}

// NewSecurityHandler creates a SecurityHandler for the given key. An empty
// key disables the admin surface entirely rather than leaving it open.
func NewSecurityHandler(key []byte) *SecurityHandler {
	s := &SecurityHandler{disabled: len(key) == 0}
	if !s.disabled {
		s.keyDigest = sha256.Sum256(key)
	}
	return s
}

// Require wraps an admin handler, rejecting requests whose key digest does
// not match.
func (s *SecurityHandler) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.disabled {
			writeError(w, http.StatusUnauthorized, "admin access disabled")
			return
		}
		got := sha256.Sum256([]byte(r.Header.Get(adminKeyHeader)))
		if subtle.ConstantTimeCompare(got[:], s.keyDigest[:]) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
