package token

import (
	"crypto/rand"
	"encoding/base64"
)

// Generate returns a fresh opaque bearer string. URL-safe because
// tokens travel in verification links, query parameters and cookies.
func Generate() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
