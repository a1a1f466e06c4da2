package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
)

// SecretEnv names the environment variable holding the cookie-signing key.
const SecretEnv = "PARLEY_SECRET"

var ErrInvalidCookie = errors.New("invalid cookie")

// CookieSigner signs and verifies cookie values so the user id travelling in
// the session cookie cannot be forged client-side.
type CookieSigner struct {
	key []byte
}

// NewCookieSigner reads the signing key from the environment, falling back to
// a development key when unset.
func NewCookieSigner() *CookieSigner {
	secret := os.Getenv(SecretEnv)
	if secret == "" {
		secret = "parley-dev-secret"
	}
	return &CookieSigner{key: []byte(secret)}
}

func (c *CookieSigner) sign(value string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(value))
	return mac.Sum(nil)
}

// Sign returns the cookie value in the form "base64(value)|base64(signature)".
func (c *CookieSigner) Sign(value string) string {
	return fmt.Sprintf("%s|%s",
		base64.URLEncoding.EncodeToString([]byte(value)),
		base64.URLEncoding.EncodeToString(c.sign(value)))
}

// Verify checks the signature and returns the original value.
func (c *CookieSigner) Verify(signedValue string) (string, error) {
	encoded, encodedSig, ok := strings.Cut(signedValue, "|")
	if !ok {
		return "", ErrInvalidCookie
	}

	valueBytes, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCookie
	}
	signature, err := base64.URLEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", ErrInvalidCookie
	}

	if !hmac.Equal(signature, c.sign(string(valueBytes))) {
		return "", ErrInvalidCookie
	}
	return string(valueBytes), nil
}
