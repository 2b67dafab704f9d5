package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DevKey is used when no key is configured. Anything minted with it is only
// good for local development.
const DevKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

var ErrInvalidToken = errors.New("invalid opaque token")

// Sealer mints and opens the opaque tokens that route a visitor to one
// booking link. A token is AES-GCM over "ownerID:linkID", URL-safe encoded,
// so a link ID never appears in a shareable URL in the clear.
type Sealer struct {
	aead cipher.AEAD
}

func New(base64Key string) (*Sealer, error) {
	if base64Key == "" {
		base64Key = DevKey
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seal key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// MintToken seals (ownerID, linkID) into an opaque booking-link token.
func (s *Sealer) MintToken(ownerID, linkID string) (string, error) {
	plaintext := []byte(ownerID + ":" + linkID)

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// ParseToken opens a token back into (ownerID, linkID). Any tampering or
// garbage input yields ErrInvalidToken.
func (s *Sealer) ParseToken(token string) (string, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	if len(raw) < s.aead.NonceSize() {
		return "", "", ErrInvalidToken
	}

	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	parts := strings.SplitN(string(plaintext), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidToken
	}

	return parts[0], parts[1], nil
}
