package webhook

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
)

var (
	// ErrPublicKeyFormat means the key is not 32 hex-encoded bytes.
	ErrPublicKeyFormat = errors.New("public key format")
	// ErrPublicKey means the key bytes are not a point on the curve.
	ErrPublicKey = errors.New("invalid public key")
	// ErrSignature covers malformed signature hex and cryptographic mismatch alike.
	ErrSignature = errors.New("invalid signature")
)

// Verifier checks Ed25519 request signatures against the application's
// public key. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier parses a hex-encoded Ed25519 public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublicKeyFormat, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPublicKeyFormat, len(raw), ed25519.PublicKeySize)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublicKey, err)
	}
	return &Verifier{key: ed25519.PublicKey(raw)}, nil
}

// Verify checks signatureHex over timestamp ++ body.
func (v *Verifier) Verify(signatureHex, timestamp string, body []byte) error {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrSignature
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)

	if !ed25519.Verify(v.key, msg, sig) {
		return ErrSignature
	}
	return nil
}
