package waiver

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

//go:embed waiver.md
var defaultDocument string

// Domain errors
var (
	ErrNoRegistration = errors.New("waiver must be associated with a registration")
	ErrNotRead        = errors.New("waiver must be read before signing")
	ErrNoSignature    = errors.New("waiver must be signed")
	ErrNoSignedAt     = errors.New("signed date must be set")
	ErrDigestMismatch = errors.New("signature digest does not match signature")
)

// Waiver is the signed liability waiver stored with a registration.
type Waiver struct {
	ID              string
	RegistrationID  string
	HasRead         bool
	Signature       string // data URL of the drawn signature
	SignatureDigest string // hex BLAKE2b-256 of Signature
	IPAddress       string
	SignedAt        time.Time
}

// New builds a waiver for a registration and seals the signature digest.
// PRE: signature is the artifact produced by the signature pad
// POST: SignatureDigest matches Signature
func New(id, registrationID string, hasRead bool, signature, ip string, signedAt time.Time) Waiver {
	return Waiver{
		ID:              id,
		RegistrationID:  registrationID,
		HasRead:         hasRead,
		Signature:       signature,
		SignatureDigest: Digest(signature),
		IPAddress:       ip,
		SignedAt:        signedAt,
	}
}

// Validate checks if the Waiver has valid data.
// PRE: Waiver struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: HasRead must be true, Signature and RegistrationID must not be empty
func (w *Waiver) Validate() error {
	if w.RegistrationID == "" {
		return ErrNoRegistration
	}
	if !w.HasRead {
		return ErrNotRead
	}
	if strings.TrimSpace(w.Signature) == "" {
		return ErrNoSignature
	}
	if w.SignedAt.IsZero() {
		return ErrNoSignedAt
	}
	return nil
}

// Verify reports whether the stored digest still matches the signature.
func (w *Waiver) Verify() error {
	if Digest(w.Signature) != w.SignatureDigest {
		return ErrDigestMismatch
	}
	return nil
}

// Digest returns the hex BLAKE2b-256 of a signature artifact.
func Digest(signature string) string {
	sum := blake2b.Sum256([]byte(signature))
	return hex.EncodeToString(sum[:])
}

// Document returns the waiver text as Markdown. When path is set the file
// replaces the built-in text.
func Document(path string) (string, error) {
	if path == "" {
		return defaultDocument, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read waiver document: %w", err)
	}
	return string(data), nil
}
