// Package sealing protects the sensitive fields of locked holdings at rest.
package sealing

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"hearth/contexts/household-governance/escalation-engine/ports"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrMasterKeySize  = errors.New("sealing master key must be 32 bytes")
	ErrSealedTooShort = errors.New("sealed payload too short")
	ErrOpenFailed     = errors.New("sealed payload failed authentication")
)

// XChaCha seals payloads with XChaCha20-Poly1305 under a per-tenant key
// derived from the master key. The tenant id is bound as additional data.
type XChaCha struct {
	masterKey []byte
}

func NewXChaCha(masterKey []byte) (*XChaCha, error) {
	if len(masterKey) != chacha20poly1305.KeySize {
		return nil, ErrMasterKeySize
	}
	return &XChaCha{masterKey: append([]byte(nil), masterKey...)}, nil
}

// Seal returns nonce||ciphertext.
func (x *XChaCha) Seal(_ context.Context, tenantID string, plaintext []byte) ([]byte, error) {
	aead, err := x.aead(tenantID)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(tenantID)), nil
}

func (x *XChaCha) Open(_ context.Context, tenantID string, sealed []byte) ([]byte, error) {
	aead, err := x.aead(tenantID)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedTooShort
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(tenantID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	return plaintext, nil
}

func (x *XChaCha) aead(tenantID string) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, x.masterKey, nil, []byte("hearth-holding-seal:"+tenantID))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive tenant key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}

// Unsealed treats stored payloads as plaintext. It serves deployments that
// keep holdings unencrypted.
type Unsealed struct{}

func (Unsealed) Open(_ context.Context, _ string, sealed []byte) ([]byte, error) {
	return append([]byte(nil), sealed...), nil
}

var _ ports.FieldSealer = (*XChaCha)(nil)
var _ ports.FieldSealer = Unsealed{}
