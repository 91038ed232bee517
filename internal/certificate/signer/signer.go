// Package signer produces and checks the detached Ed25519 signatures on
// certificates.
//
// Ed25519 over a canonical serialization keeps verification independent of
// the pipeline: anyone holding the snapshot, the signature, and the public
// key can check a certificate offline. The standard library implementation
// is used directly; signature schemes are not a place for third-party code.
package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	dErrors "attribune/pkg/domain-errors"
)

// Signer signs certificate snapshots with a fixed Ed25519 key.
type Signer struct {
	priv ed25519.PrivateKey
	pub  string
}

// New constructs a Signer from a base64-encoded 32-byte Ed25519 seed. An
// empty seed generates an ephemeral key, which is only useful for tests and
// local development: certificates signed with it cannot be verified after a
// restart.
func New(encodedSeed string) (*Signer, error) {
	if encodedSeed == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return fromKey(priv), nil
	}

	seed, err := base64.StdEncoding.DecodeString(encodedSeed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "signing seed is not valid base64")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "signing seed must be %d bytes", ed25519.SeedSize)
	}
	return fromKey(ed25519.NewKeyFromSeed(seed)), nil
}

func fromKey(priv ed25519.PrivateKey) *Signer {
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{
		priv: priv,
		pub:  base64.StdEncoding.EncodeToString(pub),
	}
}

// Sign returns the base64 detached signature over payload.
func (s *Signer) Sign(payload []byte) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.priv, payload))
}

// PublicKey returns the base64-encoded verification key.
func (s *Signer) PublicKey() string {
	return s.pub
}

// Verify checks a detached signature against a base64 public key. It is a
// package function, not a method: verification must not require the signer.
func Verify(encodedPub string, payload []byte, encodedSig string) bool {
	pub, err := base64.StdEncoding.DecodeString(encodedPub)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(encodedSig)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}
