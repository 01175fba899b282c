package safe

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// Signer holds the proposer's secp256k1 key. It is constructed explicitly
// and passed where needed; there is no process-global signer.
type Signer struct {
	key *secp256k1.PrivateKey
}

// NewSigner parses a 0x-prefixed 32-byte hex private key.
func NewSigner(hexKey string) (*Signer, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(hexKey), "0x"))
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "bad proposer key: %v", err)
	}
	if len(b) != 32 {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "bad proposer key: want 32 bytes, got %d", len(b))
	}
	return &Signer{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Address derives the Ethereum address of the proposer key:
// keccak256(uncompressed pubkey without prefix)[12:].
func (s *Signer) Address() string {
	pub := s.key.PubKey().SerializeUncompressed()
	return "0x" + hex.EncodeToString(Keccak256(pub[1:])[12:])
}

// Sign produces an Ethereum-style 65-byte r||s||v signature (v in {27,28})
// over the given 32-byte digest, hex encoded with 0x prefix.
func (s *Signer) Sign(digest []byte) (string, error) {
	if len(digest) != 32 {
		return "", errs.Wrapf(errs.ErrInvalidInput, "digest must be 32 bytes, got %d", len(digest))
	}
	// SignCompact returns [v, r..., s...] with v = 27 + recovery id.
	compact := secpecdsa.SignCompact(s.key, digest, false)
	sig := make([]byte, 65)
	copy(sig[0:32], compact[1:33])
	copy(sig[32:64], compact[33:65])
	sig[64] = compact[0]
	return "0x" + hex.EncodeToString(sig), nil
}
