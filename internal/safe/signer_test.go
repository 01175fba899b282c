package safe

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// Throwaway key, never used outside tests.
const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestNewSigner(t *testing.T) {
	if _, err := NewSigner(testKey); err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	// The 0x prefix is optional.
	if _, err := NewSigner(strings.TrimPrefix(testKey, "0x")); err != nil {
		t.Errorf("NewSigner without prefix failed: %v", err)
	}

	for _, bad := range []string{"", "0x1234", "0xzz", testKey + "ff"} {
		if _, err := NewSigner(bad); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("NewSigner(%q): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestSignerAddress(t *testing.T) {
	signer, err := NewSigner(testKey)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	addr := signer.Address()
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		t.Errorf("expected 0x-prefixed 20-byte address, got %s", addr)
	}
	if addr != signer.Address() {
		t.Error("address is not stable")
	}
}

func TestSign(t *testing.T) {
	signer, err := NewSigner(testKey)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	digest := Keccak256([]byte("test digest"))

	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(sig) != 132 || !strings.HasPrefix(sig, "0x") {
		t.Fatalf("expected 65-byte hex signature, got %s", sig)
	}

	raw, err := hex.DecodeString(sig[2:])
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
	if v := raw[64]; v != 27 && v != 28 {
		t.Errorf("recovery byte: expected 27 or 28, got %d", v)
	}

	// RFC 6979 nonces make the signature deterministic.
	sig2, _ := signer.Sign(digest)
	if sig != sig2 {
		t.Error("signature is not deterministic")
	}

	// The signature recovers to the signer's own address.
	compact := append([]byte{raw[64]}, raw[:64]...)
	pub, _, err := secpecdsa.RecoverCompact(compact, digest)
	if err != nil {
		t.Fatalf("RecoverCompact failed: %v", err)
	}
	recovered := "0x" + hex.EncodeToString(Keccak256(pub.SerializeUncompressed()[1:])[12:])
	if recovered != signer.Address() {
		t.Errorf("recovered address %s does not match signer address %s", recovered, signer.Address())
	}

	if _, err := signer.Sign([]byte("short")); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-32-byte digest, got %v", err)
	}
}
