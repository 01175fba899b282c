package safe

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/rahat-c2c/disburse/internal/errs"
)

const (
	testToken   = "0x0000000000000000000000000000000000700c01"
	testSpender = "0x00000000000000000000000000000000c2c00001"
	testSafe    = "0x00000000000000000000000000000000005afe00"
)

func TestParseAddress(t *testing.T) {
	b, err := ParseAddress(testToken)
	if err != nil {
		t.Fatalf("ParseAddress failed: %v", err)
	}
	if len(b) != 20 {
		t.Errorf("expected 20 bytes, got %d", len(b))
	}

	// Mixed case is accepted; addresses are lowercased before decoding.
	if _, err := ParseAddress("0x0000000000000000000000000000000000700C01"); err != nil {
		t.Errorf("mixed case address rejected: %v", err)
	}

	for _, bad := range []string{"0x1234", "not-an-address", "0xzz00000000000000000000000000000000000000"} {
		if _, err := ParseAddress(bad); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("ParseAddress(%q): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestEncodeApprove(t *testing.T) {
	value := big.NewInt(1000)
	data, err := EncodeApprove(testSpender, value)
	if err != nil {
		t.Fatalf("EncodeApprove failed: %v", err)
	}

	// Selector plus two 32-byte words.
	if len(data) != 4+64 {
		t.Fatalf("expected 68 bytes of calldata, got %d", len(data))
	}
	if hex.EncodeToString(data[:4]) != "095ea7b3" {
		t.Errorf("unexpected approve selector: %x", data[:4])
	}

	spenderBytes, _ := ParseAddress(testSpender)
	if !bytes.Equal(data[4+12:4+32], spenderBytes) {
		t.Errorf("spender not encoded in first word: %x", data[4:4+32])
	}
	if got := new(big.Int).SetBytes(data[4+32:]); got.Cmp(value) != 0 {
		t.Errorf("value word: expected %s, got %s", value, got)
	}

	if _, err := EncodeApprove("0xbad", value); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad spender, got %v", err)
	}
}

func TestSafeTxHash(t *testing.T) {
	data, err := EncodeApprove(testSpender, big.NewInt(1000))
	if err != nil {
		t.Fatalf("EncodeApprove failed: %v", err)
	}
	tx := NewApprovalTx(testToken, data, 7)

	h1, err := tx.Hash(11155111, testSafe)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(h1) != 32 {
		t.Fatalf("expected 32-byte hash, got %d", len(h1))
	}

	// Deterministic for identical inputs.
	h2, _ := tx.Hash(11155111, testSafe)
	if !bytes.Equal(h1, h2) {
		t.Error("hash is not deterministic")
	}

	// Every EIP-712 input perturbs the digest.
	perturbed := tx
	perturbed.Nonce = 8
	hn, _ := perturbed.Hash(11155111, testSafe)
	if bytes.Equal(h1, hn) {
		t.Error("nonce change did not change hash")
	}

	hc, _ := tx.Hash(1, testSafe)
	if bytes.Equal(h1, hc) {
		t.Error("chain id change did not change hash")
	}

	hs, _ := tx.Hash(11155111, testSpender)
	if bytes.Equal(h1, hs) {
		t.Error("safe address change did not change hash")
	}

	if _, err := tx.Hash(11155111, "0xbad"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad safe address, got %v", err)
	}
}

func TestSafeTxEncodingHelpers(t *testing.T) {
	tx := NewApprovalTx(testToken, []byte{0xde, 0xad}, 3)

	if tx.DataHex() != "0xdead" {
		t.Errorf("DataHex: expected '0xdead', got '%s'", tx.DataHex())
	}
	if tx.ValueString() != "0" {
		t.Errorf("ValueString: expected '0', got '%s'", tx.ValueString())
	}
	if tx.GasToken != zeroAddress || tx.Refund != zeroAddress {
		t.Error("expected zero address gas token and refund receiver")
	}
	if tx.Operation != OperationCall {
		t.Errorf("operation: expected CALL, got %d", tx.Operation)
	}

	hh, err := tx.HashHex(11155111, testSafe)
	if err != nil {
		t.Fatalf("HashHex failed: %v", err)
	}
	if len(hh) != 66 || hh[:2] != "0x" {
		t.Errorf("HashHex: expected 0x-prefixed 64 hex chars, got %s", hh)
	}
}
