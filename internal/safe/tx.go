package safe

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// OperationCall is the only Safe operation this service proposes.
const OperationCall = 0

// SafeTx is a multisig transaction in canonical form, hashed per the Safe
// contracts' EIP-712 schema.
type SafeTx struct {
	To        string
	Value     *big.Int
	Data      []byte
	Operation int
	SafeTxGas *big.Int
	BaseGas   *big.Int
	GasPrice  *big.Int
	GasToken  string
	Refund    string
	Nonce     int64
}

// zeroAddress is used for gas token and refund receiver in plain proposals.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// NewApprovalTx builds a token-approval call transaction with zeroed gas
// parameters, the shape every disbursement proposal uses.
func NewApprovalTx(tokenAddress string, data []byte, nonce int64) SafeTx {
	return SafeTx{
		To:        tokenAddress,
		Value:     big.NewInt(0),
		Data:      data,
		Operation: OperationCall,
		SafeTxGas: big.NewInt(0),
		BaseGas:   big.NewInt(0),
		GasPrice:  big.NewInt(0),
		GasToken:  zeroAddress,
		Refund:    zeroAddress,
		Nonce:     nonce,
	}
}

// Keccak256 returns the legacy Keccak-256 digest used throughout Ethereum.
func Keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(addr string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "bad address %q: %v", addr, err)
	}
	if len(b) != 20 {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "bad address %q: want 20 bytes, got %d", addr, len(b))
	}
	return b, nil
}

// word left-pads b into a 32-byte ABI word.
func word(b []byte) []byte {
	w := make([]byte, 32)
	copy(w[32-len(b):], b)
	return w
}

func uintWord(v *big.Int) []byte {
	return word(v.Bytes())
}

func addressWord(addr string) ([]byte, error) {
	b, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	return word(b), nil
}

// EncodeApprove ABI-encodes approve(spender, value) for an ERC20 token.
func EncodeApprove(spender string, value *big.Int) ([]byte, error) {
	selector := Keccak256([]byte("approve(address,uint256)"))[:4]
	sw, err := addressWord(spender)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, 4+64)
	data = append(data, selector...)
	data = append(data, sw...)
	data = append(data, uintWord(value)...)
	return data, nil
}

// Hash computes the EIP-712 hash the Safe contracts sign over:
// keccak(0x19 || 0x01 || domainSeparator || structHash) with the domain
// bound to (chainId, safe address).
func (tx SafeTx) Hash(chainID int64, safeAddress string) ([]byte, error) {
	domainTypeHash := Keccak256([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))
	safeTxTypeHash := Keccak256([]byte("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"))

	safeWord, err := addressWord(safeAddress)
	if err != nil {
		return nil, err
	}
	domainSeparator := Keccak256(domainTypeHash, uintWord(big.NewInt(chainID)), safeWord)

	toWord, err := addressWord(tx.To)
	if err != nil {
		return nil, err
	}
	gasTokenWord, err := addressWord(tx.GasToken)
	if err != nil {
		return nil, err
	}
	refundWord, err := addressWord(tx.Refund)
	if err != nil {
		return nil, err
	}

	structHash := Keccak256(
		safeTxTypeHash,
		toWord,
		uintWord(tx.Value),
		Keccak256(tx.Data),
		uintWord(big.NewInt(int64(tx.Operation))),
		uintWord(tx.SafeTxGas),
		uintWord(tx.BaseGas),
		uintWord(tx.GasPrice),
		gasTokenWord,
		refundWord,
		uintWord(big.NewInt(tx.Nonce)),
	)

	return Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash), nil
}

// HashHex is Hash with a 0x-prefixed hex result.
func (tx SafeTx) HashHex(chainID int64, safeAddress string) (string, error) {
	h, err := tx.Hash(chainID, safeAddress)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(h), nil
}

// DataHex returns the calldata as 0x-prefixed hex.
func (tx SafeTx) DataHex() string {
	return "0x" + hex.EncodeToString(tx.Data)
}

// ValueString returns the value in decimal, the form the service expects.
func (tx SafeTx) ValueString() string {
	if tx.Value == nil {
		return "0"
	}
	return tx.Value.String()
}

func (tx SafeTx) String() string {
	return fmt.Sprintf("SafeTx{to=%s value=%s nonce=%d}", tx.To, tx.ValueString(), tx.Nonce)
}
