package safe

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// ChainClient reads chain state directly over JSON-RPC. Token balances are
// fetched here rather than through the transaction service so that funds
// figures never rest on a single data source.
type ChainClient struct {
	endpoint string
	http     *http.Client
}

// NewChainClient creates a JSON-RPC reader against the given endpoint.
func NewChainClient(endpoint string, timeout time.Duration) *ChainClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChainClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *ChainClient) call(ctx context.Context, method string, params ...any) (string, error) {
	raw, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return "", errs.Wrapf(errs.ErrGateway, "encode rpc request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", errs.Wrapf(errs.ErrGateway, "build rpc request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.Wrapf(errs.ErrGateway, "%s: %v", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.Wrapf(errs.ErrGateway, "%s: status %d", method, resp.StatusCode)
	}
	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errs.Wrapf(errs.ErrGateway, "%s: decode: %v", method, err)
	}
	if out.Error != nil {
		return "", errs.Wrapf(errs.ErrGateway, "%s: rpc error %d: %s", method, out.Error.Code, out.Error.Message)
	}
	var result string
	if err := json.Unmarshal(out.Result, &result); err != nil {
		return "", errs.Wrapf(errs.ErrGateway, "%s: unexpected result: %v", method, err)
	}
	return result, nil
}

func parseHexQuantity(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, errs.Wrapf(errs.ErrGateway, "malformed hex quantity %q", s)
	}
	return v, nil
}

// NativeBalance returns the address's native-coin balance in wei.
func (c *ChainClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, err
	}
	return parseHexQuantity(result)
}

func (c *ChainClient) ethCall(ctx context.Context, to string, data []byte) (*big.Int, error) {
	params := map[string]string{
		"to":   to,
		"data": "0x" + hex.EncodeToString(data),
	}
	result, err := c.call(ctx, "eth_call", params, "latest")
	if err != nil {
		return nil, err
	}
	return parseHexQuantity(result)
}

// TokenBalance returns holder's ERC20 balance in base token units.
func (c *ChainClient) TokenBalance(ctx context.Context, tokenAddress, holder string) (*big.Int, error) {
	selector := Keccak256([]byte("balanceOf(address)"))[:4]
	hw, err := addressWord(holder)
	if err != nil {
		return nil, err
	}
	return c.ethCall(ctx, tokenAddress, append(append([]byte{}, selector...), hw...))
}

// TokenDecimals returns the ERC20 token's decimals.
func (c *ChainClient) TokenDecimals(ctx context.Context, tokenAddress string) (int32, error) {
	selector := Keccak256([]byte("decimals()"))[:4]
	v, err := c.ethCall(ctx, tokenAddress, selector)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() > 77 {
		return 0, errs.Wrapf(errs.ErrGateway, "implausible token decimals %s", v)
	}
	return int32(v.Int64()), nil
}

func (c *ChainClient) String() string {
	return fmt.Sprintf("ChainClient(%s)", c.endpoint)
}
