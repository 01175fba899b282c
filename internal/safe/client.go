package safe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// DefaultTimeout bounds every gateway call. The upstream service had none;
// an unbounded call here blocks an approval screen indefinitely.
const DefaultTimeout = 15 * time.Second

// Client talks to a Safe transaction service instance.
//
// Reads (GetSafeInfo, GetTransaction, GetPendingTransactions) are safe to
// retry by the caller. ProposeTransaction must never be retried
// automatically: re-proposing under a fresh nonce creates a second,
// independently executable financial transaction.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a transaction-service client against baseURL, e.g.
// "https://safe-transaction-sepolia.safe.global".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errs.Wrapf(errs.ErrGateway, "build request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrapf(errs.ErrGateway, "GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errs.Wrapf(errs.ErrNotFound, "GET %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Wrapf(errs.ErrGateway, "GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrapf(errs.ErrGateway, "GET %s: decode: %v", path, err)
	}
	return nil
}

// GetSafeInfo fetches the wallet's owner set, threshold and nonce.
func (c *Client) GetSafeInfo(ctx context.Context, safeAddress string) (*SafeInfo, error) {
	var info SafeInfo
	if err := c.get(ctx, fmt.Sprintf("/api/v1/safes/%s/", safeAddress), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTransaction fetches one multisig transaction by its safe tx hash.
func (c *Client) GetTransaction(ctx context.Context, safeTxHash string) (*MultisigTransaction, error) {
	var tx MultisigTransaction
	if err := c.get(ctx, fmt.Sprintf("/api/v1/multisig-transactions/%s/", safeTxHash), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetPendingTransactions fetches the wallet's not-yet-executed transactions.
func (c *Client) GetPendingTransactions(ctx context.Context, safeAddress string) (*PendingTransactions, error) {
	q := url.Values{}
	q.Set("executed", "false")
	var page PendingTransactions
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/?%s", safeAddress, q.Encode())
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// proposeBody mirrors the service's multisig-transaction creation payload.
type proposeBody struct {
	To                      string `json:"to"`
	Value                   string `json:"value"`
	Data                    string `json:"data"`
	Operation               int    `json:"operation"`
	GasToken                string `json:"gasToken"`
	SafeTxGas               string `json:"safeTxGas"`
	BaseGas                 string `json:"baseGas"`
	GasPrice                string `json:"gasPrice"`
	RefundReceiver          string `json:"refundReceiver"`
	Nonce                   int64  `json:"nonce"`
	ContractTransactionHash string `json:"contractTransactionHash"`
	Sender                  string `json:"sender"`
	Signature               string `json:"signature"`
}

// ProposeTransaction submits a signed proposal to the service. The context
// is checked once more before the request goes out; after submission the
// proposal is committed on the service side regardless of local cancellation.
func (c *Client) ProposeTransaction(ctx context.Context, p Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := proposeBody{
		To:                      p.Tx.To,
		Value:                   p.Tx.ValueString(),
		Data:                    p.Tx.DataHex(),
		Operation:               p.Tx.Operation,
		GasToken:                p.Tx.GasToken,
		SafeTxGas:               p.Tx.SafeTxGas.String(),
		BaseGas:                 p.Tx.BaseGas.String(),
		GasPrice:                p.Tx.GasPrice.String(),
		RefundReceiver:          p.Tx.Refund,
		Nonce:                   p.Tx.Nonce,
		ContractTransactionHash: p.SafeTxHash,
		Sender:                  p.Sender,
		Signature:               p.Signature,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return errs.Wrapf(errs.ErrGateway, "encode proposal: %v", err)
	}

	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/", p.SafeAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errs.Wrapf(errs.ErrGateway, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrapf(errs.ErrGateway, "propose transaction: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Wrapf(errs.ErrGateway, "propose transaction: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
