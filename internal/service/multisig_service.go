package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/metrics"
	"github.com/rahat-c2c/disburse/internal/safe"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// Settings keys holding the wallet and contract addresses.
const (
	settingSafeWallet = "SAFE_WALLET"
	settingContract   = "CONTRACT"
)

type addressValue struct {
	Address string `json:"ADDRESS"`
}

// contractSetting is the CONTRACT settings blob: project and token
// contract addresses keyed by name.
type contractSetting struct {
	Project addressValue `json:"C2CPROJECT"`
	Token   addressValue `json:"RAHATTOKEN"`
}

// MultisigService drives the custodial multisig wallet for disbursements:
// proposing transactions, reading approval state and reconciling balances.
// Clients are constructed once and injected; there is no hidden per-call
// re-initialization.
type MultisigService struct {
	store   storage.Store
	gateway *safe.Client
	chain   *safe.ChainClient
	signer  *safe.Signer
	chainID int64
}

// NewMultisigService creates the multisig coordinator.
func NewMultisigService(store storage.Store, gateway *safe.Client, chain *safe.ChainClient, signer *safe.Signer, chainID int64) *MultisigService {
	return &MultisigService{
		store:   store,
		gateway: gateway,
		chain:   chain,
		signer:  signer,
		chainID: chainID,
	}
}

func (s *MultisigService) safeAddress(ctx context.Context) (string, error) {
	raw, err := s.store.GetSetting(ctx, settingSafeWallet)
	if err != nil {
		return "", err
	}
	var v addressValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", errs.Wrapf(errs.ErrInvalidInput, "malformed %s setting: %v", settingSafeWallet, err)
	}
	if v.Address == "" {
		return "", errs.Wrapf(errs.ErrInvalidInput, "%s setting has no address", settingSafeWallet)
	}
	return v.Address, nil
}

func (s *MultisigService) contracts(ctx context.Context) (contractSetting, error) {
	raw, err := s.store.GetSetting(ctx, settingContract)
	if err != nil {
		return contractSetting{}, err
	}
	var v contractSetting
	if err := json.Unmarshal(raw, &v); err != nil {
		return contractSetting{}, errs.Wrapf(errs.ErrInvalidInput, "malformed %s setting: %v", settingContract, err)
	}
	if v.Project.Address == "" || v.Token.Address == "" {
		return contractSetting{}, errs.Wrapf(errs.ErrInvalidInput, "%s setting missing contract addresses", settingContract)
	}
	return v, nil
}

// CreateSafeTransaction builds a token-approval transaction for the given
// amount, hashes and signs it with the proposer key, and submits it to the
// transaction service. It never retries the submission: a second proposal
// under a fresh nonce would be a second spendable transaction. Cancellation
// is honored up to the submission, not after.
func (s *MultisigService) CreateSafeTransaction(ctx context.Context, amount string) (*safe.TransactionHandle, error) {
	amt, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	contracts, err := s.contracts(ctx)
	if err != nil {
		return nil, err
	}
	safeAddr, err := s.safeAddress(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	decimals, err := s.chain.TokenDecimals(ctx, contracts.Token.Address)
	metrics.ObserveGateway("token_decimals", start, err)
	if err != nil {
		return nil, err
	}

	value := amt.Shift(decimals).BigInt()
	data, err := safe.EncodeApprove(contracts.Project.Address, value)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	info, err := s.gateway.GetSafeInfo(ctx, safeAddr)
	metrics.ObserveGateway("get_safe_info", start, err)
	if err != nil {
		return nil, err
	}

	tx := safe.NewApprovalTx(contracts.Token.Address, data, info.Nonce)
	hash, err := tx.Hash(s.chainID, safeAddr)
	if err != nil {
		return nil, err
	}
	hashHex := "0x" + hex.EncodeToString(hash)

	signature, err := s.signer.Sign(hash)
	if err != nil {
		return nil, err
	}
	sender := s.signer.Address()

	start = time.Now()
	err = s.gateway.ProposeTransaction(ctx, safe.Proposal{
		SafeAddress: safeAddr,
		Tx:          tx,
		SafeTxHash:  hashHex,
		Sender:      sender,
		Signature:   signature,
	})
	metrics.ObserveGateway("propose_transaction", start, err)
	if err != nil {
		slog.Error("propose transaction failed", "safe", safeAddr, "safe_tx_hash", hashHex, "error", err)
		return nil, err
	}

	slog.Info("Safe transaction proposed",
		"safe", safeAddr,
		"safe_tx_hash", hashHex,
		"nonce", tx.Nonce,
		"amount", amount,
	)
	return &safe.TransactionHandle{
		SafeAddress: safeAddr,
		To:          tx.To,
		Value:       tx.ValueString(),
		Data:        tx.DataHex(),
		Operation:   tx.Operation,
		Nonce:       tx.Nonce,
		SafeTxHash:  hashHex,
		Sender:      sender,
		Signature:   signature,
	}, nil
}

// OwnersInfo is the wallet's owner set together with its balances. The
// token balance comes from a direct contract read, independent of the
// transaction service.
type OwnersInfo struct {
	safe.SafeInfo
	NativeBalance string `json:"nativeBalance"`
	TokenBalance  string `json:"tokenBalance"`
}

// GetOwnersList returns the wallet's owners, native balance and token
// balance.
func (s *MultisigService) GetOwnersList(ctx context.Context) (*OwnersInfo, error) {
	safeAddr, err := s.safeAddress(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contracts(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	info, err := s.gateway.GetSafeInfo(ctx, safeAddr)
	metrics.ObserveGateway("get_safe_info", start, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	native, err := s.chain.NativeBalance(ctx, safeAddr)
	metrics.ObserveGateway("native_balance", start, err)
	if err != nil {
		return nil, err
	}

	tokenBalance, err := s.tokenBalance(ctx, contracts.Token.Address, safeAddr)
	if err != nil {
		return nil, err
	}

	return &OwnersInfo{
		SafeInfo:      *info,
		NativeBalance: decimal.NewFromBigInt(native, -18).String(),
		TokenBalance:  tokenBalance.String(),
	}, nil
}

// tokenBalance reads the token balance and scales it by the token's
// decimals.
func (s *MultisigService) tokenBalance(ctx context.Context, tokenAddr, holder string) (decimal.Decimal, error) {
	start := time.Now()
	decimals, err := s.chain.TokenDecimals(ctx, tokenAddr)
	metrics.ObserveGateway("token_decimals", start, err)
	if err != nil {
		return decimal.Zero, err
	}
	start = time.Now()
	raw, err := s.chain.TokenBalance(ctx, tokenAddr, holder)
	metrics.ObserveGateway("token_balance", start, err)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(raw, -decimals), nil
}

// GetSafeTransaction is a read-through to the transaction service. No
// caching: approval state must always be current.
func (s *MultisigService) GetSafeTransaction(ctx context.Context, safeTxHash string) (*safe.MultisigTransaction, error) {
	start := time.Now()
	tx, err := s.gateway.GetTransaction(ctx, safeTxHash)
	metrics.ObserveGateway("get_transaction", start, err)
	return tx, err
}

// GetSafePendingTransactions lists the wallet's not-yet-executed
// transactions.
func (s *MultisigService) GetSafePendingTransactions(ctx context.Context) (*safe.PendingTransactions, error) {
	safeAddr, err := s.safeAddress(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	page, err := s.gateway.GetPendingTransactions(ctx, safeAddr)
	metrics.ObserveGateway("get_pending_transactions", start, err)
	return page, err
}

// Approval is one owner's entry in the approvals view. Owners who have not
// signed appear with HasApproved=false and a nil submission date.
type Approval struct {
	Owner          string  `json:"owner"`
	HasApproved    bool    `json:"hasApproved"`
	SubmissionDate *string `json:"submissionDate"`
	Signature      string  `json:"signature,omitempty"`
	SignatureType  string  `json:"signatureType,omitempty"`
}

// ApprovalsView is the complete per-owner approval state of one
// transaction.
type ApprovalsView struct {
	Approvals             []Approval `json:"approvals"`
	ConfirmationsRequired int        `json:"confirmationsRequired"`
	IsExecuted            bool       `json:"isExecuted"`
	Proposer              string     `json:"proposer"`
	ApprovalsCount        int        `json:"approvalsCount"`
}

// GetTransactionApprovals joins the wallet's owner set with the
// transaction's confirmations. Every owner appears exactly once; who has
// NOT signed matters as much as who has. If either gateway read fails the
// whole aggregation fails: a partial owner/confirmation cross-reference is
// worse than none.
func (s *MultisigService) GetTransactionApprovals(ctx context.Context, safeTxHash string) (*ApprovalsView, error) {
	safeAddr, err := s.safeAddress(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	info, err := s.gateway.GetSafeInfo(ctx, safeAddr)
	metrics.ObserveGateway("get_safe_info", start, err)
	if err != nil {
		return nil, err
	}

	tx, err := s.GetSafeTransaction(ctx, safeTxHash)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string]safe.Confirmation, len(tx.Confirmations))
	for _, c := range tx.Confirmations {
		byOwner[c.Owner] = c
	}

	approvals := make([]Approval, 0, len(info.Owners))
	for _, owner := range info.Owners {
		a := Approval{Owner: owner}
		if c, ok := byOwner[owner]; ok {
			a.HasApproved = true
			a.Signature = c.Signature
			a.SignatureType = c.SignatureType
			if c.SubmissionDate != "" {
				date := c.SubmissionDate
				a.SubmissionDate = &date
			}
		}
		approvals = append(approvals, a)
	}

	return &ApprovalsView{
		Approvals:             approvals,
		ConfirmationsRequired: tx.ConfirmationsRequired,
		IsExecuted:            tx.IsExecuted,
		Proposer:              tx.Proposer,
		ApprovalsCount:        len(tx.Confirmations),
	}, nil
}

// BalanceChart compares the wallet's live token balance against the sum of
// every recorded disbursement amount. Advisory only: drift is reported,
// never blocked on.
type BalanceChart struct {
	SafeBalance        string `json:"safeBalance"`
	DisbursementAmount string `json:"disbursementAmount"`
	Drift              string `json:"drift"`
}

// GetDisbursementSafeBalanceChart produces the balance/ledger drift figure
// for dashboards.
func (s *MultisigService) GetDisbursementSafeBalanceChart(ctx context.Context) (*BalanceChart, error) {
	safeAddr, err := s.safeAddress(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contracts(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.tokenBalance(ctx, contracts.Token.Address, safeAddr)
	if err != nil {
		return nil, err
	}

	recorded, err := s.store.SumDisbursementAmounts(ctx)
	if err != nil {
		return nil, err
	}

	drift := balance.Sub(recorded)
	if drift.IsNegative() {
		slog.Warn("wallet balance below recorded disbursement total",
			"safe", safeAddr,
			"balance", balance.String(),
			"recorded", recorded.String(),
		)
	}
	return &BalanceChart{
		SafeBalance:        balance.String(),
		DisbursementAmount: recorded.String(),
		Drift:              drift.String(),
	}, nil
}
