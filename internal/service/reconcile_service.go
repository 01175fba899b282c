package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/metrics"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/safe"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// Stat row names maintained by SaveAllStats.
const (
	statDisbursementTotal = "DISBURSEMENT_TOTAL"
	statBeneficiaryTotal  = "BENEFICIARY_TOTAL"
)

// ReconcileService merges the local ledger with gateway state for
// dashboards and exports. Everything here is advisory: drift and missing
// execution metadata are reported, never fabricated and never blocking.
type ReconcileService struct {
	store   storage.Store
	gateway *safe.Client
}

// NewReconcileService creates the reconciliation/stats service.
func NewReconcileService(store storage.Store, gateway *safe.Client) *ReconcileService {
	return &ReconcileService{store: store, gateway: gateway}
}

// BeneficiaryHistory is one wallet's merged disbursement history.
type BeneficiaryHistory struct {
	WalletAddress string `json:"walletAddress"`

	// TotalDisbursement is the individual-row total when non-zero,
	// otherwise the summed per-member group shares.
	TotalDisbursement string `json:"totalDisbursement"`

	// LastDisbursementAt is the Unix timestamp of the most recent
	// disbursement row, zero when the wallet has none.
	LastDisbursementAt int64 `json:"lastDisbursementAt"`

	// TransactionHash is the hash of the latest-dated row, id as
	// tie-break on equal timestamps.
	TransactionHash string `json:"transactionHash,omitempty"`

	// IsExecuted/ExecutionDate come from the gateway lookup of
	// TransactionHash; nil/empty when the lookup failed or the hash is
	// unknown to the service.
	IsExecuted    *bool  `json:"isExecuted,omitempty"`
	ExecutionDate string `json:"executionDate,omitempty"`
}

// BeneficiaryHistories computes the merged history for each wallet.
//
// Two sources feed each figure: direct individual rows, and group rows
// divided by the group's current size. The individual figure wins when
// present and non-zero. Gateway failures degrade the result (no execution
// metadata) instead of failing the read.
func (s *ReconcileService) BeneficiaryHistories(ctx context.Context, wallets []string) ([]BeneficiaryHistory, error) {
	out := make([]BeneficiaryHistory, 0, len(wallets))
	for _, wallet := range wallets {
		h, err := s.beneficiaryHistory(ctx, wallet)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, nil
}

func (s *ReconcileService) beneficiaryHistory(ctx context.Context, wallet string) (*BeneficiaryHistory, error) {
	individual, err := s.store.IndividualRowsForWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	shares, err := s.store.GroupSharesForWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	individualSum := decimal.Zero
	for _, row := range individual {
		if d, err := decimal.NewFromString(row.Amount); err == nil {
			individualSum = individualSum.Add(d)
		}
	}
	groupSum := decimal.Zero
	for _, share := range shares {
		if share.GroupSize <= 0 {
			continue
		}
		if d, err := decimal.NewFromString(share.Amount); err == nil {
			groupSum = groupSum.Add(d.DivRound(decimal.NewFromInt(int64(share.GroupSize)), 18))
		}
	}

	total := groupSum
	if individualSum.IsPositive() {
		total = individualSum
	}

	h := &BeneficiaryHistory{
		WalletAddress:     wallet,
		TotalDisbursement: total.String(),
	}

	// Latest row across both sources; on equal timestamps the higher row
	// id wins so the result is deterministic.
	var bestID int64 = -1
	for _, row := range individual {
		if row.CreatedAt > h.LastDisbursementAt || (row.CreatedAt == h.LastDisbursementAt && row.ID > bestID) {
			h.LastDisbursementAt = row.CreatedAt
			h.TransactionHash = row.TransactionHash
			bestID = row.ID
		}
	}
	for _, share := range shares {
		if share.CreatedAt > h.LastDisbursementAt || (share.CreatedAt == h.LastDisbursementAt && share.RowID > bestID) {
			h.LastDisbursementAt = share.CreatedAt
			h.TransactionHash = share.TransactionHash
			bestID = share.RowID
		}
	}

	if h.TransactionHash != "" {
		start := time.Now()
		tx, err := s.gateway.GetTransaction(ctx, h.TransactionHash)
		metrics.ObserveGateway("get_transaction", start, err)
		if err != nil {
			slog.Warn("execution metadata lookup failed", "wallet", wallet, "tx_hash", h.TransactionHash, "error", err)
		} else {
			executed := tx.IsExecuted
			h.IsExecuted = &executed
			h.ExecutionDate = tx.ExecutionDate
		}
	}
	return h, nil
}

// TypeCount is a disbursement count for one type.
type TypeCount struct {
	ID    models.DisbursementType `json:"id"`
	Count int64                   `json:"count"`
}

// DisbursementTotals returns disbursement counts grouped by type.
func (s *ReconcileService) DisbursementTotals(ctx context.Context) ([]TypeCount, error) {
	counts, err := s.store.CountDisbursementsByType(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TypeCount, 0, len(counts))
	for _, t := range []models.DisbursementType{models.TypeMultisig, models.TypeProject} {
		if n, ok := counts[t]; ok {
			out = append(out, TypeCount{ID: t, Count: n})
		}
	}
	return out, nil
}

// BeneficiaryTotal returns the registered beneficiary count.
func (s *ReconcileService) BeneficiaryTotal(ctx context.Context) (int64, error) {
	return s.store.CountBeneficiaries(ctx)
}

// SaveAllStats recomputes and upserts the named stat rows.
func (s *ReconcileService) SaveAllStats(ctx context.Context) error {
	totals, err := s.DisbursementTotals(ctx)
	if err != nil {
		return err
	}
	benTotal, err := s.BeneficiaryTotal(ctx)
	if err != nil {
		return err
	}

	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return err
	}
	benJSON, err := json.Marshal(map[string]any{"count": benTotal, "id": "ALL"})
	if err != nil {
		return err
	}

	if err := s.store.UpsertStat(ctx, &models.Stat{Name: statDisbursementTotal, Data: totalsJSON}); err != nil {
		return err
	}
	return s.store.UpsertStat(ctx, &models.Stat{Name: statBeneficiaryTotal, Data: benJSON})
}

// Stats returns all stored stat rows.
func (s *ReconcileService) Stats(ctx context.Context) ([]models.Stat, error) {
	return s.store.ListStats(ctx)
}
