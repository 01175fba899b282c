package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// BeneficiaryInput is one caller-supplied entry of an INDIVIDUAL
// disbursement request.
type BeneficiaryInput struct {
	WalletAddress   string `json:"walletAddress"`
	Amount          string `json:"amount"`
	From            string `json:"from"`
	TransactionHash string `json:"transactionHash"`
}

// CreateDisbursementRequest is the ledger's create input.
type CreateDisbursementRequest struct {
	Amount          string                    `json:"amount"`
	Status          models.DisbursementStatus `json:"status"`
	Type            models.DisbursementType   `json:"type"`
	TargetType      models.TargetType         `json:"disbursementType"`
	From            string                    `json:"from"`
	TransactionHash string                    `json:"transactionHash"`
	Timestamp       string                    `json:"timestamp"`
	Details         string                    `json:"details"`

	// Beneficiaries is required for INDIVIDUAL targets and must be empty
	// for GROUP targets.
	Beneficiaries []BeneficiaryInput `json:"beneficiaries"`

	// GroupUUID is required for GROUP targets and must be empty for
	// INDIVIDUAL targets.
	GroupUUID string `json:"beneficiaryGroup"`
}

// resolvedTargets is the concrete fan-out of a disbursement request:
// the canonical amount plus exactly one of (beneficiary rows, group row).
type resolvedTargets struct {
	amount string
	bens   []models.DisbursementBeneficiary
	group  *models.DisbursementGroup
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errs.Wrapf(errs.ErrInvalidInput, "bad amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, errs.Wrapf(errs.ErrInvalidInput, "negative amount %q", s)
	}
	return d, nil
}

// resolveTargets expands a disbursement request into the rows to persist.
//
// INDIVIDUAL: the caller's list passes through; the canonical amount is the
// decimal sum of the entries. GROUP: the group must exist with at least one
// member; the single group row carries the disbursement-level amount
// unchanged. Per-member division happens only at read time, against the
// group's size at that moment.
func resolveTargets(ctx context.Context, store storage.Store, req CreateDisbursementRequest) (resolvedTargets, error) {
	switch req.TargetType {
	case models.TargetIndividual:
		if req.GroupUUID != "" {
			return resolvedTargets{}, errs.Wrap(errs.ErrInvalidInput, "beneficiaryGroup must be empty when targetType is INDIVIDUAL")
		}
		if len(req.Beneficiaries) == 0 {
			return resolvedTargets{}, errs.Wrap(errs.ErrInvalidInput, "beneficiaries array is required when targetType is INDIVIDUAL")
		}
		sum := decimal.Zero
		bens := make([]models.DisbursementBeneficiary, 0, len(req.Beneficiaries))
		for _, in := range req.Beneficiaries {
			if in.WalletAddress == "" {
				return resolvedTargets{}, errs.Wrap(errs.ErrInvalidInput, "beneficiary entry missing wallet address")
			}
			amt, err := parseAmount(in.Amount)
			if err != nil {
				return resolvedTargets{}, err
			}
			sum = sum.Add(amt)
			from := in.From
			if from == "" {
				from = req.From
			}
			hash := in.TransactionHash
			if hash == "" {
				hash = req.TransactionHash
			}
			bens = append(bens, models.DisbursementBeneficiary{
				WalletAddress:   in.WalletAddress,
				Amount:          in.Amount,
				From:            from,
				TransactionHash: hash,
			})
		}
		return resolvedTargets{amount: sum.String(), bens: bens}, nil

	case models.TargetGroup:
		if len(req.Beneficiaries) != 0 {
			return resolvedTargets{}, errs.Wrap(errs.ErrInvalidInput, "beneficiaries must be empty when targetType is GROUP")
		}
		if req.GroupUUID == "" {
			return resolvedTargets{}, errs.Wrap(errs.ErrInvalidInput, "beneficiaryGroup is required when targetType is GROUP")
		}
		if _, err := parseAmount(req.Amount); err != nil {
			return resolvedTargets{}, err
		}
		group, err := store.GetBeneficiaryGroup(ctx, req.GroupUUID)
		if err != nil {
			// An unknown group is a request problem, not a lookup problem.
			return resolvedTargets{}, errs.Wrapf(errs.ErrInvalidInput, "unknown beneficiary group %s", req.GroupUUID)
		}
		if len(group.Members) == 0 {
			return resolvedTargets{}, errs.Wrapf(errs.ErrInvalidInput, "beneficiary group %s has no members", req.GroupUUID)
		}
		return resolvedTargets{
			amount: req.Amount,
			group: &models.DisbursementGroup{
				GroupUUID:       req.GroupUUID,
				Amount:          req.Amount,
				From:            req.From,
				TransactionHash: req.TransactionHash,
			},
		}, nil

	default:
		return resolvedTargets{}, errs.Wrapf(errs.ErrInvalidInput, "unknown target type %q", req.TargetType)
	}
}

// memberShare divides a group-level amount by the member count, rounded to
// 18 places so equal shares stay exact for token-scale amounts.
func memberShare(amount string, members int) string {
	if members <= 0 {
		return "0"
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "0"
	}
	return d.DivRound(decimal.NewFromInt(int64(members)), 18).String()
}
