package models

import "fmt"

// DisbursementStatus is the lifecycle state of a disbursement.
type DisbursementStatus string

const (
	StatusDraft     DisbursementStatus = "DRAFT"
	StatusPending   DisbursementStatus = "PENDING"
	StatusCompleted DisbursementStatus = "COMPLETED"
	StatusFailed    DisbursementStatus = "FAILED"
)

// statusRank orders statuses for the monotonic-advance rule.
// DRAFT -> PENDING -> {COMPLETED | FAILED}; terminal states share a rank.
var statusRank = map[DisbursementStatus]int{
	StatusDraft:     0,
	StatusPending:   1,
	StatusCompleted: 2,
	StatusFailed:    2,
}

// Valid reports whether s is a known status.
func (s DisbursementStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether a status change from s to next is allowed.
// A status never moves backwards and terminal states never change.
func (s DisbursementStatus) CanTransitionTo(next DisbursementStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if s == next {
		return true
	}
	if from >= 2 {
		return false
	}
	return to > from
}

// TargetType selects how a disbursement fans out to beneficiaries.
type TargetType string

const (
	TargetIndividual TargetType = "INDIVIDUAL"
	TargetGroup      TargetType = "GROUP"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	return t == TargetIndividual || t == TargetGroup
}

// DisbursementType distinguishes the execution channel.
type DisbursementType string

const (
	TypeMultisig DisbursementType = "MULTISIG"
	TypeProject  DisbursementType = "PROJECT"
)

// Valid reports whether t is a known disbursement type.
func (t DisbursementType) Valid() bool {
	return t == TypeMultisig || t == TypeProject
}

// Disbursement is a recorded fund-transfer intent.
//
// For INDIVIDUAL disbursements Amount equals the decimal sum of the linked
// beneficiary rows. For GROUP disbursements Amount is the explicit group
// amount; per-member shares are derived at read time from the group's
// current size and never persisted.
type Disbursement struct {
	// ID is the database sequence id.
	ID int64 `json:"id"`

	// UUID is the external identifier (UUID format).
	UUID string `json:"uuid"`

	// Amount is the canonical total as a decimal string.
	Amount string `json:"amount"`

	// Status is the lifecycle state. It advances monotonically.
	Status DisbursementStatus `json:"status"`

	// TargetType is INDIVIDUAL or GROUP.
	TargetType TargetType `json:"disbursementType"`

	// Type is MULTISIG or PROJECT.
	Type DisbursementType `json:"type"`

	// TransactionHash references the custodial transaction, when one exists.
	TransactionHash string `json:"transactionHash"`

	// Details is free text describing the purpose.
	Details string `json:"details"`

	// Timestamp is a caller-supplied string carried through unchanged.
	Timestamp string `json:"timestamp"`

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Validate checks the enum fields.
func (d *Disbursement) Validate() error {
	if !d.Status.Valid() {
		return fmt.Errorf("unknown status %q", d.Status)
	}
	if !d.TargetType.Valid() {
		return fmt.Errorf("unknown target type %q", d.TargetType)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("unknown disbursement type %q", d.Type)
	}
	return nil
}

// DisbursementBeneficiary links one disbursement to one beneficiary wallet.
// Unique on (DisbursementID, WalletAddress); created only for INDIVIDUAL
// disbursements.
type DisbursementBeneficiary struct {
	ID int64 `json:"id"`

	// DisbursementID is the parent disbursement's sequence id.
	DisbursementID int64 `json:"disbursementId"`

	// WalletAddress is the beneficiary's wallet address.
	WalletAddress string `json:"walletAddress"`

	// Amount is this beneficiary's share as a decimal string.
	Amount string `json:"amount"`

	// From is the source address for the transfer.
	From string `json:"from"`

	// TransactionHash references the on-chain transfer, when known.
	TransactionHash string `json:"transactionHash"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// DisbursementGroup links one disbursement to one beneficiary group.
// Unique on (DisbursementID, GroupUUID); created only for GROUP
// disbursements. Amount is the disbursement-level amount, not a per-member
// share.
type DisbursementGroup struct {
	ID int64 `json:"id"`

	DisbursementID int64 `json:"disbursementId"`

	// GroupUUID references the beneficiary group.
	GroupUUID string `json:"groupUuid"`

	Amount          string `json:"amount"`
	From            string `json:"from"`
	TransactionHash string `json:"transactionHash"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}
