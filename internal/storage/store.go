// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/models"
)

// Page selects a window of a list result.
type Page struct {
	// Page is 1-based; zero means the first page.
	Page int
	// PerPage is the window size; zero means DefaultPerPage.
	PerPage int
}

// DefaultPerPage matches the upstream pagination default.
const DefaultPerPage = 20

// Normalize fills in defaults.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// Offset returns the SQL offset for the normalized page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// DisbursementPatch is a partial update of a disbursement's mutable fields.
// Nil fields are left untouched.
type DisbursementPatch struct {
	Status          *models.DisbursementStatus
	Amount          *string
	TransactionHash *string
	Details         *string
}

// DisbursementListItem is one row of the paginated disbursement list,
// annotated with fan-out totals.
type DisbursementListItem struct {
	models.Disbursement

	// TotalBeneficiaries counts the disbursement's own beneficiary rows
	// plus the sizes of all linked groups.
	TotalBeneficiaries int `json:"totalBeneficiaries"`

	// BeneficiaryAddresses is the flattened list of wallet addresses from
	// the disbursement's own beneficiary rows.
	BeneficiaryAddresses []string `json:"beneficiaryAddresses"`
}

// GroupShare is one (group, disbursement) row seen from a member's
// perspective, carrying the group size needed to derive the member's share.
type GroupShare struct {
	RowID           int64
	GroupUUID       string
	GroupSize       int
	Amount          string
	TransactionHash string
	CreatedAt       int64
}

// Store defines the persistence contract for the disbursement ledger.
// The sqlite implementation is the only one in-tree; the interface keeps the
// service layer independent of the backend.
type Store interface {
	// CreateDisbursement persists a disbursement together with its fan-out
	// rows in a single transaction. Exactly one of bens/group is non-empty,
	// matching the disbursement's target type. Child writes are upserts on
	// their composite keys, so retried creates are idempotent.
	CreateDisbursement(ctx context.Context, d *models.Disbursement, bens []models.DisbursementBeneficiary, group *models.DisbursementGroup) error

	// GetDisbursement retrieves a disbursement by uuid.
	GetDisbursement(ctx context.Context, uuid string) (*models.Disbursement, error)

	// GetDisbursementByID retrieves a disbursement by sequence id.
	GetDisbursementByID(ctx context.Context, id int64) (*models.Disbursement, error)

	// UpdateDisbursement applies a partial update and returns the updated
	// row. Status regressions are rejected by the service layer, not here.
	UpdateDisbursement(ctx context.Context, id int64, patch DisbursementPatch) (*models.Disbursement, error)

	// ListDisbursements returns a page ordered by created_at descending with
	// id descending as the tie-break, plus the total row count.
	ListDisbursements(ctx context.Context, page Page) ([]DisbursementListItem, int, error)

	// ListDisbursementBeneficiaries returns the beneficiary rows of one
	// disbursement, newest first. When onlyCompleted is set, rows are
	// returned only if the parent disbursement is COMPLETED.
	ListDisbursementBeneficiaries(ctx context.Context, disbursementUUID string, onlyCompleted bool, page Page) ([]models.DisbursementBeneficiary, int, error)

	// BeneficiariesOf returns all beneficiary fan-out rows of a disbursement.
	BeneficiariesOf(ctx context.Context, disbursementID int64) ([]models.DisbursementBeneficiary, error)

	// GroupsOf returns all group fan-out rows of a disbursement.
	GroupsOf(ctx context.Context, disbursementID int64) ([]models.DisbursementGroup, error)

	// FirstBeneficiaryOf returns the representative (lowest id) beneficiary
	// row of a disbursement, or ErrNotFound.
	FirstBeneficiaryOf(ctx context.Context, disbursementID int64) (*models.DisbursementBeneficiary, error)

	// SumDisbursementAmounts totals every recorded disbursement amount,
	// regardless of status.
	SumDisbursementAmounts(ctx context.Context) (decimal.Decimal, error)

	// CountDisbursementsByType groups disbursement counts by type.
	CountDisbursementsByType(ctx context.Context) (map[models.DisbursementType]int64, error)

	// CreateBeneficiary registers a wallet row.
	CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error

	// GetBeneficiaryByWallet looks a beneficiary up by wallet address.
	GetBeneficiaryByWallet(ctx context.Context, walletAddress string) (*models.Beneficiary, error)

	// VerifyWallet marks a wallet as holder-confirmed.
	VerifyWallet(ctx context.Context, walletAddress string) error

	// CountBeneficiaries counts registered beneficiaries.
	CountBeneficiaries(ctx context.Context) (int64, error)

	// IndividualRowsForWallet returns every beneficiary fan-out row for one
	// wallet across all disbursements.
	IndividualRowsForWallet(ctx context.Context, walletAddress string) ([]models.DisbursementBeneficiary, error)

	// GroupSharesForWallet returns every group fan-out row of every group the
	// wallet currently belongs to, annotated with current group sizes.
	GroupSharesForWallet(ctx context.Context, walletAddress string) ([]GroupShare, error)

	// CreateBeneficiaryGroup mirrors a directory group and its membership.
	CreateBeneficiaryGroup(ctx context.Context, g *models.BeneficiaryGroup, memberUUIDs []string) error

	// GetBeneficiaryGroup loads a group with its current member wallet
	// addresses.
	GetBeneficiaryGroup(ctx context.Context, uuid string) (*models.BeneficiaryGroup, error)

	// SumGroupDisbursements totals the group fan-out amounts recorded
	// against one group.
	SumGroupDisbursements(ctx context.Context, groupUUID string) (decimal.Decimal, error)

	// GetSetting returns the JSON value stored under name.
	GetSetting(ctx context.Context, name string) (json.RawMessage, error)

	// PutSetting stores a JSON value under name, replacing any previous one.
	PutSetting(ctx context.Context, name string, value json.RawMessage) error

	// UpsertStat writes a named stat row, replacing any previous payload.
	UpsertStat(ctx context.Context, s *models.Stat) error

	// GetStat returns a stat row by name.
	GetStat(ctx context.Context, name string) (*models.Stat, error)

	// ListStats returns all stat rows.
	ListStats(ctx context.Context) ([]models.Stat, error)

	// Close releases any resources held by the store.
	Close() error
}
