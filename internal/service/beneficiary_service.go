package service

import (
	"context"
	"log/slog"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// BeneficiaryService maintains the ledger's mirror of the beneficiary
// directory: wallet rows and group membership. Only wallets live here;
// identity data stays in the external directory.
type BeneficiaryService struct {
	store storage.Store
}

// NewBeneficiaryService creates the beneficiary mirror service.
func NewBeneficiaryService(store storage.Store) *BeneficiaryService {
	return &BeneficiaryService{store: store}
}

// RegisterBeneficiaryRequest registers one wallet in the mirror.
type RegisterBeneficiaryRequest struct {
	UUID          string `json:"uuid"`
	WalletAddress string `json:"walletAddress"`
}

// Register records a beneficiary wallet. Re-registering the same wallet
// returns ErrDuplicate.
func (s *BeneficiaryService) Register(ctx context.Context, req RegisterBeneficiaryRequest) (*models.Beneficiary, error) {
	if req.WalletAddress == "" {
		return nil, errs.Wrap(errs.ErrInvalidInput, "walletAddress is required")
	}
	b := &models.Beneficiary{
		UUID:          req.UUID,
		WalletAddress: req.WalletAddress,
	}
	if err := s.store.CreateBeneficiary(ctx, b); err != nil {
		return nil, err
	}
	slog.Info("beneficiary registered", "uuid", b.UUID, "wallet", b.WalletAddress)
	return b, nil
}

// Get looks a beneficiary up by wallet address.
func (s *BeneficiaryService) Get(ctx context.Context, walletAddress string) (*models.Beneficiary, error) {
	if walletAddress == "" {
		return nil, errs.Wrap(errs.ErrInvalidInput, "walletAddress is required")
	}
	return s.store.GetBeneficiaryByWallet(ctx, walletAddress)
}

// VerifyWallet marks a wallet as holder-confirmed. Verifying an already
// verified wallet is a no-op.
func (s *BeneficiaryService) VerifyWallet(ctx context.Context, walletAddress string) error {
	if walletAddress == "" {
		return errs.Wrap(errs.ErrInvalidInput, "walletAddress is required")
	}
	if err := s.store.VerifyWallet(ctx, walletAddress); err != nil {
		return err
	}
	slog.Info("wallet verified", "wallet", walletAddress)
	return nil
}

// CreateGroupRequest mirrors a directory group with its membership.
type CreateGroupRequest struct {
	UUID    string   `json:"uuid"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateGroup mirrors a beneficiary group. Member UUIDs must already be
// registered; unknown members fail the whole create.
func (s *BeneficiaryService) CreateGroup(ctx context.Context, req CreateGroupRequest) (*models.BeneficiaryGroup, error) {
	if req.UUID == "" {
		return nil, errs.Wrap(errs.ErrInvalidInput, "group uuid is required")
	}
	if req.Name == "" {
		return nil, errs.Wrap(errs.ErrInvalidInput, "group name is required")
	}
	g := &models.BeneficiaryGroup{
		UUID: req.UUID,
		Name: req.Name,
	}
	if err := s.store.CreateBeneficiaryGroup(ctx, g, req.Members); err != nil {
		return nil, err
	}
	slog.Info("beneficiary group mirrored", "uuid", g.UUID, "name", g.Name, "members", len(req.Members))
	return g, nil
}

// GroupView is a group with its recorded disbursement total.
type GroupView struct {
	models.BeneficiaryGroup
	TotalDisbursed string `json:"totalDisbursed"`
}

// GetGroup loads a group with current members and the total amount
// disbursed to it.
func (s *BeneficiaryService) GetGroup(ctx context.Context, uuid string) (*GroupView, error) {
	g, err := s.store.GetBeneficiaryGroup(ctx, uuid)
	if err != nil {
		return nil, err
	}
	total, err := s.store.SumGroupDisbursements(ctx, uuid)
	if err != nil {
		return nil, err
	}
	return &GroupView{
		BeneficiaryGroup: *g,
		TotalDisbursed:   total.String(),
	}, nil
}
