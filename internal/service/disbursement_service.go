package service

import (
	"context"
	"log/slog"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/events"
	"github.com/rahat-c2c/disburse/internal/metrics"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/storage"
)

// Notifier delivers best-effort notifications to the external comms
// service. Failures are logged by callers, never propagated.
type Notifier interface {
	DisbursementCompleted(ctx context.Context, walletAddress, amount string) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) DisbursementCompleted(context.Context, string, string) error { return nil }

// DisbursementService owns the disbursement ledger: create, read, list and
// update of disbursements and their fan-out rows.
type DisbursementService struct {
	store    storage.Store
	emitter  *events.Emitter
	notifier Notifier
}

// NewDisbursementService creates the ledger service.
func NewDisbursementService(store storage.Store, emitter *events.Emitter, notifier Notifier) *DisbursementService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &DisbursementService{store: store, emitter: emitter, notifier: notifier}
}

// Create validates and persists a disbursement with its fan-out rows in one
// transaction, then emits a created event. The event is fire-and-forget.
func (s *DisbursementService) Create(ctx context.Context, req CreateDisbursementRequest) (*models.Disbursement, error) {
	if !req.Status.Valid() {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "unknown status %q", req.Status)
	}
	if !req.Type.Valid() {
		return nil, errs.Wrapf(errs.ErrInvalidInput, "unknown disbursement type %q", req.Type)
	}

	resolved, err := resolveTargets(ctx, s.store, req)
	if err != nil {
		return nil, err
	}

	d := &models.Disbursement{
		Amount:          resolved.amount,
		Status:          req.Status,
		TargetType:      req.TargetType,
		Type:            req.Type,
		TransactionHash: req.TransactionHash,
		Details:         req.Details,
		Timestamp:       req.Timestamp,
	}
	if err := s.store.CreateDisbursement(ctx, d, resolved.bens, resolved.group); err != nil {
		slog.Error("CreateDisbursement failed", "error", err)
		return nil, err
	}

	metrics.DisbursementsCreated.WithLabelValues(string(d.TargetType)).Inc()
	s.emitter.Emit(events.DisbursementCreated, d.UUID)

	slog.Info("Disbursement created",
		"uuid", d.UUID,
		"target_type", d.TargetType,
		"amount", d.Amount,
		"beneficiaries", len(resolved.bens),
	)
	return d, nil
}

// BeneficiaryView is one beneficiary entry of a disbursement detail. For
// group disbursements the amount is the derived per-member share.
type BeneficiaryView struct {
	ID              int64  `json:"id"`
	WalletAddress   string `json:"walletAddress"`
	Amount          string `json:"amount"`
	From            string `json:"from,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
}

// DisbursementDetail is the denormalized single-disbursement view.
type DisbursementDetail struct {
	models.Disbursement
	Beneficiaries []BeneficiaryView `json:"beneficiaries"`
}

// Get returns the denormalized view of one disbursement: its own
// beneficiary rows, or the linked group's current members with derived
// shares when no individual rows exist.
func (s *DisbursementService) Get(ctx context.Context, uid string) (*DisbursementDetail, error) {
	d, err := s.store.GetDisbursement(ctx, uid)
	if err != nil {
		return nil, err
	}

	detail := &DisbursementDetail{Disbursement: *d}

	bens, err := s.store.BeneficiariesOf(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if len(bens) > 0 {
		for _, b := range bens {
			detail.Beneficiaries = append(detail.Beneficiaries, BeneficiaryView{
				ID:              b.ID,
				WalletAddress:   b.WalletAddress,
				Amount:          b.Amount,
				From:            b.From,
				TransactionHash: b.TransactionHash,
				CreatedAt:       b.CreatedAt,
				UpdatedAt:       b.UpdatedAt,
			})
		}
		return detail, nil
	}

	groups, err := s.store.GroupsOf(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return detail, nil
	}

	// Membership is resolved now, not at write time: the view always
	// reflects the group's current size.
	group, err := s.store.GetBeneficiaryGroup(ctx, groups[0].GroupUUID)
	if err != nil {
		return nil, err
	}
	share := memberShare(groups[0].Amount, len(group.Members))
	for _, addr := range group.Members {
		detail.Beneficiaries = append(detail.Beneficiaries, BeneficiaryView{
			WalletAddress: addr,
			Amount:        share,
			From:          groups[0].From,
			CreatedAt:     groups[0].CreatedAt,
			UpdatedAt:     groups[0].UpdatedAt,
		})
	}
	return detail, nil
}

// ListMeta describes one page of a list result.
type ListMeta struct {
	Total    int `json:"total"`
	Page     int `json:"currentPage"`
	PerPage  int `json:"perPage"`
	LastPage int `json:"lastPage"`
}

// DisbursementList is one page of annotated disbursements.
type DisbursementList struct {
	Data []storage.DisbursementListItem `json:"data"`
	Meta ListMeta                       `json:"meta"`
}

// List returns a page of disbursements, newest first with id as tie-break,
// annotated with fan-out totals.
func (s *DisbursementService) List(ctx context.Context, page storage.Page) (*DisbursementList, error) {
	page = page.Normalize()
	items, total, err := s.store.ListDisbursements(ctx, page)
	if err != nil {
		slog.Error("ListDisbursements failed", "error", err)
		return nil, err
	}
	return &DisbursementList{
		Data: items,
		Meta: newListMeta(total, page),
	}, nil
}

// UpdateDisbursementRequest is the ledger's partial-update input.
type UpdateDisbursementRequest struct {
	ID              int64                      `json:"id"`
	Status          *models.DisbursementStatus `json:"status"`
	Amount          *string                    `json:"amount"`
	TransactionHash *string                    `json:"transactionHash"`
	Details         *string                    `json:"details"`
}

// Update applies a partial update. Status moves only forwards; completing a
// MULTISIG disbursement triggers a best-effort completion notification.
// Completion is caller-declared: execution state is never read back from
// the gateway here.
func (s *DisbursementService) Update(ctx context.Context, req UpdateDisbursementRequest) (*models.Disbursement, error) {
	current, err := s.store.GetDisbursementByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, errs.Wrapf(errs.ErrInvalidInput, "unknown status %q", *req.Status)
		}
		if !current.Status.CanTransitionTo(*req.Status) {
			return nil, errs.Wrapf(errs.ErrState, "cannot move status %s -> %s", current.Status, *req.Status)
		}
	}
	if req.Amount != nil {
		if _, err := parseAmount(*req.Amount); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateDisbursement(ctx, req.ID, storage.DisbursementPatch{
		Status:          req.Status,
		Amount:          req.Amount,
		TransactionHash: req.TransactionHash,
		Details:         req.Details,
	})
	if err != nil {
		slog.Error("UpdateDisbursement failed", "id", req.ID, "error", err)
		return nil, err
	}

	if updated.Type == models.TypeMultisig && updated.Status == models.StatusCompleted && current.Status != models.StatusCompleted {
		s.notifyCompleted(ctx, updated)
		s.emitter.Emit(events.DisbursementCompleted, updated.UUID)
	}
	return updated, nil
}

// notifyCompleted sends the completion notification with the representative
// beneficiary wallet. Failures are logged, never surfaced.
func (s *DisbursementService) notifyCompleted(ctx context.Context, d *models.Disbursement) {
	ben, err := s.store.FirstBeneficiaryOf(ctx, d.ID)
	if err != nil {
		slog.Warn("no representative beneficiary for completed disbursement", "uuid", d.UUID, "error", err)
		return
	}
	if err := s.notifier.DisbursementCompleted(ctx, ben.WalletAddress, d.Amount); err != nil {
		slog.Warn("completion notification failed", "uuid", d.UUID, "error", err)
	}
}

// TransactionList is one page of per-beneficiary rows for a disbursement.
type TransactionList struct {
	Data []models.DisbursementBeneficiary `json:"data"`
	Meta ListMeta                         `json:"meta"`
}

// ListTransactions returns a disbursement's beneficiary rows, newest first.
func (s *DisbursementService) ListTransactions(ctx context.Context, disbursementUUID string, page storage.Page) (*TransactionList, error) {
	return s.listTransactions(ctx, disbursementUUID, false, page)
}

// ListApprovedTransactions returns beneficiary rows of the disbursement if
// it has reached COMPLETED; an empty page otherwise.
func (s *DisbursementService) ListApprovedTransactions(ctx context.Context, disbursementUUID string, page storage.Page) (*TransactionList, error) {
	return s.listTransactions(ctx, disbursementUUID, true, page)
}

func (s *DisbursementService) listTransactions(ctx context.Context, disbursementUUID string, onlyCompleted bool, page storage.Page) (*TransactionList, error) {
	page = page.Normalize()
	rows, total, err := s.store.ListDisbursementBeneficiaries(ctx, disbursementUUID, onlyCompleted, page)
	if err != nil {
		return nil, err
	}
	return &TransactionList{
		Data: rows,
		Meta: newListMeta(total, page),
	}, nil
}

func newListMeta(total int, page storage.Page) ListMeta {
	lastPage := total / page.PerPage
	if total%page.PerPage != 0 {
		lastPage++
	}
	if lastPage < 1 {
		lastPage = 1
	}
	return ListMeta{
		Total:    total,
		Page:     page.Page,
		PerPage:  page.PerPage,
		LastPage: lastPage,
	}
}
