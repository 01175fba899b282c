package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateDisbursement_Individual(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := &models.Disbursement{
		Amount:     "30",
		Status:     models.StatusPending,
		TargetType: models.TargetIndividual,
		Type:       models.TypeMultisig,
	}
	bens := []models.DisbursementBeneficiary{
		{WalletAddress: "0xaaa", Amount: "10"},
		{WalletAddress: "0xbbb", Amount: "20"},
	}
	if err := store.CreateDisbursement(ctx, d, bens, nil); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	if d.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if d.UUID == "" {
		t.Error("expected generated UUID")
	}
	if d.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}

	got, err := store.GetDisbursement(ctx, d.UUID)
	if err != nil {
		t.Fatalf("GetDisbursement failed: %v", err)
	}
	if got.Amount != "30" {
		t.Errorf("amount: expected '30', got '%s'", got.Amount)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status: expected PENDING, got %s", got.Status)
	}

	rows, err := store.BeneficiariesOf(ctx, d.ID)
	if err != nil {
		t.Fatalf("BeneficiariesOf failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 beneficiary rows, got %d", len(rows))
	}
	if rows[0].WalletAddress != "0xaaa" || rows[1].WalletAddress != "0xbbb" {
		t.Errorf("unexpected row order: %s, %s", rows[0].WalletAddress, rows[1].WalletAddress)
	}
}

func TestCreateDisbursement_UpsertsDuplicateWallet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := &models.Disbursement{
		Amount:     "15",
		Status:     models.StatusDraft,
		TargetType: models.TargetIndividual,
		Type:       models.TypeMultisig,
	}
	// The same wallet twice collapses onto one row with the later values.
	bens := []models.DisbursementBeneficiary{
		{WalletAddress: "0xaaa", Amount: "5"},
		{WalletAddress: "0xaaa", Amount: "15", TransactionHash: "0xdead"},
	}
	if err := store.CreateDisbursement(ctx, d, bens, nil); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	rows, err := store.BeneficiariesOf(ctx, d.ID)
	if err != nil {
		t.Fatalf("BeneficiariesOf failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(rows))
	}
	if rows[0].Amount != "15" {
		t.Errorf("amount: expected '15', got '%s'", rows[0].Amount)
	}
	if rows[0].TransactionHash != "0xdead" {
		t.Errorf("transaction hash: expected '0xdead', got '%s'", rows[0].TransactionHash)
	}
}

func TestCreateDisbursement_Group(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := &models.BeneficiaryGroup{UUID: "group-1", Name: "Ward 1"}
	if err := store.CreateBeneficiaryGroup(ctx, g, nil); err != nil {
		t.Fatalf("CreateBeneficiaryGroup failed: %v", err)
	}

	d := &models.Disbursement{
		Amount:     "100",
		Status:     models.StatusPending,
		TargetType: models.TargetGroup,
		Type:       models.TypeMultisig,
	}
	group := &models.DisbursementGroup{GroupUUID: "group-1", Amount: "100"}
	if err := store.CreateDisbursement(ctx, d, nil, group); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	groups, err := store.GroupsOf(ctx, d.ID)
	if err != nil {
		t.Fatalf("GroupsOf failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group row, got %d", len(groups))
	}
	// The stored amount is the undivided group amount.
	if groups[0].Amount != "100" {
		t.Errorf("group amount: expected '100', got '%s'", groups[0].Amount)
	}
}

func TestGetDisbursement_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDisbursement(context.Background(), "nonexistent")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDisbursement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := &models.Disbursement{
		Amount:     "10",
		Status:     models.StatusPending,
		TargetType: models.TargetIndividual,
		Type:       models.TypeMultisig,
	}
	if err := store.CreateDisbursement(ctx, d, []models.DisbursementBeneficiary{{WalletAddress: "0xaaa", Amount: "10"}}, nil); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	status := models.StatusCompleted
	hash := "0xfeed"
	updated, err := store.UpdateDisbursement(ctx, d.ID, storage.DisbursementPatch{
		Status:          &status,
		TransactionHash: &hash,
	})
	if err != nil {
		t.Fatalf("UpdateDisbursement failed: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("status: expected COMPLETED, got %s", updated.Status)
	}
	if updated.TransactionHash != "0xfeed" {
		t.Errorf("transaction hash: expected '0xfeed', got '%s'", updated.TransactionHash)
	}
	// Untouched fields survive.
	if updated.Amount != "10" {
		t.Errorf("amount: expected '10', got '%s'", updated.Amount)
	}
}

func TestUpdateDisbursement_NotFound(t *testing.T) {
	store := newTestStore(t)

	status := models.StatusCompleted
	_, err := store.UpdateDisbursement(context.Background(), 999, storage.DisbursementPatch{Status: &status})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListDisbursements_OrderAndAnnotation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var uuids []string
	for i := 0; i < 3; i++ {
		d := &models.Disbursement{
			Amount:     "10",
			Status:     models.StatusPending,
			TargetType: models.TargetIndividual,
			Type:       models.TypeMultisig,
		}
		bens := []models.DisbursementBeneficiary{{WalletAddress: "0xaaa", Amount: "10"}}
		if err := store.CreateDisbursement(ctx, d, bens, nil); err != nil {
			t.Fatalf("CreateDisbursement failed: %v", err)
		}
		uuids = append(uuids, d.UUID)
	}

	items, total, err := store.ListDisbursements(ctx, storage.Page{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListDisbursements failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total: expected 3, got %d", total)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	// Newest first; equal timestamps fall back to id descending.
	if items[0].UUID != uuids[2] || items[2].UUID != uuids[0] {
		t.Errorf("unexpected order: got %s first, %s last", items[0].UUID, items[2].UUID)
	}
	if items[0].TotalBeneficiaries != 1 {
		t.Errorf("total beneficiaries: expected 1, got %d", items[0].TotalBeneficiaries)
	}
	if len(items[0].BeneficiaryAddresses) != 1 || items[0].BeneficiaryAddresses[0] != "0xaaa" {
		t.Errorf("unexpected beneficiary addresses: %v", items[0].BeneficiaryAddresses)
	}
}

func TestListDisbursements_GroupMembersCounted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, wallet := range []string{"0xaaa", "0xbbb", "0xccc"} {
		b := &models.Beneficiary{UUID: string(rune('a' + i)), WalletAddress: wallet}
		if err := store.CreateBeneficiary(ctx, b); err != nil {
			t.Fatalf("CreateBeneficiary failed: %v", err)
		}
	}
	g := &models.BeneficiaryGroup{UUID: "group-1", Name: "Ward 3"}
	if err := store.CreateBeneficiaryGroup(ctx, g, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("CreateBeneficiaryGroup failed: %v", err)
	}

	d := &models.Disbursement{
		Amount:     "90",
		Status:     models.StatusPending,
		TargetType: models.TargetGroup,
		Type:       models.TypeMultisig,
	}
	if err := store.CreateDisbursement(ctx, d, nil, &models.DisbursementGroup{GroupUUID: "group-1", Amount: "90"}); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	items, _, err := store.ListDisbursements(ctx, storage.Page{})
	if err != nil {
		t.Fatalf("ListDisbursements failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].TotalBeneficiaries != 3 {
		t.Errorf("total beneficiaries: expected 3 (group size), got %d", items[0].TotalBeneficiaries)
	}
}

func TestListDisbursementBeneficiaries_OnlyCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := &models.Disbursement{
		Amount:     "10",
		Status:     models.StatusPending,
		TargetType: models.TargetIndividual,
		Type:       models.TypeMultisig,
	}
	bens := []models.DisbursementBeneficiary{{WalletAddress: "0xaaa", Amount: "10"}}
	if err := store.CreateDisbursement(ctx, d, bens, nil); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	rows, total, err := store.ListDisbursementBeneficiaries(ctx, d.UUID, true, storage.Page{})
	if err != nil {
		t.Fatalf("ListDisbursementBeneficiaries failed: %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Errorf("expected no rows for a PENDING parent, got %d", len(rows))
	}

	status := models.StatusCompleted
	if _, err := store.UpdateDisbursement(ctx, d.ID, storage.DisbursementPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateDisbursement failed: %v", err)
	}

	rows, total, err = store.ListDisbursementBeneficiaries(ctx, d.UUID, true, storage.Page{})
	if err != nil {
		t.Fatalf("ListDisbursementBeneficiaries failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected 1 row for a COMPLETED parent, got %d", len(rows))
	}
}

func TestSumDisbursementAmounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, amount := range []string{"10.5", "20", "0.25"} {
		d := &models.Disbursement{
			Amount:     amount,
			Status:     models.StatusPending,
			TargetType: models.TargetIndividual,
			Type:       models.TypeMultisig,
		}
		if err := store.CreateDisbursement(ctx, d, []models.DisbursementBeneficiary{{WalletAddress: "0xaaa", Amount: amount}}, nil); err != nil {
			t.Fatalf("CreateDisbursement failed: %v", err)
		}
	}

	sum, err := store.SumDisbursementAmounts(ctx)
	if err != nil {
		t.Fatalf("SumDisbursementAmounts failed: %v", err)
	}
	if sum.String() != "30.75" {
		t.Errorf("sum: expected '30.75', got '%s'", sum.String())
	}
}

func TestCountDisbursementsByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	types := []models.DisbursementType{models.TypeMultisig, models.TypeMultisig, models.TypeProject}
	for _, typ := range types {
		d := &models.Disbursement{
			Amount:     "1",
			Status:     models.StatusPending,
			TargetType: models.TargetIndividual,
			Type:       typ,
		}
		if err := store.CreateDisbursement(ctx, d, []models.DisbursementBeneficiary{{WalletAddress: "0xaaa", Amount: "1"}}, nil); err != nil {
			t.Fatalf("CreateDisbursement failed: %v", err)
		}
	}

	counts, err := store.CountDisbursementsByType(ctx)
	if err != nil {
		t.Fatalf("CountDisbursementsByType failed: %v", err)
	}
	if counts[models.TypeMultisig] != 2 {
		t.Errorf("MULTISIG count: expected 2, got %d", counts[models.TypeMultisig])
	}
	if counts[models.TypeProject] != 1 {
		t.Errorf("PROJECT count: expected 1, got %d", counts[models.TypeProject])
	}
}

func TestBeneficiaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &models.Beneficiary{WalletAddress: "0xaaa"}
	if err := store.CreateBeneficiary(ctx, b); err != nil {
		t.Fatalf("CreateBeneficiary failed: %v", err)
	}
	if b.UUID == "" {
		t.Error("expected generated UUID")
	}

	// The wallet address is unique.
	err := store.CreateBeneficiary(ctx, &models.Beneficiary{WalletAddress: "0xaaa"})
	if !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := store.GetBeneficiaryByWallet(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetBeneficiaryByWallet failed: %v", err)
	}
	if got.Verified {
		t.Error("expected unverified wallet")
	}

	if err := store.VerifyWallet(ctx, "0xaaa"); err != nil {
		t.Fatalf("VerifyWallet failed: %v", err)
	}
	got, err = store.GetBeneficiaryByWallet(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetBeneficiaryByWallet failed: %v", err)
	}
	if !got.Verified {
		t.Error("expected verified wallet")
	}

	if err := store.VerifyWallet(ctx, "0xmissing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := store.CountBeneficiaries(ctx)
	if err != nil {
		t.Fatalf("CountBeneficiaries failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count: expected 1, got %d", n)
	}
}

func TestBeneficiaryGroup_Members(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, b := range []models.Beneficiary{
		{UUID: "u1", WalletAddress: "0xaaa"},
		{UUID: "u2", WalletAddress: "0xbbb"},
	} {
		ben := b
		if err := store.CreateBeneficiary(ctx, &ben); err != nil {
			t.Fatalf("CreateBeneficiary failed: %v", err)
		}
	}

	g := &models.BeneficiaryGroup{UUID: "g1", Name: "Ward 5"}
	if err := store.CreateBeneficiaryGroup(ctx, g, []string{"u1", "u2"}); err != nil {
		t.Fatalf("CreateBeneficiaryGroup failed: %v", err)
	}

	got, err := store.GetBeneficiaryGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("GetBeneficiaryGroup failed: %v", err)
	}
	if got.Name != "Ward 5" {
		t.Errorf("name: expected 'Ward 5', got '%s'", got.Name)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(got.Members))
	}
	if got.Members[0] != "0xaaa" || got.Members[1] != "0xbbb" {
		t.Errorf("unexpected members: %v", got.Members)
	}

	_, err = store.GetBeneficiaryGroup(ctx, "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupSharesForWallet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, b := range []models.Beneficiary{
		{UUID: "u1", WalletAddress: "0xaaa"},
		{UUID: "u2", WalletAddress: "0xbbb"},
	} {
		ben := b
		if err := store.CreateBeneficiary(ctx, &ben); err != nil {
			t.Fatalf("CreateBeneficiary failed: %v", err)
		}
	}
	g := &models.BeneficiaryGroup{UUID: "g1", Name: "Ward 5"}
	if err := store.CreateBeneficiaryGroup(ctx, g, []string{"u1", "u2"}); err != nil {
		t.Fatalf("CreateBeneficiaryGroup failed: %v", err)
	}

	d := &models.Disbursement{
		Amount:     "100",
		Status:     models.StatusCompleted,
		TargetType: models.TargetGroup,
		Type:       models.TypeMultisig,
	}
	if err := store.CreateDisbursement(ctx, d, nil, &models.DisbursementGroup{GroupUUID: "g1", Amount: "100", TransactionHash: "0xabc"}); err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}

	shares, err := store.GroupSharesForWallet(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GroupSharesForWallet failed: %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(shares))
	}
	if shares[0].Amount != "100" {
		t.Errorf("amount: expected undivided '100', got '%s'", shares[0].Amount)
	}
	if shares[0].GroupSize != 2 {
		t.Errorf("group size: expected 2, got %d", shares[0].GroupSize)
	}
	if shares[0].TransactionHash != "0xabc" {
		t.Errorf("transaction hash: expected '0xabc', got '%s'", shares[0].TransactionHash)
	}

	shares, err = store.GroupSharesForWallet(ctx, "0xunknown")
	if err != nil {
		t.Fatalf("GroupSharesForWallet failed: %v", err)
	}
	if len(shares) != 0 {
		t.Errorf("expected no shares for unknown wallet, got %d", len(shares))
	}
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutSetting(ctx, "SAFE_WALLET", json.RawMessage(`{"ADDRESS":"0xsafe"}`)); err != nil {
		t.Fatalf("PutSetting failed: %v", err)
	}

	raw, err := store.GetSetting(ctx, "SAFE_WALLET")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	var v struct {
		Address string `json:"ADDRESS"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal setting: %v", err)
	}
	if v.Address != "0xsafe" {
		t.Errorf("address: expected '0xsafe', got '%s'", v.Address)
	}

	// Replace in place.
	if err := store.PutSetting(ctx, "SAFE_WALLET", json.RawMessage(`{"ADDRESS":"0xother"}`)); err != nil {
		t.Fatalf("PutSetting replace failed: %v", err)
	}
	raw, _ = store.GetSetting(ctx, "SAFE_WALLET")
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal setting: %v", err)
	}
	if v.Address != "0xother" {
		t.Errorf("address after replace: expected '0xother', got '%s'", v.Address)
	}

	if err := store.PutSetting(ctx, "BROKEN", json.RawMessage(`{not json`)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for invalid JSON, got %v", err)
	}

	if _, err := store.GetSetting(ctx, "MISSING"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := &models.Stat{Name: "BENEFICIARY_TOTAL", Data: []byte(`{"count":5}`)}
	if err := store.UpsertStat(ctx, st); err != nil {
		t.Fatalf("UpsertStat failed: %v", err)
	}
	if st.UpdatedAt == 0 {
		t.Error("expected non-zero UpdatedAt")
	}

	st.Data = []byte(`{"count":6}`)
	if err := store.UpsertStat(ctx, st); err != nil {
		t.Fatalf("UpsertStat replace failed: %v", err)
	}

	got, err := store.GetStat(ctx, "BENEFICIARY_TOTAL")
	if err != nil {
		t.Fatalf("GetStat failed: %v", err)
	}
	if string(got.Data) != `{"count":6}` {
		t.Errorf("data: expected replaced payload, got %s", got.Data)
	}

	all, err := store.ListStats(ctx)
	if err != nil {
		t.Fatalf("ListStats failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 stat row, got %d", len(all))
	}
}
