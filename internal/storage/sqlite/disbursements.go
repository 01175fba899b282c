package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
	"github.com/rahat-c2c/disburse/internal/storage"
)

const disbursementColumns = "id, uuid, amount, status, target_type, type, transaction_hash, details, timestamp, created_at, updated_at"

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisbursement(r rowScanner) (*models.Disbursement, error) {
	d := &models.Disbursement{}
	err := r.Scan(&d.ID, &d.UUID, &d.Amount, &d.Status, &d.TargetType, &d.Type,
		&d.TransactionHash, &d.Details, &d.Timestamp, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDisbursement persists the disbursement and its fan-out rows in one
// transaction. Child rows are upserts on their composite keys, so a retried
// create updates amount/hash instead of duplicating, and a mid-fan-out
// failure rolls the parent back too.
func (s *SQLiteStore) CreateDisbursement(ctx context.Context, d *models.Disbursement, bens []models.DisbursementBeneficiary, group *models.DisbursementGroup) error {
	if d.UUID == "" {
		d.UUID = uuid.New().String()
	}
	now := time.Now().Unix()
	if d.CreatedAt == 0 {
		d.CreatedAt = now
	}
	d.UpdatedAt = d.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO disbursements (uuid, amount, status, target_type, type, transaction_hash, details, timestamp, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UUID, d.Amount, d.Status, d.TargetType, d.Type, d.TransactionHash, d.Details, d.Timestamp, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert disbursement: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read disbursement id: %w", err)
	}

	for i := range bens {
		ben := &bens[i]
		ben.DisbursementID = d.ID
		if ben.CreatedAt == 0 {
			ben.CreatedAt = now
		}
		ben.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO disbursement_beneficiaries (disbursement_id, wallet_address, amount, from_address, transaction_hash, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (disbursement_id, wallet_address) DO UPDATE SET
			   amount = excluded.amount,
			   from_address = excluded.from_address,
			   transaction_hash = excluded.transaction_hash,
			   updated_at = excluded.updated_at`,
			ben.DisbursementID, ben.WalletAddress, ben.Amount, ben.From, ben.TransactionHash, ben.CreatedAt, ben.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert disbursement beneficiary: %w", err)
		}
	}

	if group != nil {
		group.DisbursementID = d.ID
		if group.CreatedAt == 0 {
			group.CreatedAt = now
		}
		group.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO disbursement_groups (disbursement_id, group_uuid, amount, from_address, transaction_hash, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (disbursement_id, group_uuid) DO UPDATE SET
			   amount = excluded.amount,
			   from_address = excluded.from_address,
			   transaction_hash = excluded.transaction_hash,
			   updated_at = excluded.updated_at`,
			group.DisbursementID, group.GroupUUID, group.Amount, group.From, group.TransactionHash, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert disbursement group: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDisbursement retrieves a disbursement by uuid.
func (s *SQLiteStore) GetDisbursement(ctx context.Context, uid string) (*models.Disbursement, error) {
	d, err := scanDisbursement(s.db.QueryRowContext(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE uuid = ?", uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "disbursement %s", uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disbursement: %w", err)
	}
	return d, nil
}

// GetDisbursementByID retrieves a disbursement by sequence id.
func (s *SQLiteStore) GetDisbursementByID(ctx context.Context, id int64) (*models.Disbursement, error) {
	d, err := scanDisbursement(s.db.QueryRowContext(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "disbursement id %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disbursement: %w", err)
	}
	return d, nil
}

// UpdateDisbursement applies a partial update and returns the updated row.
func (s *SQLiteStore) UpdateDisbursement(ctx context.Context, id int64, patch storage.DisbursementPatch) (*models.Disbursement, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.TransactionHash != nil {
		sets = append(sets, "transaction_hash = ?")
		args = append(args, *patch.TransactionHash)
	}
	if patch.Details != nil {
		sets = append(sets, "details = ?")
		args = append(args, *patch.Details)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE disbursements SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update disbursement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, errs.Wrapf(errs.ErrNotFound, "disbursement id %d", id)
	}
	return s.GetDisbursementByID(ctx, id)
}

// ListDisbursements returns a page ordered by created_at descending, id
// descending on ties, each row annotated with fan-out totals.
func (s *SQLiteStore) ListDisbursements(ctx context.Context, page storage.Page) ([]storage.DisbursementListItem, int, error) {
	page = page.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM disbursements").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count disbursements: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list disbursements: %w", err)
	}
	defer rows.Close()

	var items []storage.DisbursementListItem
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		items = append(items, storage.DisbursementListItem{Disbursement: *d})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate disbursements: %w", err)
	}

	for i := range items {
		item := &items[i]

		benRows, err := s.db.QueryContext(ctx,
			"SELECT wallet_address FROM disbursement_beneficiaries WHERE disbursement_id = ? ORDER BY id",
			item.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list beneficiary addresses: %w", err)
		}
		for benRows.Next() {
			var addr string
			if err := benRows.Scan(&addr); err != nil {
				benRows.Close()
				return nil, 0, fmt.Errorf("failed to scan beneficiary address: %w", err)
			}
			item.BeneficiaryAddresses = append(item.BeneficiaryAddresses, addr)
		}
		benRows.Close()
		if err := benRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("failed to iterate beneficiary addresses: %w", err)
		}
		item.TotalBeneficiaries = len(item.BeneficiaryAddresses)

		// Linked groups contribute their current membership counts.
		var groupTotal int
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM grouped_beneficiaries gb
			 WHERE gb.group_uuid IN (SELECT group_uuid FROM disbursement_groups WHERE disbursement_id = ?)`,
			item.ID).Scan(&groupTotal)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count group members: %w", err)
		}
		item.TotalBeneficiaries += groupTotal
	}

	return items, total, nil
}

const benColumns = "id, disbursement_id, wallet_address, amount, from_address, transaction_hash, created_at, updated_at"

func scanBeneficiaryRow(r rowScanner) (*models.DisbursementBeneficiary, error) {
	b := &models.DisbursementBeneficiary{}
	err := r.Scan(&b.ID, &b.DisbursementID, &b.WalletAddress, &b.Amount, &b.From,
		&b.TransactionHash, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListDisbursementBeneficiaries returns beneficiary rows of one disbursement,
// newest first, optionally restricted to COMPLETED parents.
func (s *SQLiteStore) ListDisbursementBeneficiaries(ctx context.Context, disbursementUUID string, onlyCompleted bool, page storage.Page) ([]models.DisbursementBeneficiary, int, error) {
	page = page.Normalize()

	where := "d.uuid = ?"
	args := []any{disbursementUUID}
	if onlyCompleted {
		where += " AND d.status = ?"
		args = append(args, models.StatusCompleted)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM disbursement_beneficiaries db JOIN disbursements d ON d.id = db.disbursement_id WHERE "+where,
		args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count disbursement beneficiaries: %w", err)
	}

	args = append(args, page.PerPage, page.Offset())
	rows, err := s.db.QueryContext(ctx,
		`SELECT db.id, db.disbursement_id, db.wallet_address, db.amount, db.from_address, db.transaction_hash, db.created_at, db.updated_at
		 FROM disbursement_beneficiaries db
		 JOIN disbursements d ON d.id = db.disbursement_id
		 WHERE `+where+`
		 ORDER BY db.created_at DESC, db.id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list disbursement beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []models.DisbursementBeneficiary
	for rows.Next() {
		b, err := scanBeneficiaryRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan disbursement beneficiary: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate disbursement beneficiaries: %w", err)
	}
	return out, total, nil
}

// BeneficiariesOf returns all beneficiary fan-out rows of a disbursement.
func (s *SQLiteStore) BeneficiariesOf(ctx context.Context, disbursementID int64) ([]models.DisbursementBeneficiary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+benColumns+" FROM disbursement_beneficiaries WHERE disbursement_id = ? ORDER BY id",
		disbursementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []models.DisbursementBeneficiary
	for rows.Next() {
		b, err := scanBeneficiaryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// GroupsOf returns all group fan-out rows of a disbursement.
func (s *SQLiteStore) GroupsOf(ctx context.Context, disbursementID int64) ([]models.DisbursementGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, disbursement_id, group_uuid, amount, from_address, transaction_hash, created_at, updated_at
		 FROM disbursement_groups WHERE disbursement_id = ? ORDER BY id`,
		disbursementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursement groups: %w", err)
	}
	defer rows.Close()

	var out []models.DisbursementGroup
	for rows.Next() {
		var g models.DisbursementGroup
		err := rows.Scan(&g.ID, &g.DisbursementID, &g.GroupUUID, &g.Amount, &g.From,
			&g.TransactionHash, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disbursement group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// FirstBeneficiaryOf returns the representative beneficiary row of a
// disbursement.
func (s *SQLiteStore) FirstBeneficiaryOf(ctx context.Context, disbursementID int64) (*models.DisbursementBeneficiary, error) {
	b, err := scanBeneficiaryRow(s.db.QueryRowContext(ctx,
		"SELECT "+benColumns+" FROM disbursement_beneficiaries WHERE disbursement_id = ? ORDER BY id LIMIT 1",
		disbursementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "no beneficiary rows for disbursement id %d", disbursementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first beneficiary: %w", err)
	}
	return b, nil
}

// SumDisbursementAmounts totals every recorded amount regardless of status.
func (s *SQLiteStore) SumDisbursementAmounts(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT amount FROM disbursements")
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			// Unparseable rows count as zero, matching the upstream ledger.
			continue
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

// CountDisbursementsByType groups disbursement counts by type.
func (s *SQLiteStore) CountDisbursementsByType(ctx context.Context) (map[models.DisbursementType]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT type, COUNT(id) FROM disbursements GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count disbursements by type: %w", err)
	}
	defer rows.Close()

	out := make(map[models.DisbursementType]int64)
	for rows.Next() {
		var t models.DisbursementType
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		out[t] = n
	}
	return out, rows.Err()
}

// IndividualRowsForWallet returns every fan-out row for one wallet across all
// disbursements, newest first with id as tie-break.
func (s *SQLiteStore) IndividualRowsForWallet(ctx context.Context, walletAddress string) ([]models.DisbursementBeneficiary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+benColumns+" FROM disbursement_beneficiaries WHERE wallet_address = ? ORDER BY created_at DESC, id DESC",
		walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows for wallet: %w", err)
	}
	defer rows.Close()

	var out []models.DisbursementBeneficiary
	for rows.Next() {
		b, err := scanBeneficiaryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row for wallet: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// GroupSharesForWallet returns the group fan-out rows of every group the
// wallet currently belongs to, each annotated with the group's current size.
func (s *SQLiteStore) GroupSharesForWallet(ctx context.Context, walletAddress string) ([]storage.GroupShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dg.id, dg.group_uuid, dg.amount, dg.transaction_hash, dg.created_at,
		        (SELECT COUNT(*) FROM grouped_beneficiaries g2 WHERE g2.group_uuid = dg.group_uuid)
		 FROM disbursement_groups dg
		 WHERE dg.group_uuid IN (
		   SELECT gb.group_uuid FROM grouped_beneficiaries gb
		   JOIN beneficiaries b ON b.uuid = gb.beneficiary_uuid
		   WHERE b.wallet_address = ?)
		 ORDER BY dg.created_at DESC, dg.id DESC`,
		walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list group shares: %w", err)
	}
	defer rows.Close()

	var out []storage.GroupShare
	for rows.Next() {
		var gs storage.GroupShare
		if err := rows.Scan(&gs.RowID, &gs.GroupUUID, &gs.Amount, &gs.TransactionHash, &gs.CreatedAt, &gs.GroupSize); err != nil {
			return nil, fmt.Errorf("failed to scan group share: %w", err)
		}
		out = append(out, gs)
	}
	return out, rows.Err()
}
