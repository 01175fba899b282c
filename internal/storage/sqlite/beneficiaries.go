package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahat-c2c/disburse/internal/errs"
	"github.com/rahat-c2c/disburse/internal/models"
)

// CreateBeneficiary registers a wallet row.
func (s *SQLiteStore) CreateBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	if b.UUID == "" {
		b.UUID = uuid.New().String()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO beneficiaries (uuid, wallet_address, verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		b.UUID, b.WalletAddress, b.Verified, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.Wrapf(errs.ErrDuplicate, "beneficiary %s already registered", b.WalletAddress)
	}
	if err != nil {
		return fmt.Errorf("failed to insert beneficiary: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read beneficiary id: %w", err)
	}
	return nil
}

// GetBeneficiaryByWallet looks a beneficiary up by wallet address.
func (s *SQLiteStore) GetBeneficiaryByWallet(ctx context.Context, walletAddress string) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, uuid, wallet_address, verified, created_at, updated_at FROM beneficiaries WHERE wallet_address = ?",
		walletAddress).Scan(&b.ID, &b.UUID, &b.WalletAddress, &b.Verified, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "beneficiary %s", walletAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}
	return b, nil
}

// VerifyWallet marks a wallet as holder-confirmed.
func (s *SQLiteStore) VerifyWallet(ctx context.Context, walletAddress string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE beneficiaries SET verified = 1, updated_at = ? WHERE wallet_address = ?",
		time.Now().Unix(), walletAddress)
	if err != nil {
		return fmt.Errorf("failed to verify wallet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return errs.Wrapf(errs.ErrNotFound, "beneficiary %s", walletAddress)
	}
	return nil
}

// CountBeneficiaries counts registered beneficiaries.
func (s *SQLiteStore) CountBeneficiaries(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM beneficiaries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count beneficiaries: %w", err)
	}
	return n, nil
}

// CreateBeneficiaryGroup mirrors a directory group and its membership.
// Group and membership rows are written in one transaction.
func (s *SQLiteStore) CreateBeneficiaryGroup(ctx context.Context, g *models.BeneficiaryGroup, memberUUIDs []string) error {
	if g.UUID == "" {
		g.UUID = uuid.New().String()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO beneficiary_groups (uuid, name, created_at) VALUES (?, ?, ?)",
		g.UUID, g.Name, g.CreatedAt)
	if isUniqueViolation(err) {
		return errs.Wrapf(errs.ErrDuplicate, "beneficiary group %s already exists", g.UUID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert beneficiary group: %w", err)
	}

	for _, member := range memberUUIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO grouped_beneficiaries (group_uuid, beneficiary_uuid) VALUES (?, ?)",
			g.UUID, member)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBeneficiaryGroup loads a group with its current member wallet addresses.
func (s *SQLiteStore) GetBeneficiaryGroup(ctx context.Context, uid string) (*models.BeneficiaryGroup, error) {
	g := &models.BeneficiaryGroup{}
	err := s.db.QueryRowContext(ctx,
		"SELECT uuid, name, created_at FROM beneficiary_groups WHERE uuid = ?", uid).
		Scan(&g.UUID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrapf(errs.ErrNotFound, "beneficiary group %s", uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get beneficiary group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT b.wallet_address FROM grouped_beneficiaries gb
		 JOIN beneficiaries b ON b.uuid = gb.beneficiary_uuid
		 WHERE gb.group_uuid = ? ORDER BY b.id`,
		uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		g.Members = append(g.Members, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return g, nil
}

// SumGroupDisbursements totals the fan-out amounts recorded against one group.
func (s *SQLiteStore) SumGroupDisbursements(ctx context.Context, groupUUID string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT amount FROM disbursement_groups WHERE group_uuid = ?", groupUUID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query group disbursements: %w", err)
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
			continue
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}
