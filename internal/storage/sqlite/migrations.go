package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amount columns are TEXT: amounts are decimal strings end to end and are
// summed with shopspring/decimal, never as floats.
const schema = `
CREATE TABLE IF NOT EXISTS disbursements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    target_type TEXT NOT NULL,
    type TEXT NOT NULL,
    transaction_hash TEXT NOT NULL DEFAULT '',
    details TEXT NOT NULL DEFAULT '',
    timestamp TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS disbursement_beneficiaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    disbursement_id INTEGER NOT NULL,
    wallet_address TEXT NOT NULL,
    amount TEXT NOT NULL,
    from_address TEXT NOT NULL DEFAULT '',
    transaction_hash TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (disbursement_id, wallet_address),
    FOREIGN KEY (disbursement_id) REFERENCES disbursements(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS disbursement_groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    disbursement_id INTEGER NOT NULL,
    group_uuid TEXT NOT NULL,
    amount TEXT NOT NULL,
    from_address TEXT NOT NULL DEFAULT '',
    transaction_hash TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (disbursement_id, group_uuid),
    FOREIGN KEY (disbursement_id) REFERENCES disbursements(id) ON DELETE CASCADE,
    FOREIGN KEY (group_uuid) REFERENCES beneficiary_groups(uuid)
);

CREATE TABLE IF NOT EXISTS beneficiaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    wallet_address TEXT NOT NULL UNIQUE,
    verified INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS beneficiary_groups (
    uuid TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS grouped_beneficiaries (
    group_uuid TEXT NOT NULL,
    beneficiary_uuid TEXT NOT NULL,
    PRIMARY KEY (group_uuid, beneficiary_uuid),
    FOREIGN KEY (group_uuid) REFERENCES beneficiary_groups(uuid) ON DELETE CASCADE,
    FOREIGN KEY (beneficiary_uuid) REFERENCES beneficiaries(uuid) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_disb_ben_disbursement_id ON disbursement_beneficiaries(disbursement_id);
CREATE INDEX IF NOT EXISTS idx_disb_ben_wallet ON disbursement_beneficiaries(wallet_address);
CREATE INDEX IF NOT EXISTS idx_disb_group_disbursement_id ON disbursement_groups(disbursement_id);
CREATE INDEX IF NOT EXISTS idx_disb_group_group_uuid ON disbursement_groups(group_uuid);
CREATE INDEX IF NOT EXISTS idx_grouped_ben_beneficiary ON grouped_beneficiaries(beneficiary_uuid);
CREATE INDEX IF NOT EXISTS idx_disbursements_created_at ON disbursements(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
