package models

// Beneficiary is the ledger's slice of the beneficiary directory: a wallet
// address and verification flag. Identity and PII live in an external
// service and are never stored here.
type Beneficiary struct {
	ID int64 `json:"id"`

	// UUID is the directory's identifier for this beneficiary.
	UUID string `json:"uuid"`

	// WalletAddress is unique across beneficiaries.
	WalletAddress string `json:"walletAddress"`

	// Verified is set once the wallet has been confirmed by its holder.
	Verified bool `json:"verified"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// BeneficiaryGroup is a named set of beneficiaries, owned by the external
// directory and mirrored here for fan-out and aggregation.
type BeneficiaryGroup struct {
	// UUID is the directory's group identifier.
	UUID string `json:"uuid"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Members are the wallet addresses of current members. Loaded on
	// demand; group disbursement shares always divide by the current size.
	Members []string `json:"members"`

	CreatedAt int64 `json:"createdAt"`
}

// Stat is a named, upserted statistics row (JSON payload).
type Stat struct {
	// Name is the stat key, stored uppercase.
	Name string `json:"name"`

	// Data is the JSON-encoded payload.
	Data []byte `json:"-"`

	UpdatedAt int64 `json:"updatedAt"`
}
