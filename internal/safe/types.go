// Package safe is the gateway to the custodial multisig wallet: a typed
// client for the Safe transaction service, a minimal JSON-RPC reader for
// chain state, and the hashing/signing needed to propose transactions.
//
// The gateway holds no local cache. Approval and execution state always
// reflect the service's current view, since staleness directly affects
// financial decisions.
package safe

// SafeInfo is the wallet's configuration as reported by the transaction
// service: the owner set and the M-of-N threshold.
type SafeInfo struct {
	Address   string   `json:"address"`
	Nonce     int64    `json:"nonce"`
	Threshold int      `json:"threshold"`
	Owners    []string `json:"owners"`
	Version   string   `json:"version"`
}

// Confirmation is one owner's signature on a multisig transaction.
type Confirmation struct {
	Owner          string `json:"owner"`
	SubmissionDate string `json:"submissionDate"`
	Signature      string `json:"signature"`
	SignatureType  string `json:"signatureType"`
}

// MultisigTransaction is a custodial transaction held by the service,
// together with its approval state.
type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 string         `json:"value"`
	Data                  string         `json:"data"`
	Operation             int            `json:"operation"`
	Nonce                 int64          `json:"nonce"`
	SafeTxHash            string         `json:"safeTxHash"`
	SubmissionDate        string         `json:"submissionDate"`
	ExecutionDate         string         `json:"executionDate"`
	TransactionHash       string         `json:"transactionHash"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	ConfirmationsRequired int            `json:"confirmationsRequired"`
	Proposer              string         `json:"proposer"`
	Confirmations         []Confirmation `json:"confirmations"`
}

// PendingTransactions is a page of not-yet-executed transactions.
type PendingTransactions struct {
	Count   int                   `json:"count"`
	Results []MultisigTransaction `json:"results"`
}

// Proposal is the payload submitted to the transaction service when
// proposing a new multisig transaction.
type Proposal struct {
	SafeAddress string
	Tx          SafeTx
	SafeTxHash  string
	Sender      string
	Signature   string
}

// TransactionHandle is what a successful proposal returns to the caller:
// everything needed to reference and co-sign the transaction.
type TransactionHandle struct {
	SafeAddress string `json:"safeAddress"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Data        string `json:"data"`
	Operation   int    `json:"operation"`
	Nonce       int64  `json:"nonce"`
	SafeTxHash  string `json:"safeTxHash"`
	Sender      string `json:"senderAddress"`
	Signature   string `json:"senderSignature"`
}
