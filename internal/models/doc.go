// Package models defines the core domain models for the disbursement ledger.
//
// # Entities
//
//   - Disbursement: a recorded fund-transfer intent, targeting either an
//     explicit beneficiary list (INDIVIDUAL) or a beneficiary group (GROUP)
//   - DisbursementBeneficiary: one (disbursement, wallet) fan-out row
//   - DisbursementGroup: one (disbursement, group) fan-out row
//   - Beneficiary, BeneficiaryGroup: the slice of the beneficiary directory
//     this ledger needs (wallet addresses and group membership)
//
// # Amounts
//
// All amounts are decimal strings. They are never parsed into floats;
// arithmetic goes through shopspring/decimal so financial sums stay exact.
//
// # Design principles
//
//  1. Relationships use ids/uuids instead of pointers to avoid cycles
//  2. Timestamps are Unix seconds except Disbursement.Timestamp, which is a
//     caller-supplied free-form string carried through unchanged
//  3. The custodial transaction itself is never persisted here; only its
//     hash is, as a weak reference into the signing service
package models
