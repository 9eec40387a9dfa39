package types

import "time"

// ClaimStatus enumerates the lifecycle states of an insurance claim
type ClaimStatus string

const (
	StatusSubmitted   ClaimStatus = "Submitted"
	StatusUnderReview ClaimStatus = "UnderReview"
	StatusApproved    ClaimStatus = "Approved"
	StatusRejected    ClaimStatus = "Rejected"
	StatusPaid        ClaimStatus = "Paid"
)

// ParseClaimStatus converts a transaction argument into a ClaimStatus
func ParseClaimStatus(s string) (ClaimStatus, error) {
	switch ClaimStatus(s) {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPaid:
		return ClaimStatus(s), nil
	}
	return "", NewInvalidArgument("unknown claim status: " + s)
}

// PatientRecord holds the directory entry an insurer maintains for a patient.
// Re-registration overwrites the previous record without any guard.
type PatientRecord struct {
	Registered     bool   `json:"registered"`
	Name           string `json:"name"`
	PolicyNumber   string `json:"policy_number"`
	CoverageAmount uint64 `json:"coverage_amount"`
	Active         bool   `json:"active"`
}

// Claim is an append-only claim record. Status is the only field that changes
// after creation; claims are never deleted.
type Claim struct {
	ID          uint64      `json:"id"`
	PatientID   string      `json:"patient_id"`
	ProviderID  string      `json:"provider_id"`
	Amount      uint64      `json:"amount"`
	Treatment   string      `json:"treatment"`
	Status      ClaimStatus `json:"status"`
	SubmittedAt time.Time   `json:"submitted_at"`
	DocumentRef string      `json:"document_ref"`
}

// VerificationRecord is the per-claim verification checklist. Each verify
// operation overwrites the record for its claim identifier; no history is
// retained.
type VerificationRecord struct {
	ClaimID     uint64    `json:"claim_id"`
	DocumentsOK bool      `json:"documents_ok"`
	AmountOK    bool      `json:"amount_ok"`
	TreatmentOK bool      `json:"treatment_ok"`
	Notes       string    `json:"notes"`
	VerifierID  string    `json:"verifier_id"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// RoleGrant records an administrator granting a privileged role
type RoleGrant struct {
	Identity  string    `json:"identity"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}
