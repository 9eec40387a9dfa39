// Package claims implements the claim lifecycle ledger: the append-only claim
// table and its monotonically increasing identifier counter.
package claims

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/registry"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/audit"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/logger"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/types"
)

const (
	counterKey  = "claim_counter"
	claimPrefix = "claim_"
)

// SmartContract provides functions for managing the claim ledger
type SmartContract struct {
	contractapi.Contract

	registry *registry.SmartContract
	log      *logger.Logger
}

// NewSmartContract creates the claim ledger contract. The access registry
// reference is set here once and never mutated afterwards.
func NewSmartContract(reg *registry.SmartContract, log *logger.Logger) *SmartContract {
	c := &SmartContract{registry: reg, log: log}
	c.Name = "ClaimLedger"
	return c
}

// SubmitClaim appends a new claim for the calling patient. Identifiers are
// dense and gapless across successful submissions: the counter advances in
// the same write set as the claim, so a rejected attempt never consumes one.
func (s *SmartContract) SubmitClaim(ctx contractapi.TransactionContextInterface, amount uint64, treatment, providerID, documentRef string) (*types.Claim, error) {
	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return nil, types.NewInternal("failed to get client identity", err)
	}

	activePatient, err := s.registry.IsActivePatient(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !activePatient {
		return nil, types.NewPermissionDenied(fmt.Sprintf("caller %s is not a registered active patient", caller))
	}

	if amount == 0 {
		return nil, types.NewInvalidArgument("claim amount must be positive")
	}

	isProvider, err := s.registry.IsProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !isProvider {
		return nil, types.NewInvalidArgument(fmt.Sprintf("identity %s is not a registered provider", providerID))
	}

	counter, err := s.counter(ctx)
	if err != nil {
		return nil, err
	}
	claimID := counter + 1

	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return nil, types.NewInternal("failed to get transaction timestamp", err)
	}

	claim := types.Claim{
		ID:          claimID,
		PatientID:   caller,
		ProviderID:  providerID,
		Amount:      amount,
		Treatment:   treatment,
		Status:      types.StatusSubmitted,
		SubmittedAt: ts.AsTime(),
		DocumentRef: documentRef,
	}

	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return nil, types.NewInternal("failed to marshal claim", err)
	}

	if err := ctx.GetStub().PutState(claimKey(claimID), claimJSON); err != nil {
		return nil, types.NewInternal("failed to store claim", err)
	}

	if err := ctx.GetStub().PutState(counterKey, []byte(strconv.FormatUint(claimID, 10))); err != nil {
		return nil, types.NewInternal("failed to advance claim counter", err)
	}

	if err := audit.Append(ctx, audit.EventClaimSubmitted, map[string]interface{}{
		"claim_id":     claimID,
		"patient":      caller,
		"provider":     providerID,
		"amount":       amount,
		"document_ref": documentRef,
	}); err != nil {
		return nil, err
	}

	s.log.WithComponent("ClaimLedger").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithFields(map[string]interface{}{"claim_id": claimID, "amount": amount}).
		Info("claim submitted")

	return &claim, nil
}

// UpdateClaimStatus overwrites the status of an existing claim. Insurer only.
// Submitted is the only forbidden target: it is entered exactly once at
// creation. Every other transition is legal, including out of Paid.
func (s *SmartContract) UpdateClaimStatus(ctx contractapi.TransactionContextInterface, claimID uint64, newStatus string) error {
	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return types.NewInternal("failed to get client identity", err)
	}

	isInsurer, err := s.registry.IsInsurer(ctx, caller)
	if err != nil {
		return err
	}
	if !isInsurer {
		return types.NewPermissionDenied(fmt.Sprintf("caller %s is not an insurer", caller))
	}

	status, err := types.ParseClaimStatus(newStatus)
	if err != nil {
		return err
	}

	counter, err := s.counter(ctx)
	if err != nil {
		return err
	}
	if claimID == 0 || claimID > counter {
		return types.NewInvalidReference(fmt.Sprintf("claim %d does not exist", claimID))
	}

	if status == types.StatusSubmitted {
		return types.NewInvalidTransition("a claim cannot return to Submitted")
	}

	claimJSON, err := ctx.GetStub().GetState(claimKey(claimID))
	if err != nil {
		return types.NewInternal("failed to read claim", err)
	}
	if claimJSON == nil {
		return types.NewInvalidReference(fmt.Sprintf("claim %d does not exist", claimID))
	}

	var claim types.Claim
	if err := json.Unmarshal(claimJSON, &claim); err != nil {
		return types.NewInternal("failed to unmarshal claim", err)
	}

	oldStatus := claim.Status
	claim.Status = status

	updatedJSON, err := json.Marshal(claim)
	if err != nil {
		return types.NewInternal("failed to marshal claim", err)
	}

	if err := ctx.GetStub().PutState(claimKey(claimID), updatedJSON); err != nil {
		return types.NewInternal("failed to store claim", err)
	}

	if err := audit.Append(ctx, audit.EventClaimStatusChanged, map[string]interface{}{
		"claim_id":   claimID,
		"old_status": string(oldStatus),
		"new_status": string(status),
		"updated_by": caller,
	}); err != nil {
		return err
	}

	// Payment is recorded as intent only; no funds move on this ledger.
	if status == types.StatusPaid {
		if err := audit.Append(ctx, audit.EventClaimPaymentIntent, map[string]interface{}{
			"claim_id": claimID,
			"patient":  claim.PatientID,
			"amount":   claim.Amount,
		}); err != nil {
			return err
		}
	}

	s.log.WithComponent("ClaimLedger").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithFields(map[string]interface{}{
			"claim_id":   claimID,
			"old_status": string(oldStatus),
			"new_status": string(status),
		}).Info("claim status changed")

	return nil
}

// GetClaim returns the claim for an identifier, or a zero-valued claim when
// the identifier was never assigned
func (s *SmartContract) GetClaim(ctx contractapi.TransactionContextInterface, claimID uint64) (*types.Claim, error) {
	claimJSON, err := ctx.GetStub().GetState(claimKey(claimID))
	if err != nil {
		return nil, types.NewInternal("failed to read claim", err)
	}
	if claimJSON == nil {
		return &types.Claim{}, nil
	}

	var claim types.Claim
	if err := json.Unmarshal(claimJSON, &claim); err != nil {
		return nil, types.NewInternal("failed to unmarshal claim", err)
	}

	return &claim, nil
}

// counter reads the highest assigned claim identifier, zero before the first
// submission
func (s *SmartContract) counter(ctx contractapi.TransactionContextInterface) (uint64, error) {
	value, err := ctx.GetStub().GetState(counterKey)
	if err != nil {
		return 0, types.NewInternal("failed to read claim counter", err)
	}
	if value == nil {
		return 0, nil
	}

	counter, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, types.NewInternal("corrupt claim counter", err)
	}

	return counter, nil
}

func claimKey(claimID uint64) string {
	return claimPrefix + strconv.FormatUint(claimID, 10)
}
