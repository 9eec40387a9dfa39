// Package verification implements the per-claim verification checklist and
// the approval cascade it triggers on the claim ledger.
package verification

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/claims"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/registry"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/audit"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/logger"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/types"
)

const verificationPrefix = "verification_"

// SmartContract provides functions for verifying claims
type SmartContract struct {
	contractapi.Contract

	registry *registry.SmartContract
	ledger   *claims.SmartContract
	log      *logger.Logger
}

// NewSmartContract creates the verification contract. Both references are set
// here once and never mutated afterwards.
func NewSmartContract(reg *registry.SmartContract, ledger *claims.SmartContract, log *logger.Logger) *SmartContract {
	c := &SmartContract{registry: reg, ledger: ledger, log: log}
	c.Name = "VerificationEngine"
	return c
}

// VerifyClaim overwrites the verification checklist for a claim identifier.
// Insurer only. The claim itself is not looked up first, so verifying an
// unknown identifier with a failing check leaves an orphan record. When all
// three checks pass, the claim is approved through the ledger contract inside
// the same transaction; the ledger re-evaluates its insurer guard against the
// original caller, and any inner failure invalidates the whole transaction,
// discarding the checklist write with it.
func (s *SmartContract) VerifyClaim(ctx contractapi.TransactionContextInterface, claimID uint64, documentsOk, amountOk, treatmentOk bool, notes string) error {
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

	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return types.NewInternal("failed to get transaction timestamp", err)
	}

	record := types.VerificationRecord{
		ClaimID:     claimID,
		DocumentsOK: documentsOk,
		AmountOK:    amountOk,
		TreatmentOK: treatmentOk,
		Notes:       notes,
		VerifierID:  caller,
		VerifiedAt:  ts.AsTime(),
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return types.NewInternal("failed to marshal verification record", err)
	}

	if err := ctx.GetStub().PutState(verificationKey(claimID), recordJSON); err != nil {
		return types.NewInternal("failed to store verification record", err)
	}

	if err := audit.Append(ctx, audit.EventClaimVerified, map[string]interface{}{
		"claim_id":     claimID,
		"documents_ok": documentsOk,
		"amount_ok":    amountOk,
		"treatment_ok": treatmentOk,
		"verifier":     caller,
	}); err != nil {
		return err
	}

	if documentsOk && amountOk && treatmentOk {
		if err := s.ledger.UpdateClaimStatus(ctx, claimID, string(types.StatusApproved)); err != nil {
			return err
		}
	}

	s.log.WithComponent("VerificationEngine").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithFields(map[string]interface{}{
			"claim_id": claimID,
			"approved": documentsOk && amountOk && treatmentOk,
		}).Info("claim verified")

	return nil
}

// GetVerificationStatus returns the stored checklist for a claim identifier,
// or a zero-valued record when none exists
func (s *SmartContract) GetVerificationStatus(ctx contractapi.TransactionContextInterface, claimID uint64) (*types.VerificationRecord, error) {
	recordJSON, err := ctx.GetStub().GetState(verificationKey(claimID))
	if err != nil {
		return nil, types.NewInternal("failed to read verification record", err)
	}
	if recordJSON == nil {
		return &types.VerificationRecord{}, nil
	}

	var record types.VerificationRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, types.NewInternal("failed to unmarshal verification record", err)
	}

	return &record, nil
}

func verificationKey(claimID uint64) string {
	return verificationPrefix + strconv.FormatUint(claimID, 10)
}
