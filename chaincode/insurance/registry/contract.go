// Package registry implements the access registry: the administrator
// identity, the insurer and provider role sets, and the patient directory.
package registry

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/audit"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/logger"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/types"
)

const (
	adminKey       = "admin"
	insurerPrefix  = "insurer_"
	providerPrefix = "provider_"
	patientPrefix  = "patient_"
)

// SmartContract provides functions for managing privileged identities and
// the patient directory
type SmartContract struct {
	contractapi.Contract

	log *logger.Logger
}

// NewSmartContract creates the access registry contract
func NewSmartContract(log *logger.Logger) *SmartContract {
	c := &SmartContract{log: log}
	c.Name = "AccessRegistry"
	return c
}

// InitLedger records the caller as the administrator. It must run exactly
// once per deployment; any later call fails without touching state.
func (s *SmartContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	existing, err := ctx.GetStub().GetState(adminKey)
	if err != nil {
		return types.NewInternal("failed to read from world state", err)
	}
	if existing != nil {
		return types.NewConflict("access registry is already initialized")
	}

	caller, err := s.callerIdentity(ctx)
	if err != nil {
		return err
	}

	if err := ctx.GetStub().PutState(adminKey, []byte(caller)); err != nil {
		return types.NewInternal("failed to store administrator", err)
	}

	if err := audit.Append(ctx, audit.EventAdministratorAssigned, map[string]interface{}{
		"administrator": caller,
	}); err != nil {
		return err
	}

	s.log.WithComponent("AccessRegistry").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithField("administrator", caller).Info("administrator assigned")

	return nil
}

// GrantInsurer adds an identity to the insurer role set. Administrator only;
// there is no revoke operation.
func (s *SmartContract) GrantInsurer(ctx contractapi.TransactionContextInterface, identity string) error {
	return s.grantRole(ctx, insurerPrefix, audit.EventInsurerGranted, identity)
}

// GrantProvider adds an identity to the healthcare provider role set.
// Administrator only; there is no revoke operation.
func (s *SmartContract) GrantProvider(ctx contractapi.TransactionContextInterface, identity string) error {
	return s.grantRole(ctx, providerPrefix, audit.EventProviderGranted, identity)
}

func (s *SmartContract) grantRole(ctx contractapi.TransactionContextInterface, prefix, event, identity string) error {
	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return types.NewInternal("failed to get transaction timestamp", err)
	}

	grant := types.RoleGrant{
		Identity:  identity,
		GrantedBy: caller,
		GrantedAt: ts.AsTime(),
	}

	grantJSON, err := json.Marshal(grant)
	if err != nil {
		return types.NewInternal("failed to marshal role grant", err)
	}

	if err := ctx.GetStub().PutState(prefix+identity, grantJSON); err != nil {
		return types.NewInternal("failed to store role grant", err)
	}

	if err := audit.Append(ctx, event, map[string]interface{}{
		"identity":   identity,
		"granted_by": caller,
	}); err != nil {
		return err
	}

	s.log.WithComponent("AccessRegistry").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithFields(map[string]interface{}{"event": event, "identity": identity}).
		Info("role granted")

	return nil
}

// RegisterPatient creates or overwrites the directory record for a patient.
// Insurer only. Re-registering an existing patient silently replaces the
// prior record; there is no uniqueness guard and no deletion path.
func (s *SmartContract) RegisterPatient(ctx contractapi.TransactionContextInterface, patientID, name, policyNumber string, coverageAmount uint64) error {
	caller, err := s.requireInsurer(ctx)
	if err != nil {
		return err
	}

	record := types.PatientRecord{
		Registered:     true,
		Name:           name,
		PolicyNumber:   policyNumber,
		CoverageAmount: coverageAmount,
		Active:         true,
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return types.NewInternal("failed to marshal patient record", err)
	}

	if err := ctx.GetStub().PutState(patientPrefix+patientID, recordJSON); err != nil {
		return types.NewInternal("failed to store patient record", err)
	}

	if err := audit.Append(ctx, audit.EventPatientRegistered, map[string]interface{}{
		"patient":       patientID,
		"name":          name,
		"policy_number": policyNumber,
		"coverage":      coverageAmount,
		"insurer":       caller,
	}); err != nil {
		return err
	}

	s.log.WithComponent("AccessRegistry").WithField("tx_id", ctx.GetStub().GetTxID()).
		WithField("patient", patientID).Info("patient registered")

	return nil
}

// IsInsurer reports whether an identity belongs to the insurer role set
func (s *SmartContract) IsInsurer(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	return s.hasRole(ctx, insurerPrefix, identity)
}

// IsProvider reports whether an identity belongs to the provider role set
func (s *SmartContract) IsProvider(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	return s.hasRole(ctx, providerPrefix, identity)
}

func (s *SmartContract) hasRole(ctx contractapi.TransactionContextInterface, prefix, identity string) (bool, error) {
	grant, err := ctx.GetStub().GetState(prefix + identity)
	if err != nil {
		return false, types.NewInternal("failed to read from world state", err)
	}
	return grant != nil, nil
}

// IsActivePatient reports whether an identity has a registered and active
// directory record. This is the predicate gating claim submission.
func (s *SmartContract) IsActivePatient(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	record, err := s.GetPatient(ctx, identity)
	if err != nil {
		return false, err
	}
	return record.Registered && record.Active, nil
}

// GetPatient returns the directory record for an identity, or an empty record
// when none exists
func (s *SmartContract) GetPatient(ctx contractapi.TransactionContextInterface, identity string) (*types.PatientRecord, error) {
	recordJSON, err := ctx.GetStub().GetState(patientPrefix + identity)
	if err != nil {
		return nil, types.NewInternal("failed to read from world state", err)
	}
	if recordJSON == nil {
		return &types.PatientRecord{}, nil
	}

	var record types.PatientRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, types.NewInternal("failed to unmarshal patient record", err)
	}

	return &record, nil
}

// GetAdministrator returns the administrator identity, or an empty string
// before initialization
func (s *SmartContract) GetAdministrator(ctx contractapi.TransactionContextInterface) (string, error) {
	admin, err := ctx.GetStub().GetState(adminKey)
	if err != nil {
		return "", types.NewInternal("failed to read from world state", err)
	}
	return string(admin), nil
}

// requireAdmin resolves the caller and checks it against the stored
// administrator identity
func (s *SmartContract) requireAdmin(ctx contractapi.TransactionContextInterface) (string, error) {
	caller, err := s.callerIdentity(ctx)
	if err != nil {
		return "", err
	}

	admin, err := s.GetAdministrator(ctx)
	if err != nil {
		return "", err
	}
	if admin == "" || caller != admin {
		return "", types.NewPermissionDenied(fmt.Sprintf("caller %s is not the administrator", caller))
	}

	return caller, nil
}

// requireInsurer resolves the caller and checks insurer role membership
func (s *SmartContract) requireInsurer(ctx contractapi.TransactionContextInterface) (string, error) {
	caller, err := s.callerIdentity(ctx)
	if err != nil {
		return "", err
	}

	isInsurer, err := s.IsInsurer(ctx, caller)
	if err != nil {
		return "", err
	}
	if !isInsurer {
		return "", types.NewPermissionDenied(fmt.Sprintf("caller %s is not an insurer", caller))
	}

	return caller, nil
}

// callerIdentity gets the identity of the transaction caller
func (s *SmartContract) callerIdentity(ctx contractapi.TransactionContextInterface) (string, error) {
	id, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", types.NewInternal("failed to get client identity", err)
	}
	return id, nil
}
