package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/claims"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/registry"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/audit"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/logger"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/mocks"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/types"
)

// setup initializes a world state with an administrator, one insurer, one
// provider, one registered patient and one submitted claim
func setup(t *testing.T) (*claims.SmartContract, *SmartContract, *mocks.ChaincodeStub) {
	t.Helper()

	log := logger.New("error")
	reg := registry.NewSmartContract(log)
	ledger := claims.NewSmartContract(reg, log)
	engine := NewSmartContract(reg, ledger, log)

	adminCtx, stub, _ := mocks.NewContext("admin")
	require.NoError(t, reg.InitLedger(adminCtx))
	require.NoError(t, reg.GrantInsurer(adminCtx, "insurer1"))
	require.NoError(t, reg.GrantProvider(adminCtx, "provider1"))
	require.NoError(t, reg.RegisterPatient(mocks.WithCaller(stub, "insurer1"), "patient1", "Jane Roe", "POL-42", 1000))

	_, err := ledger.SubmitClaim(mocks.WithCaller(stub, "patient1"), 500, "physiotherapy", "provider1", "doc123")
	require.NoError(t, err)

	return ledger, engine, stub
}

func TestSmartContract_VerifyClaim_AllChecksPass(t *testing.T) {
	ledger, engine, stub := setup(t)
	insurerCtx := mocks.WithCaller(stub, "insurer1")

	err := engine.VerifyClaim(insurerCtx, 1, true, true, true, "all good")
	require.NoError(t, err)

	record, err := engine.GetVerificationStatus(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.ClaimID)
	assert.True(t, record.DocumentsOK)
	assert.True(t, record.AmountOK)
	assert.True(t, record.TreatmentOK)
	assert.Equal(t, "all good", record.Notes)
	assert.Equal(t, "insurer1", record.VerifierID)

	// The approval cascade lands in the same transaction as the checklist.
	claim, err := ledger.GetClaim(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, claim.Status)

	assert.Contains(t, stub.Events, audit.EventClaimVerified)
	assert.Contains(t, stub.Events, audit.EventClaimStatusChanged)
}

func TestSmartContract_VerifyClaim_FailedCheck(t *testing.T) {
	ledger, engine, stub := setup(t)
	insurerCtx := mocks.WithCaller(stub, "insurer1")

	err := engine.VerifyClaim(insurerCtx, 1, true, false, true, "amount disputed")
	require.NoError(t, err)

	record, err := engine.GetVerificationStatus(insurerCtx, 1)
	require.NoError(t, err)
	assert.False(t, record.AmountOK)
	assert.Equal(t, "amount disputed", record.Notes)

	claim, err := ledger.GetClaim(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, claim.Status)
}

func TestSmartContract_VerifyClaim_NotInsurer(t *testing.T) {
	_, engine, stub := setup(t)
	patientCtx := mocks.WithCaller(stub, "patient1")

	err := engine.VerifyClaim(patientCtx, 1, true, true, true, "self service")
	assert.Error(t, err)
	assert.Equal(t, types.ErrorTypePermissionDenied, types.TypeOf(err))

	record, err := engine.GetVerificationStatus(patientCtx, 1)
	assert.NoError(t, err)
	assert.Equal(t, &types.VerificationRecord{}, record)
}

func TestSmartContract_VerifyClaim_UnknownClaim_AllChecksPass(t *testing.T) {
	_, engine, stub := setup(t)
	insurerCtx := mocks.WithCaller(stub, "insurer1")

	// The cascade targets a claim that was never assigned, so the inner
	// status update fails and the peer discards the whole write set.
	err := engine.VerifyClaim(insurerCtx, 99, true, true, true, "phantom")
	assert.Error(t, err)
	assert.Equal(t, types.ErrorTypeInvalidReference, types.TypeOf(err))
}

func TestSmartContract_VerifyClaim_UnknownClaim_FailedCheck(t *testing.T) {
	ledger, engine, stub := setup(t)
	insurerCtx := mocks.WithCaller(stub, "insurer1")

	// Without the cascade nothing validates the identifier; the orphan
	// checklist is written silently.
	err := engine.VerifyClaim(insurerCtx, 99, true, false, false, "phantom")
	require.NoError(t, err)

	record, err := engine.GetVerificationStatus(insurerCtx, 99)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), record.ClaimID)

	claim, err := ledger.GetClaim(insurerCtx, 99)
	require.NoError(t, err)
	assert.Equal(t, &types.Claim{}, claim)
}

func TestSmartContract_VerifyClaim_OverwritesPriorRecord(t *testing.T) {
	_, engine, stub := setup(t)
	insurerCtx := mocks.WithCaller(stub, "insurer1")

	require.NoError(t, engine.VerifyClaim(insurerCtx, 1, true, false, true, "first pass"))

	first, err := engine.GetVerificationStatus(insurerCtx, 1)
	require.NoError(t, err)

	// The next verify arrives in a later block.
	stub.Timestamp = timestamppb.New(time.Unix(1700000600, 0))
	require.NoError(t, engine.VerifyClaim(insurerCtx, 1, false, false, false, "second pass"))

	second, err := engine.GetVerificationStatus(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, "second pass", second.Notes)
	assert.False(t, second.DocumentsOK)
	assert.Equal(t, "insurer1", second.VerifierID)
	assert.False(t, second.VerifiedAt.Before(first.VerifiedAt))
}

func TestSmartContract_GetVerificationStatus_Missing(t *testing.T) {
	_, engine, stub := setup(t)

	record, err := engine.GetVerificationStatus(mocks.WithCaller(stub, "anyone"), 42)
	assert.NoError(t, err)
	assert.Equal(t, &types.VerificationRecord{}, record)
}

// TestClaimLifecycle walks a claim from registration to approval across all
// three contracts over one shared world state.
func TestClaimLifecycle(t *testing.T) {
	log := logger.New("error")
	reg := registry.NewSmartContract(log)
	ledger := claims.NewSmartContract(reg, log)
	engine := NewSmartContract(reg, ledger, log)

	adminCtx, stub, _ := mocks.NewContext("admin")
	require.NoError(t, reg.InitLedger(adminCtx))
	require.NoError(t, reg.GrantInsurer(adminCtx, "insurerI"))
	require.NoError(t, reg.GrantProvider(adminCtx, "providerR"))

	insurerCtx := mocks.WithCaller(stub, "insurerI")
	require.NoError(t, reg.RegisterPatient(insurerCtx, "patientP", "Pat Doe", "POL-7", 1000))

	claim, err := ledger.SubmitClaim(mocks.WithCaller(stub, "patientP"), 500, "knee surgery", "providerR", "doc123")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claim.ID)
	assert.Equal(t, types.StatusSubmitted, claim.Status)

	require.NoError(t, ledger.UpdateClaimStatus(insurerCtx, 1, string(types.StatusUnderReview)))

	stored, err := ledger.GetClaim(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUnderReview, stored.Status)

	require.NoError(t, engine.VerifyClaim(insurerCtx, 1, true, true, true, "ok"))

	stored, err = ledger.GetClaim(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, stored.Status)

	err = ledger.UpdateClaimStatus(mocks.WithCaller(stub, "outsider"), 1, string(types.StatusPaid))
	assert.Error(t, err)
	assert.Equal(t, types.ErrorTypePermissionDenied, types.TypeOf(err))

	stored, err = ledger.GetClaim(insurerCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, stored.Status)
}
