// Package audit appends immutable audit entries for every successful state
// mutation. Entries live in world state under the transaction that produced
// them and are mirrored as chaincode events, which is the only signal offered
// to off-chain indexers.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const keyPrefix = "audit_"

// Event names emitted by the claim-processing contracts
const (
	EventAdministratorAssigned = "AdministratorAssigned"
	EventInsurerGranted        = "InsurerGranted"
	EventProviderGranted       = "ProviderGranted"
	EventPatientRegistered     = "PatientRegistered"
	EventClaimSubmitted        = "ClaimSubmitted"
	EventClaimStatusChanged    = "ClaimStatusChanged"
	EventClaimPaymentIntent    = "ClaimPaymentIntent"
	EventClaimVerified         = "ClaimVerified"
)

// Entry represents an immutable audit log entry
type Entry struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	TxID      string                 `json:"tx_id"`
	Timestamp time.Time              `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields"`
}

// Append writes an audit entry for the running transaction and sets the
// matching chaincode event. The entry key embeds the transaction ID and event
// name, so the ID is deterministic across endorsers and a transaction may
// emit several entries with distinct events.
func Append(ctx contractapi.TransactionContextInterface, event string, fields map[string]interface{}) error {
	stub := ctx.GetStub()
	txID := stub.GetTxID()

	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return fmt.Errorf("failed to get transaction timestamp: %v", err)
	}

	entry := Entry{
		ID:        entryID(txID, event),
		Event:     event,
		TxID:      txID,
		Timestamp: ts.AsTime(),
		Fields:    fields,
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %v", err)
	}

	if err := stub.PutState(keyPrefix+txID+"_"+event, entryJSON); err != nil {
		return fmt.Errorf("failed to put audit entry to world state: %v", err)
	}

	return stub.SetEvent(event, entryJSON)
}

// EntriesForTransaction returns every audit entry a transaction appended
func EntriesForTransaction(ctx contractapi.TransactionContextInterface, txID string) ([]*Entry, error) {
	startKey := keyPrefix + txID + "_"
	endKey := keyPrefix + txID + "_~"

	resultsIterator, err := ctx.GetStub().GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %v", err)
	}
	defer resultsIterator.Close()

	var entries []*Entry
	for resultsIterator.HasNext() {
		queryResponse, err := resultsIterator.Next()
		if err != nil {
			return nil, err
		}

		var entry Entry
		if err := json.Unmarshal(queryResponse.Value, &entry); err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}

// entryID derives a short deterministic identifier from the transaction ID
// and event name, the way every endorser computes it identically
func entryID(txID, event string) string {
	hash := sha256.Sum256([]byte(txID + "_" + event))
	return "audit_" + hex.EncodeToString(hash[:8])
}
