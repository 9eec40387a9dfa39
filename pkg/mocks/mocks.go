// Package mocks provides Fabric test doubles shared by the contract test
// suites. The stub is a stateful fake over an in-memory world state so that
// multi-contract scenarios observe each other's writes; the transaction
// context and client identity are testify mocks.
package mocks

import (
	"crypto/x509"
	"fmt"
	"sort"
	"time"

	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/stretchr/testify/mock"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TransactionContext provides a mock transaction context for testing
type TransactionContext struct {
	mock.Mock
}

func (m *TransactionContext) GetStub() shim.ChaincodeStubInterface {
	args := m.Called()
	return args.Get(0).(shim.ChaincodeStubInterface)
}

func (m *TransactionContext) GetClientIdentity() cid.ClientIdentity {
	args := m.Called()
	return args.Get(0).(cid.ClientIdentity)
}

// ClientIdentity provides a mock client identity for testing
type ClientIdentity struct {
	mock.Mock
}

func (m *ClientIdentity) GetID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *ClientIdentity) GetMSPID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *ClientIdentity) GetAttributeValue(attrName string) (string, bool, error) {
	args := m.Called(attrName)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *ClientIdentity) AssertAttributeValue(attrName, attrValue string) error {
	args := m.Called(attrName, attrValue)
	return args.Error(0)
}

func (m *ClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	args := m.Called()
	cert, _ := args.Get(0).(*x509.Certificate)
	return cert, args.Error(1)
}

// ChaincodeStub is a stateful fake over an in-memory world state. Methods the
// contracts never call fall through to the embedded nil interface and panic,
// keeping unexpected stub usage visible in tests.
type ChaincodeStub struct {
	shim.ChaincodeStubInterface

	State     map[string][]byte
	Events    map[string][]byte
	TxID      string
	Timestamp *timestamp.Timestamp

	// PutErr, when set, is returned by the next PutState call
	PutErr error
	// GetErr, when set, is returned by the next GetState call
	GetErr error
}

// NewStub creates a stub with an empty world state and a fixed timestamp
func NewStub() *ChaincodeStub {
	return &ChaincodeStub{
		State:     make(map[string][]byte),
		Events:    make(map[string][]byte),
		TxID:      "tx-0001",
		Timestamp: timestamppb.New(time.Unix(1700000000, 0)),
	}
}

func (s *ChaincodeStub) GetState(key string) ([]byte, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.State[key], nil
}

func (s *ChaincodeStub) PutState(key string, value []byte) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.State[key] = value
	return nil
}

func (s *ChaincodeStub) GetTxID() string {
	return s.TxID
}

func (s *ChaincodeStub) GetTxTimestamp() (*timestamp.Timestamp, error) {
	return s.Timestamp, nil
}

func (s *ChaincodeStub) SetEvent(name string, payload []byte) error {
	s.Events[name] = payload
	return nil
}

func (s *ChaincodeStub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	keys := make([]string, 0, len(s.State))
	for key := range s.State {
		if key >= startKey && key < endKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	results := make([]*queryresult.KV, 0, len(keys))
	for _, key := range keys {
		results = append(results, &queryresult.KV{Key: key, Value: s.State[key]})
	}

	return &StateQueryIterator{Results: results}, nil
}

// StateQueryIterator provides a state query iterator over prepared results
type StateQueryIterator struct {
	Results []*queryresult.KV
	Index   int
}

func (it *StateQueryIterator) HasNext() bool {
	return it.Index < len(it.Results)
}

func (it *StateQueryIterator) Next() (*queryresult.KV, error) {
	if it.Index >= len(it.Results) {
		return nil, fmt.Errorf("no more results")
	}
	result := it.Results[it.Index]
	it.Index++
	return result, nil
}

func (it *StateQueryIterator) Close() error {
	return nil
}

// NewContext wires a transaction context, stub and client identity for the
// given caller. Tests that need different identity behavior build the pieces
// themselves.
func NewContext(caller string) (*TransactionContext, *ChaincodeStub, *ClientIdentity) {
	ctx := new(TransactionContext)
	stub := NewStub()
	identity := new(ClientIdentity)

	ctx.On("GetStub").Return(stub)
	ctx.On("GetClientIdentity").Return(identity)
	identity.On("GetID").Return(caller, nil)

	return ctx, stub, identity
}

// WithCaller rebinds an existing world state to a new caller identity, so a
// scenario can issue the next transaction as someone else
func WithCaller(stub *ChaincodeStub, caller string) *TransactionContext {
	ctx := new(TransactionContext)
	identity := new(ClientIdentity)

	ctx.On("GetStub").Return(stub)
	ctx.On("GetClientIdentity").Return(identity)
	identity.On("GetID").Return(caller, nil)

	return ctx
}
