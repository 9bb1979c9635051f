package iocache

import (
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetWorkspaceStore implements the StoreManager interface.
func (m *MockStoreManager) GetWorkspaceStore() contract.WorkspaceStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.WorkspaceStore)
	return store
}

// GetQueryLogStore implements the StoreManager interface.
func (m *MockStoreManager) GetQueryLogStore() contract.QueryLogStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.QueryLogStore)
	return store
}

// MockWorkspaceStore is a mock implementation of WorkspaceStore for testing.
type MockWorkspaceStore struct {
	mock.Mock
}

var _ contract.WorkspaceStore = &MockWorkspaceStore{} // Compile-time check

// Get implements the WorkspaceStore interface.
func (m *MockWorkspaceStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the WorkspaceStore interface.
func (m *MockWorkspaceStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the WorkspaceStore interface.
func (m *MockWorkspaceStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the WorkspaceStore interface.
func (m *MockWorkspaceStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockQueryLogStore is a mock implementation of QueryLogStore for testing.
type MockQueryLogStore struct {
	mock.Mock
}

var _ contract.QueryLogStore = &MockQueryLogStore{} // Compile-time check

// Append implements the QueryLogStore interface.
func (m *MockQueryLogStore) Append(record schema.QueryRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

// All implements the QueryLogStore interface.
func (m *MockQueryLogStore) All() ([]schema.QueryRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.QueryRecord)
	return records, args.Error(1)
}

// GetStatus implements the QueryLogStore interface.
func (m *MockQueryLogStore) GetStatus() (schema.QueryLogStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.QueryLogStatus), args.Error(1)
}

// Close implements the QueryLogStore interface.
func (m *MockQueryLogStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
