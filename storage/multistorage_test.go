package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/fincrypt/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKeyStore implements interfaces.KeyStore for testing
type MockKeyStore struct {
	mock.Mock
	name string
}

func (m *MockKeyStore) Fetch(ctx context.Context, role interfaces.KeyRole, name string) ([]byte, error) {
	args := m.Called(ctx, role, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyStore) List(ctx context.Context, role interfaces.KeyRole) ([]string, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKeyStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockKeyStore) Name() string {
	return m.name
}

func (m *MockKeyStore) LocationURI() string {
	return "mock://" + m.name
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiKeyStore_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.KeyStore
			for i, available := range tt.backends {
				mockStore := &MockKeyStore{name: fmt.Sprintf("mock-A%x", i)}
				mockStore.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStore)
			}

			multi := NewMultiKeyStore(backends, discardLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))

			for _, backend := range backends {
				backend.(*MockKeyStore).AssertExpectations(t)
			}
		})
	}
}

func TestMultiKeyStore_Fetch(t *testing.T) {
	keyText := []byte("a2V5IHRleHQ=")
	notFound := fmt.Errorf("%w: public key %q", interfaces.ErrKeyNotFound, "bob")
	testErr := errors.New("connection reset")

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.KeyStore
		expectedData  []byte
		expectedError error
	}{
		{
			name: "first backend successful",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(keyText, nil)

				// Never consulted
				mock2 := &MockKeyStore{name: "mock-B"}

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData: keyText,
		},
		{
			name: "first backend misses, second succeeds",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, notFound)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(keyText, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData: keyText,
		},
		{
			name: "missing everywhere",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, notFound)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, interfaces.ErrRoleUnsupported)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedError: interfaces.ErrKeyNotFound,
		},
		{
			name: "backend failure is not reported as missing",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, notFound)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, testErr)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedError: testErr,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(keyText, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData: keyText,
		},
		{
			name: "nothing available",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				return []interfaces.KeyStore{mock1}
			},
			expectedError: interfaces.ErrBackendUnavailable,
		},
		{
			name: "invalid name stops the search",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, interfaces.ErrInvalidKeyName)

				// Never consulted
				mock2 := &MockKeyStore{name: "mock-B"}

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedError: interfaces.ErrInvalidKeyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiKeyStore(backends, discardLogger())

			data, err := multi.Fetch(context.Background(), interfaces.PublicRole, "bob")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedData, data)

			for _, backend := range backends {
				backend.(*MockKeyStore).AssertExpectations(t)
			}
		})
	}
}

func TestMultiKeyStore_FetchMixedFailures(t *testing.T) {
	mock1 := &MockKeyStore{name: "mock-A"}
	mock1.On("Available", mock.Anything).Return(true)
	mock1.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, errors.New("timeout"))
	mock2 := &MockKeyStore{name: "mock-B"}
	mock2.On("Available", mock.Anything).Return(true)
	mock2.On("Fetch", mock.Anything, interfaces.PublicRole, "bob").Return(nil, interfaces.ErrKeyNotFound)

	multi := NewMultiKeyStore([]interfaces.KeyStore{mock1, mock2}, discardLogger())
	_, err := multi.Fetch(context.Background(), interfaces.PublicRole, "bob")
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrBackendUnavailable)
}

func TestMultiKeyStore_List(t *testing.T) {
	mock1 := &MockKeyStore{name: "mock-A"}
	mock1.On("Available", mock.Anything).Return(true)
	mock1.On("List", mock.Anything, interfaces.PublicRole).Return([]string{"carol", "alice"}, nil)

	mock2 := &MockKeyStore{name: "mock-B"}
	mock2.On("Available", mock.Anything).Return(true)
	mock2.On("List", mock.Anything, interfaces.PublicRole).Return(nil, interfaces.ErrListUnsupported)

	mock3 := &MockKeyStore{name: "mock-C"}
	mock3.On("Available", mock.Anything).Return(true)
	mock3.On("List", mock.Anything, interfaces.PublicRole).Return([]string{"bob", "alice"}, nil)

	mock4 := &MockKeyStore{name: "mock-D"}
	mock4.On("Available", mock.Anything).Return(false)

	multi := NewMultiKeyStore([]interfaces.KeyStore{mock1, mock2, mock3, mock4}, discardLogger())
	names, err := multi.List(context.Background(), interfaces.PublicRole)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)

	for _, m := range []*MockKeyStore{mock1, mock2, mock3, mock4} {
		m.AssertExpectations(t)
	}
}

func TestMultiKeyStore_ListAllFail(t *testing.T) {
	mock1 := &MockKeyStore{name: "mock-A"}
	mock1.On("Available", mock.Anything).Return(true)
	mock1.On("List", mock.Anything, interfaces.PublicRole).Return(nil, errors.New("boom"))

	multi := NewMultiKeyStore([]interfaces.KeyStore{mock1}, discardLogger())
	_, err := multi.List(context.Background(), interfaces.PublicRole)
	assert.Error(t, err)

	assert.Equal(t, "multi-keystore", multi.Name())
	assert.Equal(t, "multi:[mock://mock-A]", multi.LocationURI())
}
