package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "mock://" + m.name
}

func newMock(name string, available bool) *MockStorageBackend {
	m := &MockStorageBackend{name: name}
	m.On("Available", mock.Anything).Return(available)
	return m
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{"all backends available", []bool{true, true, true}, true},
		{"some backends available", []bool{false, true, false}, true},
		{"no backends available", []bool{false, false, false}, false},
		{"no backends", []bool{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.StorageBackend
			for i, available := range tt.backends {
				m := &MockStorageBackend{name: fmt.Sprintf("mock-%d", i)}
				m.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, m)
			}

			multi := NewMultiStorageBackend(backends, discardLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	const key = "NitroLegacyInventory.json"
	artifact := []byte(`{"contractName":"NitroLegacyInventory"}`)
	testErr := errors.New("test error")

	tests := []struct {
		name       string
		setupMocks func() []interfaces.StorageBackend
		expected   []byte
		expectErr  error
	}{
		{
			name: "first backend wins",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Fetch", mock.Anything, key).Return(artifact, nil)
				second := &MockStorageBackend{name: "second"}
				return []interfaces.StorageBackend{first, second}
			},
			expected: artifact,
		},
		{
			name: "falls back after a miss",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Fetch", mock.Anything, key).Return(nil, interfaces.ErrContentNotFound)
				second := newMock("second", true)
				second.On("Fetch", mock.Anything, key).Return(artifact, nil)
				return []interfaces.StorageBackend{first, second}
			},
			expected: artifact,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", false)
				second := newMock("second", true)
				second.On("Fetch", mock.Anything, key).Return(artifact, nil)
				return []interfaces.StorageBackend{first, second}
			},
			expected: artifact,
		},
		{
			name: "not found everywhere",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Fetch", mock.Anything, key).Return(nil, interfaces.ErrContentNotFound)
				second := newMock("second", true)
				second.On("Fetch", mock.Anything, key).Return(nil, testErr)
				return []interfaces.StorageBackend{first, second}
			},
			expectErr: interfaces.ErrContentNotFound,
		},
		{
			name: "nothing available",
			setupMocks: func() []interfaces.StorageBackend {
				return []interfaces.StorageBackend{newMock("first", false)}
			},
			expectErr: interfaces.ErrBackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStorageBackend(backends, discardLogger())

			data, err := multi.Fetch(context.Background(), key)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, data)

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Store(t *testing.T) {
	const key = "keys/deployer"
	data := []byte("0xdeadbeef")
	testErr := errors.New("test error")

	tests := []struct {
		name       string
		setupMocks func() []interfaces.StorageBackend
		expectErr  bool
	}{
		{
			name: "writes to every backend",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Store", mock.Anything, key, data).Return(nil)
				second := newMock("second", true)
				second.On("Store", mock.Anything, key, data).Return(nil)
				return []interfaces.StorageBackend{first, second}
			},
		},
		{
			name: "partial failure still succeeds",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Store", mock.Anything, key, data).Return(interfaces.ErrReadOnlyBackend)
				second := newMock("second", true)
				second.On("Store", mock.Anything, key, data).Return(nil)
				return []interfaces.StorageBackend{first, second}
			},
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.StorageBackend {
				first := newMock("first", true)
				first.On("Store", mock.Anything, key, data).Return(testErr)
				second := newMock("second", false)
				return []interfaces.StorageBackend{first, second}
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStorageBackend(backends, discardLogger())

			err := multi.Store(context.Background(), key, data)
			if tt.expectErr {
				assert.ErrorIs(t, err, testErr)
			} else {
				assert.NoError(t, err)
			}

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_LocationURI(t *testing.T) {
	multi := NewMultiStorageBackend([]interfaces.StorageBackend{
		&MockStorageBackend{name: "a"},
		&MockStorageBackend{name: "b"},
	}, nil)
	assert.Equal(t, "multi:[mock://a,mock://b]", multi.LocationURI())
}
