/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
)

const sha2_256 = 18

// MockCasClient mocks CAS for testing purposes.
type MockCasClient struct {
	mutex     sync.RWMutex
	m         map[string][]byte
	err       error
	readCode  cas.FetchResultCode
	readDelay time.Duration
	reads     int
}

// NewMockCasClient creates mock client.
func NewMockCasClient(err error) *MockCasClient {
	return &MockCasClient{m: make(map[string][]byte), err: err}
}

// Write writes the given content to CAS.
// returns the SHA256 hash in base64url encoding which represents the address of the content.
func (m *MockCasClient) Write(content []byte) (string, error) {
	err := m.GetError()
	if err != nil {
		return "", err
	}

	hash, err := hashing.ComputeMultihash(sha2_256, content)
	if err != nil {
		return "", err
	}

	key := encoder.EncodeToString(hash)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.m[key] = content

	return key, nil
}

// Read reads at most maxSize bytes of the content at the given address.
func (m *MockCasClient) Read(ctx context.Context, address string, maxSize uint) *cas.FetchResult {
	m.mutex.Lock()
	m.reads++
	delay := m.readDelay
	code := m.readCode
	err := m.err
	m.mutex.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &cas.FetchResult{Code: cas.NotFound}
		}
	}

	if code != "" {
		return &cas.FetchResult{Code: code}
	}

	if err != nil {
		return &cas.FetchResult{Code: cas.NotReachable}
	}

	m.mutex.RLock()
	value, ok := m.m[address]
	m.mutex.RUnlock()

	if !ok {
		return &cas.FetchResult{Code: cas.NotFound}
	}

	decoded, err := encoder.DecodeString(address)
	if err != nil {
		return &cas.FetchResult{Code: cas.InvalidHash}
	}

	valueHash, err := hashing.ComputeMultihash(sha2_256, value)
	if err != nil || !bytes.Equal(valueHash, decoded) {
		return &cas.FetchResult{Code: cas.InvalidHash}
	}

	if uint(len(value)) > maxSize {
		return &cas.FetchResult{Code: cas.MaxSizeExceeded}
	}

	return &cas.FetchResult{Code: cas.Success, Content: value}
}

// Put stores content under the given address without hashing it.
func (m *MockCasClient) Put(address string, content []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.m[address] = content
}

// SetError injects an error into the mock client. Reads report CAS not reachable while an error is set.
func (m *MockCasClient) SetError(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.err = err
}

// GetError returns the injected error.
func (m *MockCasClient) GetError() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.err
}

// SetReadResultCode forces every read to return the given code.
func (m *MockCasClient) SetReadResultCode(code cas.FetchResultCode) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.readCode = code
}

// SetReadDelay delays every read by the given duration.
func (m *MockCasClient) SetReadDelay(delay time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.readDelay = delay
}

// ReadCount returns the number of reads.
func (m *MockCasClient) ReadCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.reads
}
