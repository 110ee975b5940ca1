/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import "time"

// MetricsProvider implements a mock metrics provider.
type MetricsProvider struct{}

// CASWriteSize records the size of content written to CAS.
func (m *MetricsProvider) CASWriteSize(dataType string, size int) {
}

// CASReadSize records the size of content read from CAS.
func (m *MetricsProvider) CASReadSize(dataType string, size int) {
}

// CASReadTime records the time to read content from CAS.
func (m *MetricsProvider) CASReadTime(dataType string, value time.Duration) {
}

// ObserverCycleTime records the time of one observer processing cycle.
func (m *MetricsProvider) ObserverCycleTime(value time.Duration) {
}

// TransactionProcessed records a processed transaction.
func (m *MetricsProvider) TransactionProcessed() {
}

// TransactionUnresolvable records a transaction that could not be resolved.
func (m *MetricsProvider) TransactionUnresolvable() {
}

// Reorg records a ledger reorganization.
func (m *MetricsProvider) Reorg() {
}

// BatchCutSize records the number of operations in a cut batch.
func (m *MetricsProvider) BatchCutSize(size int) {
}

// BatchWriteTime records the time to write a batch.
func (m *MetricsProvider) BatchWriteTime(value time.Duration) {
}

// ResolveTime records the time to resolve a DID.
func (m *MetricsProvider) ResolveTime(value time.Duration) {
}
