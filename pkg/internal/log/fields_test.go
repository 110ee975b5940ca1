/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardFields(t *testing.T) {
	const module = "test_module"

	t.Run("json fields 1", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := New(module, WithStdOut(stdOut), WithEncoding(JSON))

		txn := &mockObject{Field1: "txn1", Field2: 5967}

		logger.Info("Some message",
			WithError(errors.New("some error")), WithURIString("https://example.com/cas"), WithSize(1234),
			WithMaxSize(20), WithTotal(12), WithSuffix("1234"), WithSuffixes("suffix1", "suffix2"),
			WithOperationType("create"), WithOperationIndex(3), WithSidetreeTxn(txn), WithNamespace("did:sidetree"),
			WithAnchorString("1.QmAnchor"), WithTransactionTime(989), WithTransactionNumber(778),
		)

		l := unmarshalLogData(t, stdOut.Bytes())

		require.Equal(t, `Some message`, l.Msg)
		require.Equal(t, module, l.Logger)
		require.Equal(t, "some error", l.Error)
		require.Equal(t, "https://example.com/cas", l.URI)
		require.Equal(t, 1234, l.Size)
		require.Equal(t, 20, l.MaxSize)
		require.Equal(t, 12, l.Total)
		require.Equal(t, "1234", l.Suffix)
		require.Equal(t, []string{"suffix1", "suffix2"}, l.Suffixes)
		require.Equal(t, "create", l.OperationType)
		require.Equal(t, 3, l.OperationIndex)
		require.Equal(t, txn, l.SidetreeTxn)
		require.Equal(t, "did:sidetree", l.Namespace)
		require.Equal(t, "1.QmAnchor", l.AnchorString)
		require.Equal(t, 989, l.TransactionTime)
		require.Equal(t, 778, l.TransactionNumber)
	})

	t.Run("json fields 2", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := New(module, WithStdOut(stdOut), WithEncoding(JSON))

		op := &mockObject{Field1: "op1", Field2: 9486}

		logger.Info("Some message",
			WithOperation(op), WithCommitment("commit1"), WithRecoveryCommitment("recommit1"),
			WithUpdateCommitment("upcommit1"), WithTotalOperations(54), WithTotalPending(36),
			WithDeactivated(true), WithVersionTime(12), WithCasCode("not_found"), WithWriter("writer1"),
			WithRetryAttempts(4), WithLedgerTime(1000), WithDuration(time.Second), WithReason("reason1"),
			WithAddress("addr1"), WithFee(77), WithDocument(map[string]interface{}{"field1": 1234}),
		)

		l := unmarshalLogData(t, stdOut.Bytes())

		require.Equal(t, op, l.Operation)
		require.Equal(t, "commit1", l.Commitment)
		require.Equal(t, "recommit1", l.RecoveryCommitment)
		require.Equal(t, "upcommit1", l.UpdateCommitment)
		require.Equal(t, 54, l.TotalOperations)
		require.Equal(t, 36, l.TotalPending)
		require.True(t, l.Deactivated)
		require.Equal(t, 12, l.VersionTime)
		require.Equal(t, "not_found", l.CasCode)
		require.Equal(t, "writer1", l.Writer)
		require.Equal(t, 4, l.RetryAttempts)
		require.Equal(t, 1000, l.LedgerTime)
		require.Equal(t, "1s", l.Duration)
		require.Equal(t, "reason1", l.Reason)
		require.Equal(t, "addr1", l.Address)
		require.Equal(t, 77, l.Fee)
		require.Equal(t, `{"field1":1234}`, l.Document)
	})
}

func TestLevels(t *testing.T) {
	const module = "level_module"

	stdOut := newMockWriter()

	logger := New(module, WithStdOut(stdOut), WithEncoding(JSON))

	SetLevel(module, ERROR)

	logger.Info("hidden")
	logger.Debugf("hidden %d", 1)
	require.Empty(t, stdOut.String())

	logger.Errorf("shown %d", 1)
	require.Contains(t, stdOut.String(), "shown 1")

	SetLevel(module, DEBUG)
	require.True(t, logger.IsEnabled(DEBUG))

	_, err := ParseLevel("invalid")
	require.Error(t, err)

	require.Error(t, SetSpec("module1=debug=info"))
	require.Error(t, SetSpec("module1=invalid"))
}

type mockObject struct {
	Field1 string
	Field2 int
}

type logData struct {
	Level  string `json:"level"`
	Time   string `json:"time"`
	Logger string `json:"logger"`
	Caller string `json:"caller"`
	Msg    string `json:"msg"`
	Error  string `json:"error"`

	URI                string      `json:"uri"`
	Size               int         `json:"size"`
	MaxSize            int         `json:"maxSize"`
	Total              int         `json:"total"`
	Suffix             string      `json:"suffix"`
	Suffixes           []string    `json:"suffixes"`
	OperationType      string      `json:"operationType"`
	Operation          *mockObject `json:"operation"`
	OperationIndex     int         `json:"operationIndex"`
	SidetreeTxn        *mockObject `json:"sidetreeTxn"`
	Namespace          string      `json:"namespace"`
	AnchorString       string      `json:"anchorString"`
	TransactionTime    int         `json:"transactionTime"`
	TransactionNumber  int         `json:"transactionNumber"`
	Commitment         string      `json:"commitment"`
	RecoveryCommitment string      `json:"recoveryCommitment"`
	UpdateCommitment   string      `json:"updateCommitment"`
	TotalOperations    int         `json:"totalOperations"`
	TotalPending       int         `json:"totalPending"`
	Deactivated        bool        `json:"deactivated"`
	VersionTime        int         `json:"versionTime"`
	CasCode            string      `json:"casCode"`
	Writer             string      `json:"writer"`
	RetryAttempts      int         `json:"retryAttempts"`
	LedgerTime         int         `json:"ledgerTime"`
	Duration           string      `json:"duration"`
	Reason             string      `json:"reason"`
	Address            string      `json:"address"`
	Fee                int         `json:"fee"`
	Document           string      `json:"document"`
}

func unmarshalLogData(t *testing.T, b []byte) *logData {
	t.Helper()

	l := &logData{}

	require.NoError(t, json.Unmarshal(b, l))

	return l
}

type mockWriter struct {
	*bytes.Buffer
}

func (m *mockWriter) Sync() error {
	return nil
}

func newMockWriter() *mockWriter {
	return &mockWriter{Buffer: bytes.NewBuffer(nil)}
}
