/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log Fields.
const (
	FieldURI                = "uri"
	FieldSize               = "size"
	FieldMaxSize            = "maxSize"
	FieldTotal              = "total"
	FieldSuffix             = "suffix"
	FieldSuffixes           = "suffixes"
	FieldOperationType      = "operationType"
	FieldOperation          = "operation"
	FieldOperationIndex     = "operationIndex"
	FieldSidetreeTxn        = "sidetreeTxn"
	FieldNamespace          = "namespace"
	FieldAnchorString       = "anchorString"
	FieldTransactionTime    = "transactionTime"
	FieldTransactionNumber  = "transactionNumber"
	FieldCommitment         = "commitment"
	FieldRecoveryCommitment = "recoveryCommitment"
	FieldUpdateCommitment   = "updateCommitment"
	FieldTotalOperations    = "totalOperations"
	FieldTotalPending       = "totalPending"
	FieldDeactivated        = "deactivated"
	FieldVersionTime        = "versionTime"
	FieldCasCode            = "casCode"
	FieldWriter             = "writer"
	FieldRetryAttempts      = "retryAttempts"
	FieldLedgerTime         = "ledgerTime"
	FieldDuration           = "duration"
	FieldReason             = "reason"
	FieldAddress            = "address"
	FieldFee                = "fee"
	FieldVersion            = "version"
)

// WithError sets the error field.
func WithError(err error) zap.Field {
	return zap.Error(err)
}

// WithURIString sets the uri field.
func WithURIString(value string) zap.Field {
	return zap.String(FieldURI, value)
}

// WithSize sets the size field.
func WithSize(value int) zap.Field {
	return zap.Int(FieldSize, value)
}

// WithMaxSize sets the max-size field.
func WithMaxSize(value int) zap.Field {
	return zap.Int(FieldMaxSize, value)
}

// WithTotal sets the total field.
func WithTotal(value int) zap.Field {
	return zap.Int(FieldTotal, value)
}

// WithSuffix sets the suffix field.
func WithSuffix(value string) zap.Field {
	return zap.String(FieldSuffix, value)
}

// WithSuffixes sets the suffixes field.
func WithSuffixes(value ...string) zap.Field {
	return zap.Array(FieldSuffixes, NewStringArrayMarshaller(value))
}

// WithOperationType sets the operation-type field.
func WithOperationType(value string) zap.Field {
	return zap.Any(FieldOperationType, value)
}

// WithOperation sets the operation field.
func WithOperation(value interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldOperation, value))
}

// WithOperationIndex sets the operation-index field.
func WithOperationIndex(value uint) zap.Field {
	return zap.Uint(FieldOperationIndex, value)
}

// WithSidetreeTxn sets the sidetree-txn field.
func WithSidetreeTxn(value interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldSidetreeTxn, value))
}

// WithNamespace sets the namespace field.
func WithNamespace(value string) zap.Field {
	return zap.String(FieldNamespace, value)
}

// WithAnchorString sets the anchor-string field.
func WithAnchorString(value string) zap.Field {
	return zap.String(FieldAnchorString, value)
}

// WithTotalPending sets the total-pending field.
func WithTotalPending(value uint) zap.Field {
	return zap.Uint(FieldTotalPending, value)
}

// WithTransactionTime sets the transaction-time field.
func WithTransactionTime(value uint64) zap.Field {
	return zap.Uint64(FieldTransactionTime, value)
}

// WithTransactionNumber sets the transaction-number field.
func WithTransactionNumber(value uint64) zap.Field {
	return zap.Uint64(FieldTransactionNumber, value)
}

// WithCommitment sets the commitment field.
func WithCommitment(value string) zap.Field {
	return zap.String(FieldCommitment, value)
}

// WithRecoveryCommitment sets the recovery-commitment field.
func WithRecoveryCommitment(value string) zap.Field {
	return zap.String(FieldRecoveryCommitment, value)
}

// WithUpdateCommitment sets the update-commitment field.
func WithUpdateCommitment(value string) zap.Field {
	return zap.String(FieldUpdateCommitment, value)
}

// WithTotalOperations sets the total-operations field.
func WithTotalOperations(value int) zap.Field {
	return zap.Int(FieldTotalOperations, value)
}

// WithDeactivated sets the deactivated field.
func WithDeactivated(value bool) zap.Field {
	return zap.Bool(FieldDeactivated, value)
}

// WithVersionTime sets the version-time field.
func WithVersionTime(value uint64) zap.Field {
	return zap.Uint64(FieldVersionTime, value)
}

// WithCasCode sets the cas-code field.
func WithCasCode(value string) zap.Field {
	return zap.String(FieldCasCode, value)
}

// WithWriter sets the writer field.
func WithWriter(value string) zap.Field {
	return zap.String(FieldWriter, value)
}

// WithRetryAttempts sets the retry-attempts field.
func WithRetryAttempts(value int) zap.Field {
	return zap.Int(FieldRetryAttempts, value)
}

// WithLedgerTime sets the ledger-time field.
func WithLedgerTime(value uint64) zap.Field {
	return zap.Uint64(FieldLedgerTime, value)
}

// WithDuration sets the duration field.
func WithDuration(value time.Duration) zap.Field {
	return zap.Duration(FieldDuration, value)
}

// WithReason sets the reason field.
func WithReason(value string) zap.Field {
	return zap.String(FieldReason, value)
}

// WithAddress sets the address field.
func WithAddress(value string) zap.Field {
	return zap.String(FieldAddress, value)
}

// WithFee sets the fee field.
func WithFee(value uint64) zap.Field {
	return zap.Uint64(FieldFee, value)
}

// WithVersion sets the protocol version field.
func WithVersion(value string) zap.Field {
	return zap.String(FieldVersion, value)
}

type jsonMarshaller struct {
	key string
	obj interface{}
}

func newJSONMarshaller(key string, value interface{}) *jsonMarshaller {
	return &jsonMarshaller{key: key, obj: value}
}

func (m *jsonMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	b, err := json.Marshal(m.obj)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	e.AddString(m.key, string(b))

	return nil
}

// WithDocument sets the document field.
func WithDocument(value map[string]interface{}) zap.Field {
	return zap.Inline(newJSONMarshaller("document", value))
}

// ObjectMarshaller uses reflection to marshal an object's fields.
type ObjectMarshaller struct {
	key string
	obj interface{}
}

// NewObjectMarshaller returns a new ObjectMarshaller.
func NewObjectMarshaller(key string, obj interface{}) *ObjectMarshaller {
	return &ObjectMarshaller{key: key, obj: obj}
}

// MarshalLogObject marshals the object's fields.
func (m *ObjectMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	return e.AddReflected(m.key, m.obj)
}

// StringArrayMarshaller marshals an array of strings into a log field.
type StringArrayMarshaller struct {
	values []string
}

// NewStringArrayMarshaller returns a new StringArrayMarshaller.
func NewStringArrayMarshaller(values []string) *StringArrayMarshaller {
	return &StringArrayMarshaller{values: values}
}

// MarshalLogArray marshals the array.
func (m *StringArrayMarshaller) MarshalLogArray(e zapcore.ArrayEncoder) error {
	for _, v := range m.values {
		e.AppendString(v)
	}

	return nil
}
