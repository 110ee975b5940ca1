/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sidetreeerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a stable error code carried by a Sidetree error.
type Code string

// Error codes.
const (
	UnsupportedHashAlgorithm            Code = "unsupported_hash_algorithm"
	EncodedStringIncorrectEncoding      Code = "encoded_string_incorrect_encoding"
	MultihashInvalid                    Code = "multihash_invalid"
	OperationTypeHasNoRevealValue       Code = "operation_type_has_no_reveal_value"
	OperationTypeUnknown                Code = "operation_type_unknown"
	OperationNotJSON                    Code = "operation_not_json"
	OperationMissingOrUnknownProperty   Code = "operation_missing_or_unknown_property"
	OperationExceedsMaximumSize         Code = "operation_exceeds_maximum_size"
	SignedDataInvalid                   Code = "signed_data_invalid"
	DeltaInvalid                        Code = "delta_invalid"
	DeltaExceedsMaximumSize             Code = "delta_exceeds_maximum_size"
	SuffixDataInvalid                   Code = "suffix_data_invalid"
	AnchorStringFormatInvalid           Code = "anchor_string_format_invalid"
	AnchorStringOperationCountInvalid   Code = "anchor_string_operation_count_invalid"
	FileDecompressionFailure            Code = "file_decompression_failure"
	FileExceedsMaxDecompressedSize      Code = "file_exceeds_max_decompressed_size"
	FileNotJSON                         Code = "file_not_json"
	CoreIndexFileInvalid                Code = "core_index_file_invalid"
	CoreIndexFileWriterLockIDTooLarge   Code = "core_index_file_writer_lock_id_too_large"
	CoreIndexFileDuplicateSuffix        Code = "core_index_file_duplicate_suffix"
	CoreProofFileInvalid                Code = "core_proof_file_invalid"
	ProvisionalIndexFileInvalid         Code = "provisional_index_file_invalid"
	ProvisionalProofFileInvalid         Code = "provisional_proof_file_invalid"
	ChunkFileInvalid                    Code = "chunk_file_invalid"
	OperationCountMismatch              Code = "operation_count_mismatch"
	CasURIExceedsMaximumLength          Code = "cas_uri_exceeds_maximum_length"
	CasNotReachable                     Code = "cas_not_reachable"
	CasFileNotFound                     Code = "cas_file_not_found"
	CasFileHashInvalid                  Code = "cas_file_hash_invalid"
	CasFileTooLarge                     Code = "cas_file_too_large"
	CasFileNotAFile                     Code = "cas_file_not_a_file"
	InvalidTransactionNumberOrTimeHash  Code = "invalid_transaction_number_or_time_hash"
	TransactionFeePaidInvalid           Code = "transaction_fee_paid_invalid"
	TransactionFeeLessThanNormalizedFee Code = "transaction_fee_less_than_normalized_fee"
	ValueTimeLockRequired               Code = "value_time_lock_required"
	ValueTimeLockTargetWriterMismatch   Code = "value_time_lock_target_writer_mismatch"
	ValueTimeLockNotActive              Code = "value_time_lock_not_active"
	ValueTimeLockAmountInsufficient     Code = "value_time_lock_amount_insufficient"
	VersionNotFound                     Code = "version_not_found"
	NotFound                            Code = "not_found"
	DIDInvalid                          Code = "did_invalid"
)

// Error is a typed domain error. Every validation failure is reported with one of these.
type Error struct {
	Code    Code
	Message string
}

// New returns a new Sidetree error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf returns a new Sidetree error with the given code and formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the Sidetree error wrapped in err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error

	if errors.As(err, &e) {
		return e.Code, true
	}

	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Code, true
	}

	return "", false
}

// Is returns true if err is (or wraps) a Sidetree error with the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)

	return ok && c == code
}
