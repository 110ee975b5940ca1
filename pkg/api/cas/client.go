/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cas

import "context"

// FetchResultCode describes the outcome of a CAS read.
type FetchResultCode string

// Fetch result codes.
const (
	Success         FetchResultCode = "success"
	NotFound        FetchResultCode = "content_not_found"
	InvalidHash     FetchResultCode = "content_hash_invalid"
	MaxSizeExceeded FetchResultCode = "content_exceeds_maximum_allowed_size"
	NotAFile        FetchResultCode = "content_not_a_file"
	NotReachable    FetchResultCode = "cas_not_reachable"
)

// FetchResult holds the outcome of a CAS read. Content is set only when Code is Success.
type FetchResult struct {
	Code    FetchResultCode
	Content []byte
}

// Reader reads content from the underlying content addressable storage.
type Reader interface {
	// Read reads at most maxSize bytes of the content at the given address. Failures are reported
	// through the result code, never as an error.
	Read(ctx context.Context, address string, maxSize uint) *FetchResult
}

// Writer writes content to the underlying content addressable storage.
type Writer interface {
	// Write writes the given content and returns its address.
	Write(content []byte) (string, error)
}

// Client defines interface for accessing the underlying content addressable storage.
type Client interface {
	Reader
	Writer
}
