/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata

import (
	"errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
)

// Metadata is responsible for creating document metadata.
type Metadata struct {
	includeCommitments bool
}

// Option is a metadata instance option.
type Option func(opts *Metadata)

// New creates a new metadata transformer.
func New(opts ...Option) *Metadata {
	md := &Metadata{includeCommitments: true}

	for _, opt := range opts {
		opt(md)
	}

	return md
}

// WithIncludeCommitments sets whether the next recovery and update commitments are published in method metadata.
func WithIncludeCommitments(enabled bool) Option {
	return func(opts *Metadata) {
		opts.includeCommitments = enabled
	}
}

// CreateDocumentMetadata will create document metadata from DID state.
func (t *Metadata) CreateDocumentMetadata(state *protocol.DIDState, info protocol.TransformationInfo) (document.Metadata, error) {
	if state == nil {
		return nil, errors.New("DID state is required for creating document metadata")
	}

	if info == nil {
		return nil, errors.New("transformation info is required for creating document metadata")
	}

	published, ok := info[protocol.PublishedKey]
	if !ok {
		return nil, errors.New("published is required for creating document metadata")
	}

	methodMetadata := make(document.Metadata)
	methodMetadata[document.PublishedProperty] = published

	if t.includeCommitments {
		if state.RecoveryCommitment != "" {
			methodMetadata[document.RecoveryCommitmentProperty] = state.RecoveryCommitment
		}

		if state.UpdateCommitment != "" {
			methodMetadata[document.UpdateCommitmentProperty] = state.UpdateCommitment
		}
	}

	if published == true {
		methodMetadata[document.LastTransactionNumberProperty] = state.LastOperationTransactionNumber
	}

	docMetadata := make(document.Metadata)
	docMetadata[document.MethodProperty] = methodMetadata

	if state.Deactivated() {
		docMetadata[document.DeactivatedProperty] = true
	}

	if canonicalID, ok := info[document.CanonicalIDProperty]; ok {
		docMetadata[document.CanonicalIDProperty] = canonicalID
	}

	return docMetadata, nil
}
