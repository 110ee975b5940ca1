/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// CoreProofFile defines the schema for core proof file. Core proof file contains the signed data
// of the recover and deactivate operations referenced by the core index file, in the same order.
type CoreProofFile struct {
	// Operations contain proving data for recover and deactivate operations.
	Operations CoreProofOperations `json:"operations"`
}

// CoreProofOperations contains proving data for any recover and deactivate operations to be included in a batch.
type CoreProofOperations struct {
	Recover    []string `json:"recover,omitempty"`
	Deactivate []string `json:"deactivate,omitempty"`
}

// CreateCoreProofFile will create core proof file from provided operations.
// Nil is returned if there are no recover or deactivate operations.
func CreateCoreProofFile(recoverOps, deactivateOps []*model.Operation) *CoreProofFile {
	if len(recoverOps)+len(deactivateOps) == 0 {
		return nil
	}

	return &CoreProofFile{
		Operations: CoreProofOperations{
			Recover:    getSignedData(recoverOps),
			Deactivate: getSignedData(deactivateOps),
		},
	}
}

// ParseCoreProofFile will parse core proof model from content.
func ParseCoreProofFile(content []byte) (*CoreProofFile, error) {
	file := &CoreProofFile{}

	if err := decodeStrict(content, file, sidetreeerr.CoreProofFileInvalid); err != nil {
		return nil, err
	}

	if len(file.Operations.Recover)+len(file.Operations.Deactivate) == 0 {
		return nil, sidetreeerr.New(sidetreeerr.CoreProofFileInvalid, "core proof file has no operations")
	}

	return file, nil
}

// IsEmpty returns true if the file has nothing to write.
func (f *CoreProofFile) IsEmpty() bool {
	return f == nil || len(f.Operations.Recover)+len(f.Operations.Deactivate) == 0
}
