/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// ProvisionalProofFile defines the schema for provisional proof file. It holds the signed data
// of the update operations referenced by the provisional index file, in the same order.
type ProvisionalProofFile struct {
	Operations ProvisionalProofOperations `json:"operations"`
}

// ProvisionalProofOperations contains proving data for update operations.
type ProvisionalProofOperations struct {
	Update []string `json:"update,omitempty"`
}

// CreateProvisionalProofFile will create provisional proof file from update operations.
// Nil is returned if there are no update operations.
func CreateProvisionalProofFile(updateOps []*model.Operation) *ProvisionalProofFile {
	if len(updateOps) == 0 {
		return nil
	}

	return &ProvisionalProofFile{
		Operations: ProvisionalProofOperations{
			Update: getSignedData(updateOps),
		},
	}
}

// ParseProvisionalProofFile will parse provisional proof model from content.
func ParseProvisionalProofFile(content []byte) (*ProvisionalProofFile, error) {
	file := &ProvisionalProofFile{}

	if err := decodeStrict(content, file, sidetreeerr.ProvisionalProofFileInvalid); err != nil {
		return nil, err
	}

	if len(file.Operations.Update) == 0 {
		return nil, sidetreeerr.New(sidetreeerr.ProvisionalProofFileInvalid, "provisional proof file has no operations")
	}

	return file, nil
}

// IsEmpty returns true if the file has nothing to write.
func (f *ProvisionalProofFile) IsEmpty() bool {
	return f == nil || len(f.Operations.Update) == 0
}
