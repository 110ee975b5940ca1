/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// ProvisionalIndexFile defines the schema for provisional index file and its related operations.
type ProvisionalIndexFile struct {
	// ProvisionalProofFileURI is provisional proof file URI
	ProvisionalProofFileURI string `json:"provisionalProofFileUri,omitempty"`

	// Chunks are chunk entries for the related delta data for a given chunk of operations in the batch.
	Chunks []Chunk `json:"chunks"`

	// Operations will contain provisional (update) operations
	Operations *ProvisionalOperations `json:"operations,omitempty"`
}

// ProvisionalOperations contains minimal operation proving data for provisional (update) operations.
type ProvisionalOperations struct {
	Update []OperationReference `json:"update,omitempty"`
}

// Chunk holds chunk file URI.
type Chunk struct {
	ChunkFileURI string `json:"chunkFileUri"`
}

// CreateProvisionalIndexFile will create provisional index file model from operations and chunk file URI.
// Nil is returned if there is no chunk to point to.
func CreateProvisionalIndexFile(chunkURIs []string, provisionalProofURI string, updateOps []*model.Operation) *ProvisionalIndexFile {
	if len(chunkURIs) == 0 {
		return nil
	}

	var provisionalOps *ProvisionalOperations
	if len(updateOps) > 0 {
		provisionalOps = &ProvisionalOperations{}
		provisionalOps.Update = getOperationReferences(updateOps)
	}

	return &ProvisionalIndexFile{
		Chunks:                  getChunks(chunkURIs),
		ProvisionalProofFileURI: provisionalProofURI,
		Operations:              provisionalOps,
	}
}

// ParseProvisionalIndexFile will parse content into provisional index file model.
func ParseProvisionalIndexFile(content []byte) (*ProvisionalIndexFile, error) {
	file := &ProvisionalIndexFile{}

	if err := decodeStrict(content, file, sidetreeerr.ProvisionalIndexFileInvalid); err != nil {
		return nil, err
	}

	if len(file.Chunks) != 1 {
		return nil, sidetreeerr.Newf(sidetreeerr.ProvisionalIndexFileInvalid,
			"expecting exactly one chunk, got %d", len(file.Chunks))
	}

	if file.Chunks[0].ChunkFileURI == "" {
		return nil, sidetreeerr.New(sidetreeerr.ProvisionalIndexFileInvalid, "missing chunk file URI")
	}

	updates := file.UpdateCount()

	if updates > 0 && file.ProvisionalProofFileURI == "" {
		return nil, sidetreeerr.New(sidetreeerr.ProvisionalIndexFileInvalid, "missing provisional proof file URI")
	}

	if updates == 0 && file.ProvisionalProofFileURI != "" {
		return nil, sidetreeerr.New(sidetreeerr.ProvisionalIndexFileInvalid,
			"provisional proof file URI should be empty if there are no update operations")
	}

	return file, nil
}

// UpdateCount returns the number of update references.
func (f *ProvisionalIndexFile) UpdateCount() int {
	if f.Operations == nil {
		return 0
	}

	return len(f.Operations.Update)
}

// IsEmpty returns true if the file has nothing to write.
func (f *ProvisionalIndexFile) IsEmpty() bool {
	return f == nil || len(f.Chunks) == 0
}

func getChunks(uris []string) []Chunk {
	var chunks []Chunk

	for _, uri := range uris {
		chunks = append(chunks, Chunk{
			ChunkFileURI: uri,
		})
	}

	return chunks
}
