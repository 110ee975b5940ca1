/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// CoreIndexFile defines the schema of core index file.
type CoreIndexFile struct {
	// WriterLockID is the identifier of the value time lock held by the writer (optional).
	WriterLockID string `json:"writerLockId,omitempty"`

	// ProvisionalIndexFileURI is provisional index file URI.
	ProvisionalIndexFileURI string `json:"provisionalIndexFileUri,omitempty"`

	// CoreProofFileURI is core proof file URI.
	CoreProofFileURI string `json:"coreProofFileUri,omitempty"`

	// Operations contain proving data for create, recover and deactivate operations.
	Operations *CoreOperations `json:"operations,omitempty"`
}

// CoreOperations contains operation references.
type CoreOperations struct {
	Create     []CreateReference    `json:"create,omitempty"`
	Recover    []OperationReference `json:"recover,omitempty"`
	Deactivate []OperationReference `json:"deactivate,omitempty"`
}

// CreateReference contains create operation reference.
type CreateReference struct {
	// SuffixData object
	SuffixData *model.SuffixDataModel `json:"suffixData"`
}

// CreateCoreIndexFile will create core index file from provided operations.
// Nil is returned if there is nothing to anchor.
func CreateCoreIndexFile(writerLockID, coreProofURI, provisionalIndexURI string, ops *SortedOperations) *CoreIndexFile {
	if ops.Size() == 0 {
		return nil
	}

	var coreOps *CoreOperations

	if len(ops.Create)+len(ops.Recover)+len(ops.Deactivate) > 0 {
		coreOps = &CoreOperations{
			Create:     assembleCreateReferences(ops.Create),
			Recover:    getOperationReferences(ops.Recover),
			Deactivate: getOperationReferences(ops.Deactivate),
		}
	}

	return &CoreIndexFile{
		WriterLockID:            writerLockID,
		CoreProofFileURI:        coreProofURI,
		ProvisionalIndexFileURI: provisionalIndexURI,
		Operations:              coreOps,
	}
}

func assembleCreateReferences(createOps []*model.Operation) []CreateReference {
	var result []CreateReference

	for _, op := range createOps {
		result = append(result, CreateReference{SuffixData: op.SuffixData})
	}

	return result
}

// ParseCoreIndexFile will parse core index file model from content. Unknown properties are rejected
// and the file pointers are checked against the operations the file references.
func ParseCoreIndexFile(content []byte) (*CoreIndexFile, error) {
	file := &CoreIndexFile{}

	if err := decodeStrict(content, file, sidetreeerr.CoreIndexFileInvalid); err != nil {
		return nil, err
	}

	if err := file.validate(); err != nil {
		return nil, err
	}

	return file, nil
}

// CreateCount returns the number of create references.
func (f *CoreIndexFile) CreateCount() int {
	if f.Operations == nil {
		return 0
	}

	return len(f.Operations.Create)
}

// RecoverCount returns the number of recover references.
func (f *CoreIndexFile) RecoverCount() int {
	if f.Operations == nil {
		return 0
	}

	return len(f.Operations.Recover)
}

// DeactivateCount returns the number of deactivate references.
func (f *CoreIndexFile) DeactivateCount() int {
	if f.Operations == nil {
		return 0
	}

	return len(f.Operations.Deactivate)
}

// IsEmpty returns true if the file has nothing to write.
func (f *CoreIndexFile) IsEmpty() bool {
	return f == nil || (f.Operations == nil && f.ProvisionalIndexFileURI == "")
}

func (f *CoreIndexFile) validate() error {
	if f.Operations != nil {
		for i, ref := range f.Operations.Create {
			if ref.SuffixData == nil {
				return sidetreeerr.Newf(sidetreeerr.CoreIndexFileInvalid, "missing suffix data for create[%d]", i)
			}
		}
	}

	if f.CreateCount()+f.RecoverCount() > 0 && f.ProvisionalIndexFileURI == "" {
		return sidetreeerr.New(sidetreeerr.CoreIndexFileInvalid,
			"provisional index file URI is required when create or recover operations are present")
	}

	proofOps := f.RecoverCount() + f.DeactivateCount()

	if proofOps > 0 && f.CoreProofFileURI == "" {
		return sidetreeerr.New(sidetreeerr.CoreIndexFileInvalid, "missing core proof file URI")
	}

	if proofOps == 0 && f.CoreProofFileURI != "" {
		return sidetreeerr.New(sidetreeerr.CoreIndexFileInvalid,
			"core proof file URI should be empty if there are no recover and/or deactivate operations")
	}

	if f.CreateCount()+proofOps == 0 && f.ProvisionalIndexFileURI == "" {
		return sidetreeerr.New(sidetreeerr.CoreIndexFileInvalid, "core index file has no operations")
	}

	return nil
}

// ValidateWriterLockID checks the writer lock id against the maximum allowed size.
func (f *CoreIndexFile) ValidateWriterLockID(maxSize uint) error {
	if uint(len(f.WriterLockID)) > maxSize {
		return sidetreeerr.Newf(sidetreeerr.CoreIndexFileWriterLockIDTooLarge,
			"writer lock id size[%d] exceeds maximum size[%d]", len(f.WriterLockID), maxSize)
	}

	return nil
}
