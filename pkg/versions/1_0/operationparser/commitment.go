/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// GetRevealValue returns this operation reveal value.
func (p *Parser) GetRevealValue(opBytes []byte) (string, error) {
	// namespace is irrelevant in this case
	op, err := p.ParseOperation("", opBytes, true)
	if err != nil {
		return "", err
	}

	if op.Type == operation.TypeCreate {
		return "", sidetreeerr.Newf(sidetreeerr.OperationTypeHasNoRevealValue,
			"operation type '%s' has no reveal value", op.Type)
	}

	return op.RevealValue, nil
}

// GetCommitment returns next operation commitment.
func (p *Parser) GetCommitment(opBytes []byte) (string, error) {
	// namespace is irrelevant in this case
	op, err := p.ParseOperation("", opBytes, true)
	if err != nil {
		return "", err
	}

	switch op.Type {
	case operation.TypeCreate:
		return op.SuffixData.RecoveryCommitment, nil

	case operation.TypeUpdate:
		if op.Delta == nil {
			return "", sidetreeerr.New(sidetreeerr.DeltaInvalid, "update has no valid delta")
		}

		return op.Delta.UpdateCommitment, nil

	case operation.TypeDeactivate:
		return "", nil

	case operation.TypeRecover:
		signedDataModel, err := p.ParseSignedDataForRecover(op.SignedData)
		if err != nil {
			return "", err
		}

		return signedDataModel.RecoveryCommitment, nil
	}

	return "", sidetreeerr.Newf(sidetreeerr.OperationTypeUnknown, "operation type '%s' not supported", op.Type)
}
