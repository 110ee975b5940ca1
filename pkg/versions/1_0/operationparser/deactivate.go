/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

// ParseDeactivateOperation will parse deactivate operation.
func (p *Parser) ParseDeactivateOperation(request []byte) (*model.Operation, error) {
	obj, err := decodeObject(request)
	if err != nil {
		return nil, err
	}

	return p.parseDeactivateObject(obj, request)
}

func (p *Parser) parseDeactivateObject(obj map[string]json.RawMessage, request []byte) (*model.Operation, error) {
	required := []string{model.TypeProperty, model.DIDSuffixProperty, model.RevealValueProperty, model.SignedDataProperty}
	if err := checkProperties(obj, required); err != nil {
		return nil, err
	}

	suffix, revealValue, signedData, err := p.parseReference(obj)
	if err != nil {
		return nil, err
	}

	signedDataModel, err := p.ParseSignedDataForDeactivate(signedData)
	if err != nil {
		return nil, err
	}

	if signedDataModel.DidSuffix != suffix {
		return nil, sidetreeerr.New(sidetreeerr.SignedDataInvalid, "signed did suffix mismatch for deactivate")
	}

	if err := p.validateRevealValue(signedDataModel.RecoveryKey, revealValue); err != nil {
		return nil, err
	}

	return &model.Operation{
		Type:             operation.TypeDeactivate,
		OperationRequest: request,
		UniqueSuffix:     suffix,
		SignedData:       signedData,
		RevealValue:      revealValue,
	}, nil
}

// ParseSignedDataForDeactivate will parse and validate signed data for deactivate.
func (p *Parser) ParseSignedDataForDeactivate(compactJWS string) (*model.DeactivateSignedDataModel, error) {
	signedData, err := p.parseSignedData(compactJWS)
	if err != nil {
		return nil, err
	}

	schema := &model.DeactivateSignedDataModel{}

	if err := decodeSignedPayload(signedData.Payload, schema, model.DIDSuffixProperty, recoveryKeyProperty); err != nil {
		return nil, err
	}

	if err := p.validateSigningKey(schema.RecoveryKey); err != nil {
		return nil, err
	}

	return schema, nil
}
