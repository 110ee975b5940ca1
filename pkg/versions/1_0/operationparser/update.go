/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

const updateKeyProperty = "updateKey"

// ParseUpdateOperation will parse update operation.
func (p *Parser) ParseUpdateOperation(request []byte, batch bool) (*model.Operation, error) {
	obj, err := decodeObject(request)
	if err != nil {
		return nil, err
	}

	return p.parseUpdateObject(obj, request, batch)
}

func (p *Parser) parseUpdateObject(obj map[string]json.RawMessage, request []byte, batch bool) (*model.Operation, error) {
	required := []string{model.TypeProperty, model.DIDSuffixProperty, model.RevealValueProperty, model.SignedDataProperty}
	if err := checkProperties(obj, required, model.DeltaProperty); err != nil {
		return nil, err
	}

	suffix, revealValue, signedData, err := p.parseReference(obj)
	if err != nil {
		return nil, err
	}

	signedDataModel, err := p.ParseSignedDataForUpdate(signedData)
	if err != nil {
		return nil, err
	}

	if err := p.validateRevealValue(signedDataModel.UpdateKey, revealValue); err != nil {
		return nil, err
	}

	delta, err := p.parseOptionalDelta(obj, batch)
	if err != nil {
		return nil, err
	}

	if !batch {
		if delta == nil {
			return nil, sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing delta")
		}

		if err := hashing.IsValidModelMultihash(delta, signedDataModel.DeltaHash); err != nil {
			return nil, sidetreeerr.Newf(sidetreeerr.DeltaInvalid,
				"delta doesn't match signed data delta hash: %s", err.Error())
		}
	}

	return &model.Operation{
		Type:             operation.TypeUpdate,
		OperationRequest: request,
		UniqueSuffix:     suffix,
		Delta:            delta,
		SignedData:       signedData,
		RevealValue:      revealValue,
	}, nil
}

// ParseSignedDataForUpdate will parse and validate signed data for update.
func (p *Parser) ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error) {
	signedData, err := p.parseSignedData(compactJWS)
	if err != nil {
		return nil, err
	}

	schema := &model.UpdateSignedDataModel{}

	if err := decodeSignedPayload(signedData.Payload, schema, updateKeyProperty, deltaHashProperty); err != nil {
		return nil, err
	}

	if err := p.validateSigningKey(schema.UpdateKey); err != nil {
		return nil, err
	}

	if err := p.validateMultihash(schema.DeltaHash, "delta hash"); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "%s", err.Error())
	}

	return schema, nil
}
