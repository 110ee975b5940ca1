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

const recoveryKeyProperty = "recoveryKey"

// ParseRecoverOperation will parse recover operation.
func (p *Parser) ParseRecoverOperation(request []byte, batch bool) (*model.Operation, error) {
	obj, err := decodeObject(request)
	if err != nil {
		return nil, err
	}

	return p.parseRecoverObject(obj, request, batch)
}

func (p *Parser) parseRecoverObject(obj map[string]json.RawMessage, request []byte, batch bool) (*model.Operation, error) {
	required := []string{model.TypeProperty, model.DIDSuffixProperty, model.RevealValueProperty, model.SignedDataProperty}
	if err := checkProperties(obj, required, model.DeltaProperty); err != nil {
		return nil, err
	}

	suffix, revealValue, signedData, err := p.parseReference(obj)
	if err != nil {
		return nil, err
	}

	signedDataModel, err := p.ParseSignedDataForRecover(signedData)
	if err != nil {
		return nil, err
	}

	if err := p.validateRevealValue(signedDataModel.RecoveryKey, revealValue); err != nil {
		return nil, err
	}

	delta, err := p.parseOptionalDelta(obj, batch)
	if err != nil {
		return nil, err
	}

	if !batch {
		if err := validateRecoverDelta(delta, signedDataModel); err != nil {
			return nil, err
		}
	}

	return &model.Operation{
		OperationRequest: request,
		Type:             operation.TypeRecover,
		UniqueSuffix:     suffix,
		Delta:            delta,
		SignedData:       signedData,
		RevealValue:      revealValue,
	}, nil
}

func validateRecoverDelta(delta *model.DeltaModel, signedData *model.RecoverSignedDataModel) error {
	if delta == nil {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing delta")
	}

	if err := hashing.IsValidModelMultihash(delta, signedData.DeltaHash); err != nil {
		return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "delta doesn't match signed data delta hash: %s", err.Error())
	}

	if delta.UpdateCommitment == signedData.RecoveryCommitment {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid,
			"recovery and update commitments cannot be equal, re-using public keys is not allowed")
	}

	return nil
}

// ParseSignedDataForRecover will parse and validate signed data for recover.
func (p *Parser) ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error) {
	signedData, err := p.parseSignedData(compactJWS)
	if err != nil {
		return nil, err
	}

	schema := &model.RecoverSignedDataModel{}

	err = decodeSignedPayload(signedData.Payload, schema,
		recoveryKeyProperty, deltaHashProperty, recoveryCommitmentProperty)
	if err != nil {
		return nil, err
	}

	if err := p.validateSignedDataForRecovery(schema); err != nil {
		return nil, err
	}

	return schema, nil
}

func (p *Parser) validateSignedDataForRecovery(signedData *model.RecoverSignedDataModel) error {
	if err := p.validateSigningKey(signedData.RecoveryKey); err != nil {
		return err
	}

	if err := p.validateMultihash(signedData.RecoveryCommitment, "recovery commitment"); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "%s", err.Error())
	}

	if err := p.validateMultihash(signedData.DeltaHash, "delta hash"); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "%s", err.Error())
	}

	return p.validateCommitment(signedData.RecoveryKey, signedData.RecoveryCommitment)
}
