/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

const (
	deltaHashProperty          = "deltaHash"
	recoveryCommitmentProperty = "recoveryCommitment"
)

// ParseCreateOperation will parse create operation.
func (p *Parser) ParseCreateOperation(request []byte, batch bool) (*model.Operation, error) {
	obj, err := decodeObject(request)
	if err != nil {
		return nil, err
	}

	return p.parseCreateObject(obj, request, batch)
}

func (p *Parser) parseCreateObject(obj map[string]json.RawMessage, request []byte, batch bool) (*model.Operation, error) {
	if err := checkProperties(obj, []string{model.TypeProperty, model.SuffixDataProperty}, model.DeltaProperty); err != nil {
		return nil, err
	}

	// create is not valid if suffix data is not valid
	suffixData, err := p.parseSuffixData(obj[model.SuffixDataProperty])
	if err != nil {
		return nil, err
	}

	delta, err := p.parseOptionalDelta(obj, batch)
	if err != nil {
		return nil, err
	}

	if !batch {
		if err := p.validateCreateDelta(delta, suffixData); err != nil {
			return nil, err
		}
	}

	uniqueSuffix, err := model.GetUniqueSuffix(suffixData, p.MultihashAlgorithms)
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SuffixDataInvalid, "%s", err.Error())
	}

	return &model.Operation{
		OperationRequest: request,
		Type:             operation.TypeCreate,
		UniqueSuffix:     uniqueSuffix,
		Delta:            delta,
		SuffixData:       suffixData,
	}, nil
}

func (p *Parser) validateCreateDelta(delta *model.DeltaModel, suffixData *model.SuffixDataModel) error {
	if delta == nil {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing delta")
	}

	if err := hashing.IsValidModelMultihash(delta, suffixData.DeltaHash); err != nil {
		return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "delta doesn't match suffix data delta hash: %s", err.Error())
	}

	if delta.UpdateCommitment == suffixData.RecoveryCommitment {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid,
			"recovery and update commitments cannot be equal, re-using public keys is not allowed")
	}

	return nil
}

func (p *Parser) parseSuffixData(raw json.RawMessage) (*model.SuffixDataModel, error) {
	var obj map[string]json.RawMessage

	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, sidetreeerr.New(sidetreeerr.SuffixDataInvalid, "suffix data is not an object")
	}

	if err := checkProperties(obj, []string{deltaHashProperty, recoveryCommitmentProperty}, model.TypeProperty); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SuffixDataInvalid, "%s", err.Error())
	}

	suffixData := &model.SuffixDataModel{}

	if err := json.Unmarshal(raw, suffixData); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SuffixDataInvalid, "failed to unmarshal suffix data: %s", err.Error())
	}

	if err := p.ValidateSuffixData(suffixData); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SuffixDataInvalid, "%s", err.Error())
	}

	return suffixData, nil
}

// ValidateSuffixData validates suffix data.
func (p *Parser) ValidateSuffixData(suffixData *model.SuffixDataModel) error {
	if suffixData == nil {
		return sidetreeerr.New(sidetreeerr.SuffixDataInvalid, "missing suffix data")
	}

	if err := p.validateMultihash(suffixData.RecoveryCommitment, "recovery commitment"); err != nil {
		return err
	}

	return p.validateMultihash(suffixData.DeltaHash, "delta hash")
}

// parseOptionalDelta returns nil if the delta is absent. In batch mode an invalid delta is also returned as nil.
func (p *Parser) parseOptionalDelta(obj map[string]json.RawMessage, batch bool) (*model.DeltaModel, error) {
	raw, ok := obj[model.DeltaProperty]
	if !ok {
		return nil, nil
	}

	delta, err := p.parseDelta(raw)
	if err != nil {
		if batch {
			p.logger.Debug("Ignoring invalid delta", log.WithError(err))

			return nil, nil
		}

		return nil, err
	}

	return delta, nil
}
