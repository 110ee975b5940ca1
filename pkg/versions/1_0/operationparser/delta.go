/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationparser/patchvalidator"
)

const (
	patchesProperty          = "patches"
	updateCommitmentProperty = "updateCommitment"
)

func (p *Parser) parseDelta(raw json.RawMessage) (*model.DeltaModel, error) {
	var obj map[string]json.RawMessage

	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, sidetreeerr.New(sidetreeerr.DeltaInvalid, "delta is not an object")
	}

	if err := checkProperties(obj, []string{patchesProperty, updateCommitmentProperty}); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s", err.Error())
	}

	delta := &model.DeltaModel{}

	if err := json.Unmarshal(raw, delta); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "failed to unmarshal delta: %s", err.Error())
	}

	if err := p.ValidateDelta(delta); err != nil {
		return nil, err
	}

	return delta, nil
}

// ValidateDelta validates delta.
func (p *Parser) ValidateDelta(delta *model.DeltaModel) error {
	if delta == nil {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing delta")
	}

	if err := p.validateDeltaSize(delta); err != nil {
		return err
	}

	if len(delta.Patches) == 0 {
		return sidetreeerr.New(sidetreeerr.DeltaInvalid, "missing patches")
	}

	for _, ptch := range delta.Patches {
		action, err := ptch.GetAction()
		if err != nil {
			return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s", err.Error())
		}

		if !p.isPatchEnabled(action) {
			return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s patch action is not enabled", action)
		}

		if err := patchvalidator.Validate(ptch); err != nil {
			return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s", err.Error())
		}
	}

	if err := checkDuplicateIDs(delta.Patches); err != nil {
		return err
	}

	if err := p.validateMultihash(delta.UpdateCommitment, "update commitment"); err != nil {
		return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s", err.Error())
	}

	return nil
}

func (p *Parser) validateDeltaSize(delta *model.DeltaModel) error {
	canonicalDelta, err := canonicalizer.MarshalCanonical(delta)
	if err != nil {
		return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "marshal canonical for delta failed: %s", err.Error())
	}

	if len(canonicalDelta) > int(p.MaxDeltaSize) {
		return sidetreeerr.Newf(sidetreeerr.DeltaExceedsMaximumSize,
			"delta size[%d] exceeds maximum delta size[%d]", len(canonicalDelta), p.MaxDeltaSize)
	}

	return nil
}

func (p *Parser) validateMultihash(mh, alias string) error {
	if p.MaxOperationHashLength > 0 && len(mh) > int(p.MaxOperationHashLength) {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid,
			"%s length[%d] exceeds maximum hash length[%d]", alias, len(mh), p.MaxOperationHashLength)
	}

	if !hashing.IsComputedUsingMultihashAlgorithms(mh, p.MultihashAlgorithms) {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid,
			"%s is not computed with the required hash algorithms: %d", alias, p.MultihashAlgorithms)
	}

	return nil
}

func (p *Parser) isPatchEnabled(action patch.Action) bool {
	for _, allowed := range p.Patches {
		if patch.Action(allowed) == action {
			return true
		}
	}

	return false
}

// checkDuplicateIDs rejects a patch list that adds the same key or service id more than once.
func checkDuplicateIDs(patches []patch.Patch) error {
	keyIDs := make(map[string]bool)
	serviceIDs := make(map[string]bool)

	for _, ptch := range patches {
		var keys []document.PublicKey

		var services []document.Service

		action, err := ptch.GetAction()
		if err != nil {
			return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "%s", err.Error())
		}

		switch action {
		case patch.AddPublicKeys:
			keys = document.ParsePublicKeys(ptch[patch.PublicKeys])
		case patch.AddServiceEndpoints:
			services = document.ParseServices(ptch[patch.ServicesKey])
		case patch.Replace:
			if doc, ok := ptch[patch.DocumentKey].(map[string]interface{}); ok {
				replace := document.ReplaceDocumentFromJSONLDObject(doc)
				keys = replace.PublicKeys()
				services = replace.Services()
			}
		case patch.RemovePublicKeys, patch.RemoveServiceEndpoints, patch.JSONPatch:
		}

		for _, key := range keys {
			if keyIDs[key.ID()] {
				return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "duplicate public key id across patches: %s", key.ID())
			}

			keyIDs[key.ID()] = true
		}

		for _, service := range services {
			if serviceIDs[service.ID()] {
				return sidetreeerr.Newf(sidetreeerr.DeltaInvalid, "duplicate service id across patches: %s", service.ID())
			}

			serviceIDs[service.ID()] = true
		}
	}

	return nil
}
