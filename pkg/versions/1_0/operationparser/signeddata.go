/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationparser

import (
	"encoding/json"

	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	internal "github.com/trustbloc/sidetree-node-go/pkg/internal/jws"
	"github.com/trustbloc/sidetree-node-go/pkg/jws"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

func (p *Parser) parseSignedData(compactJWS string) (*internal.JSONWebSignature, error) {
	if compactJWS == "" {
		return nil, sidetreeerr.New(sidetreeerr.SignedDataInvalid, "missing signed data")
	}

	signedData, err := internal.ParseJWS(compactJWS)
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "failed to parse signed data: %s", err.Error())
	}

	err = p.validateProtectedHeaders(signedData.ProtectedHeaders, p.SignatureAlgorithms)
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "failed to parse signed data: %s", err.Error())
	}

	return signedData, nil
}

// decodeSignedPayload unmarshals the payload into schema after checking it carries exactly the given properties.
func decodeSignedPayload(payload []byte, schema interface{}, properties ...string) error {
	var obj map[string]json.RawMessage

	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return sidetreeerr.New(sidetreeerr.SignedDataInvalid, "signed data payload is not an object")
	}

	if err := checkProperties(obj, properties); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "%s", err.Error())
	}

	if err := json.Unmarshal(payload, schema); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "failed to unmarshal signed data: %s", err.Error())
	}

	return nil
}

func (p *Parser) validateProtectedHeaders(headers jws.Headers, allowedAlgorithms []string) error {
	if headers == nil {
		return sidetreeerr.New(sidetreeerr.SignedDataInvalid, "missing protected headers")
	}

	// kid MAY be present in the protected header.
	// alg MUST be present in the protected header, its value MUST NOT be none.
	// no additional members may be present in the protected header.

	alg, ok := headers.Algorithm()
	if !ok || alg == "" {
		return sidetreeerr.New(sidetreeerr.SignedDataInvalid, "algorithm must be present in the protected header")
	}

	allowedHeaders := map[string]bool{
		jws.HeaderAlgorithm: true,
		jws.HeaderKeyID:     true,
	}

	for k := range headers {
		if !allowedHeaders[k] {
			return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "invalid protected header: %s", k)
		}
	}

	if len(allowedAlgorithms) > 0 && !contains(allowedAlgorithms, alg) {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid,
			"algorithm '%s' is not in the allowed list %v", alg, allowedAlgorithms)
	}

	return nil
}

func (p *Parser) validateSigningKey(key *jws.JWK) error {
	if key == nil {
		return sidetreeerr.New(sidetreeerr.SignedDataInvalid, "missing signing key")
	}

	if err := key.Validate(); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "signing key validation failed: %s", err.Error())
	}

	if len(p.KeyAlgorithms) > 0 && !contains(p.KeyAlgorithms, key.Crv) {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid,
			"key algorithm '%s' is not in the allowed list %v", key.Crv, p.KeyAlgorithms)
	}

	return nil
}

// validateRevealValue checks that the reveal value is the multihash of the canonical signing key.
func (p *Parser) validateRevealValue(key *jws.JWK, revealValue string) error {
	if err := hashing.IsValidModelMultihash(key, revealValue); err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid,
			"canonicalized signing key hash doesn't match reveal value: %s", err.Error())
	}

	return nil
}

func (p *Parser) validateCommitment(jwk *jws.JWK, nextCommitment string) error {
	code, err := hashing.GetMultihashCode(nextCommitment)
	if err != nil {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid, "%s", err.Error())
	}

	currentCommitment, err := commitment.GetCommitment(jwk, uint(code))
	if err != nil {
		return sidetreeerr.Newf(sidetreeerr.SignedDataInvalid, "calculate current commitment: %s", err.Error())
	}

	if currentCommitment == nextCommitment {
		return sidetreeerr.New(sidetreeerr.SignedDataInvalid, "re-using public keys for commitment is not allowed")
	}

	return nil
}

// parseReference parses the did suffix and reveal value shared by update, recover and deactivate requests.
func (p *Parser) parseReference(obj map[string]json.RawMessage) (suffix, revealValue, signedData string, err error) {
	suffix, err = unmarshalString(obj, model.DIDSuffixProperty)
	if err != nil {
		return "", "", "", err
	}

	if err = p.validateMultihash(suffix, "did suffix"); err != nil {
		return "", "", "", err
	}

	revealValue, err = unmarshalString(obj, model.RevealValueProperty)
	if err != nil {
		return "", "", "", err
	}

	if err = p.validateMultihash(revealValue, "reveal value"); err != nil {
		return "", "", "", err
	}

	signedData, err = unmarshalString(obj, model.SignedDataProperty)
	if err != nil {
		return "", "", "", err
	}

	return suffix, revealValue, signedData, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
