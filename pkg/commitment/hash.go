/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commitment

import (
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

// GetCommitment calculates the commitment for a JWK: encode(multihash(H(canonical(jwk)))).
// Only the commitment is published; the key behind it stays unknown until it is revealed.
func GetCommitment(jwk *jws.JWK, multihashCode uint) (string, error) {
	data, err := canonicalizer.MarshalCanonical(jwk)
	if err != nil {
		return "", errors.Wrap(err, "canonicalize JWK")
	}

	digest, err := hashing.Hash(multihashCode, data)
	if err != nil {
		return "", err
	}

	mh, err := hashing.ComputeMultihash(multihashCode, digest)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(mh), nil
}

// GetRevealValue calculates the reveal value for a JWK: encode(multihash(canonical(jwk))).
func GetRevealValue(jwk *jws.JWK, multihashCode uint) (string, error) {
	rv, err := hashing.CalculateModelMultihash(jwk, multihashCode)
	if err != nil {
		return "", errors.Wrap(err, "calculate reveal value")
	}

	return rv, nil
}

// GetCommitmentFromRevealValue derives the commitment that the given reveal value opens.
// The digest of the reveal value is hashed again using the reveal value's own algorithm.
func GetCommitmentFromRevealValue(revealValue string) (string, error) {
	mh, err := hashing.GetMultihash(revealValue)
	if err != nil {
		return "", errors.Wrap(err, "decode reveal value")
	}

	commitment, err := hashing.ComputeMultihash(uint(mh.Code), mh.Digest)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(commitment), nil
}
