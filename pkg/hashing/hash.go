/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hashing

import (
	"bytes"
	"crypto"
	"hash"

	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// SHA2_256 is the multihash code of the sha2-256 algorithm.
const SHA2_256 uint = multihash.SHA2_256

// SHA3_256 is the multihash code of the sha3-256 algorithm.
const SHA3_256 uint = multihash.SHA3_256

// GetHash returns the hash function for the given multihash code.
func GetHash(multihashCode uint) (hash.Hash, error) {
	switch multihashCode {
	case SHA2_256:
		return crypto.SHA256.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	default:
		return nil, sidetreeerr.Newf(sidetreeerr.UnsupportedHashAlgorithm,
			"algorithm not supported, unable to compute hash for multihash code %d", multihashCode)
	}
}

// Hash computes the raw (non-multihash) digest of data using the given multihash code.
func Hash(multihashCode uint, data []byte) ([]byte, error) {
	h, err := GetHash(multihashCode)
	if err != nil {
		return nil, err
	}

	if _, err := h.Write(data); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// ComputeMultihash will compute the hash for the supplied bytes using multihash code.
func ComputeMultihash(multihashCode uint, data []byte) ([]byte, error) {
	digest, err := Hash(multihashCode, data)
	if err != nil {
		return nil, err
	}

	return multihash.Encode(digest, uint64(multihashCode))
}

// GetMultihash decodes an encoded multihash.
func GetMultihash(encodedMultihash string) (*multihash.DecodedMultihash, error) {
	multihashBytes, err := encoder.DecodeString(encodedMultihash)
	if err != nil {
		return nil, err
	}

	mh, err := multihash.Decode(multihashBytes)
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.MultihashInvalid, "decode multihash: %s", err)
	}

	return mh, nil
}

// GetMultihashCode returns multihash code from encoded multihash.
func GetMultihashCode(encodedMultihash string) (uint64, error) {
	mh, err := GetMultihash(encodedMultihash)
	if err != nil {
		return 0, err
	}

	return mh.Code, nil
}

// IsSupportedMultihash checks to see if the given encoded hash has been hashed using a supported multihash code.
func IsSupportedMultihash(encodedMultihash string) bool {
	code, err := GetMultihashCode(encodedMultihash)
	if err != nil {
		return false
	}

	_, err = GetHash(uint(code))

	return err == nil
}

// IsComputedUsingMultihashAlgorithms checks to see if the given encoded hash has been hashed
// using one of the supplied codes.
func IsComputedUsingMultihashAlgorithms(encodedMultihash string, codes []uint) bool {
	mhCode, err := GetMultihashCode(encodedMultihash)
	if err != nil {
		return false
	}

	for _, code := range codes {
		if uint64(code) == mhCode {
			return true
		}
	}

	return false
}

// CalculateModelMultihash canonicalizes the model and returns its encoded multihash.
func CalculateModelMultihash(value interface{}, alg uint) (string, error) {
	data, err := canonicalizer.MarshalCanonical(value)
	if err != nil {
		return "", errors.Wrap(err, "canonicalize model")
	}

	mh, err := ComputeMultihash(alg, data)
	if err != nil {
		return "", err
	}

	return encoder.EncodeToString(mh), nil
}

// IsValidModelMultihash compares the model with the provided model multihash.
func IsValidModelMultihash(model interface{}, modelMultihash string) error {
	code, err := GetMultihashCode(modelMultihash)
	if err != nil {
		return err
	}

	computed, err := CalculateModelMultihash(model, uint(code))
	if err != nil {
		return err
	}

	if computed != modelMultihash {
		return errors.New("supplied hash doesn't match original content")
	}

	return nil
}

// VerifyEncodedMultihashForContent returns true if the encoded multihash is the multihash of content.
// The algorithm is taken from the encoded multihash. Any failure yields false.
func VerifyEncodedMultihashForContent(content []byte, encodedMultihash string) bool {
	code, err := GetMultihashCode(encodedMultihash)
	if err != nil {
		return false
	}

	computed, err := ComputeMultihash(uint(code), content)
	if err != nil {
		return false
	}

	return encoder.EncodeToString(computed) == encodedMultihash
}

// CanonicalizeAndVerifyDoubleHash returns true if the encoded multihash equals
// multihash(H(canonicalize(content))). Any failure yields false.
func CanonicalizeAndVerifyDoubleHash(content interface{}, encodedMultihash string) bool {
	if content == nil {
		return false
	}

	data, err := canonicalizer.MarshalCanonical(content)
	if err != nil {
		return false
	}

	expected, err := encoder.DecodeString(encodedMultihash)
	if err != nil {
		return false
	}

	mh, err := multihash.Decode(expected)
	if err != nil {
		return false
	}

	intermediate, err := Hash(uint(mh.Code), data)
	if err != nil {
		return false
	}

	actual, err := ComputeMultihash(uint(mh.Code), intermediate)
	if err != nil {
		return false
	}

	return bytes.Equal(actual, expected)
}
