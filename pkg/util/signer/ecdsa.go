/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

// ECDSASigner signs with an ECDSA private key and produces IEEE P1363 (r||s) signatures.
type ECDSASigner struct {
	alg        string
	kid        string
	privateKey *ecdsa.PrivateKey
}

// NewECDSA creates new ECDSA signer.
func NewECDSA(privKey *ecdsa.PrivateKey, alg, kid string) *ECDSASigner {
	return &ECDSASigner{privateKey: privKey, kid: kid, alg: alg}
}

// Headers provides required JWS protected headers. It provides information about signing key and algorithm.
func (s *ECDSASigner) Headers() jws.Headers {
	return headers(s.alg, s.kid)
}

// Sign signs msg and returns signature value.
func (s *ECDSASigner) Sign(msg []byte) ([]byte, error) {
	if s.privateKey == nil {
		return nil, errors.New("private key not provided")
	}

	hasher := getHasher(s.privateKey.Curve).New()

	_, err := hasher.Write(msg)
	if err != nil {
		return nil, err
	}

	r, sig, err := ecdsa.Sign(rand.Reader, s.privateKey, hasher.Sum(nil))
	if err != nil {
		return nil, err
	}

	const bitsInByte = 8

	curveBits := s.privateKey.Curve.Params().BitSize

	keyBytes := curveBits / bitsInByte
	if curveBits%bitsInByte > 0 {
		keyBytes++
	}

	return append(copyPadded(r.Bytes(), keyBytes), copyPadded(sig.Bytes(), keyBytes)...), nil
}

func copyPadded(source []byte, size int) []byte {
	dest := make([]byte, size)
	copy(dest[size-len(source):], source)

	return dest
}

func getHasher(curve elliptic.Curve) crypto.Hash {
	switch curve {
	case elliptic.P384():
		return crypto.SHA384
	case elliptic.P521():
		return crypto.SHA512
	case btcec.S256():
		return crypto.SHA256
	default:
		return crypto.SHA256
	}
}

func headers(alg, kid string) jws.Headers {
	h := make(jws.Headers)

	if alg != "" {
		h[jws.HeaderAlgorithm] = alg
	}

	if kid != "" {
		h[jws.HeaderKeyID] = kid
	}

	return h
}
