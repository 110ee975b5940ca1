/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"crypto/ed25519"
	"errors"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

// Ed25519Signer signs with an Ed25519 private key.
type Ed25519Signer struct {
	alg        string
	kid        string
	privateKey ed25519.PrivateKey
}

// NewEd25519 returns ED25519 signer.
func NewEd25519(privKey ed25519.PrivateKey, alg, kid string) *Ed25519Signer {
	return &Ed25519Signer{privateKey: privKey, kid: kid, alg: alg}
}

// Headers provides required JWS protected headers.
func (s *Ed25519Signer) Headers() jws.Headers {
	return headers(s.alg, s.kid)
}

// Sign signs msg and returns signature value.
func (s *Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	if l := len(s.privateKey); l != ed25519.PrivateKeySize {
		return nil, errors.New("invalid private key size")
	}

	return ed25519.Sign(s.privateKey, msg), nil
}
