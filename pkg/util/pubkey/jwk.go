/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pubkey

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/btcsuite/btcd/btcec"
	gojose "github.com/square/go-jose/v3"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

const (
	secp256k1Crv     = "secp256k1"
	secp256k1Kty     = "EC"
	secp256k1KeySize = 32
)

// GetPublicKeyJWK returns public key in JWK format.
func GetPublicKeyJWK(pubKey interface{}) (*jws.JWK, error) {
	switch key := pubKey.(type) {
	case ed25519.PublicKey:
		// handled by gojose
	case *ecdsa.PublicKey:
		// gojose doesn't handle secp256k1 curve
		if key.Curve == btcec.S256() {
			return &jws.JWK{
				Kty: secp256k1Kty,
				Crv: secp256k1Crv,
				X:   base64.RawURLEncoding.EncodeToString(padded(key.X.Bytes(), secp256k1KeySize)),
				Y:   base64.RawURLEncoding.EncodeToString(padded(key.Y.Bytes(), secp256k1KeySize)),
			}, nil
		}
	default:
		return nil, fmt.Errorf("unknown key type '%s'", reflect.TypeOf(key))
	}

	jsonJWK, err := gojose.JSONWebKey{Key: pubKey}.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var jwk jws.JWK

	err = json.Unmarshal(jsonJWK, &jwk)
	if err != nil {
		return nil, err
	}

	return &jwk, nil
}

func padded(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}

	p := make([]byte, size)
	copy(p[size-len(b):], b)

	return p
}
