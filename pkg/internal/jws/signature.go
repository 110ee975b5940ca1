/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

const (
	p256KeySize      = 32
	p384KeySize      = 48
	p521KeySize      = 66
	secp256k1KeySize = 32
)

// VerifySignature verifies signature against public key in JWK format.
func VerifySignature(jwk *jws.JWK, signature, msg []byte) error {
	switch jwk.Kty {
	case "EC":
		return verifyECSignature(jwk, signature, msg)
	case "OKP":
		return verifyEd25519Signature(jwk, signature, msg)
	default:
		return fmt.Errorf("'%s' key type is not supported for verifying signature", jwk.Kty)
	}
}

func verifyEd25519Signature(jwk *jws.JWK, signature, msg []byte) error {
	pubKey, err := GetED25519PublicKey(jwk)
	if err != nil {
		return err
	}

	if !ed25519.Verify(pubKey, msg, signature) {
		return errors.New("ed25519: invalid signature")
	}

	return nil
}

// GetED25519PublicKey returns the ed25519 public key of an OKP JWK.
func GetED25519PublicKey(jwk *jws.JWK) (ed25519.PublicKey, error) {
	if jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("ed25519: unsupported curve '%s'", jwk.Crv)
	}

	pubKey, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("ed25519: decode x: %w", err)
	}

	// ed25519 panics if key size is wrong
	if len(pubKey) != ed25519.PublicKeySize {
		return nil, errors.New("ed25519: invalid key")
	}

	return pubKey, nil
}

// GetECPublicKey returns the ECDSA public key of an EC JWK.
func GetECPublicKey(jwk *jws.JWK) (*ecdsa.PublicKey, error) {
	ec := parseEllipticCurve(jwk.Crv)
	if ec == nil {
		return nil, fmt.Errorf("ecdsa: unsupported elliptic curve '%s'", jwk.Crv)
	}

	return ec.publicKey(jwk)
}

func verifyECSignature(jwk *jws.JWK, signature, msg []byte) error {
	ec := parseEllipticCurve(jwk.Crv)
	if ec == nil {
		return fmt.Errorf("ecdsa: unsupported elliptic curve '%s'", jwk.Crv)
	}

	ecdsaPubKey, err := ec.publicKey(jwk)
	if err != nil {
		return err
	}

	if len(signature) != 2*ec.keySize {
		return errors.New("ecdsa: invalid signature size")
	}

	hasher := ec.hash.New()

	_, err = hasher.Write(msg)
	if err != nil {
		return errors.New("ecdsa: hash error")
	}

	hash := hasher.Sum(nil)

	r := big.NewInt(0).SetBytes(signature[:ec.keySize])
	s := big.NewInt(0).SetBytes(signature[ec.keySize:])

	if !ecdsa.Verify(ecdsaPubKey, hash, r, s) {
		return errors.New("ecdsa: invalid signature")
	}

	return nil
}

type ellipticCurve struct {
	curve   elliptic.Curve
	keySize int
	hash    crypto.Hash
}

func (ec *ellipticCurve) publicKey(jwk *jws.JWK) (*ecdsa.PublicKey, error) {
	x, err := decodeCoordinate(jwk.X, ec.keySize)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: invalid x coordinate: %w", err)
	}

	y, err := decodeCoordinate(jwk.Y, ec.keySize)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: invalid y coordinate: %w", err)
	}

	if !ec.curve.IsOnCurve(x, y) {
		return nil, errors.New("ecdsa: public key is not on curve")
	}

	return &ecdsa.PublicKey{Curve: ec.curve, X: x, Y: y}, nil
}

func decodeCoordinate(value string, size int) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}

	if len(b) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
	}

	return new(big.Int).SetBytes(b), nil
}

func parseEllipticCurve(curve string) *ellipticCurve {
	switch curve {
	case "P-256":
		return &ellipticCurve{
			curve:   elliptic.P256(),
			keySize: p256KeySize,
			hash:    crypto.SHA256,
		}
	case "P-384":
		return &ellipticCurve{
			curve:   elliptic.P384(),
			keySize: p384KeySize,
			hash:    crypto.SHA384,
		}
	case "P-521":
		return &ellipticCurve{
			curve:   elliptic.P521(),
			keySize: p521KeySize,
			hash:    crypto.SHA512,
		}
	case "secp256k1":
		return &ellipticCurve{
			curve:   btcec.S256(),
			keySize: secp256k1KeySize,
			hash:    crypto.SHA256,
		}
	default:
		return nil
	}
}
