/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/jws"
)

func TestVerifySignature(t *testing.T) {
	for _, tc := range []struct {
		name  string
		curve elliptic.Curve
	}{
		{name: "P-256", curve: elliptic.P256()},
		{name: "P-384", curve: elliptic.P384()},
		{name: "P-521", curve: elliptic.P521()},
	} {
		tc := tc

		t.Run("success "+tc.name, func(t *testing.T) {
			privateKey, err := ecdsa.GenerateKey(tc.curve, rand.Reader)
			require.NoError(t, err)

			msg := []byte("test message")

			signature, err := (&ecSigner{key: privateKey}).Sign(msg)
			require.NoError(t, err)

			require.NoError(t, VerifySignature(ecJWK(t, &privateKey.PublicKey), signature, msg))
		})
	}

	t.Run("unsupported key type", func(t *testing.T) {
		err := VerifySignature(&jws.JWK{Kty: "RSA"}, []byte("signature"), []byte("test message"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "'RSA' key type is not supported for verifying signature")
	})
}

func TestVerifyECSignature(t *testing.T) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwk := ecJWK(t, &privateKey.PublicKey)
	msg := []byte("test message")

	signature, err := (&ecSigner{key: privateKey}).Sign(msg)
	require.NoError(t, err)

	t.Run("unsupported elliptic curve", func(t *testing.T) {
		err := verifyECSignature(&jws.JWK{Kty: "EC", Crv: "BLS12381_G2"}, signature, msg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "ecdsa: unsupported elliptic curve 'BLS12381_G2'")

		_, err = GetECPublicKey(&jws.JWK{Kty: "EC", Crv: "BLS12381_G2"})
		require.Error(t, err)
	})

	t.Run("invalid signature size", func(t *testing.T) {
		err := verifyECSignature(jwk, []byte("signature"), msg)
		require.EqualError(t, err, "ecdsa: invalid signature size")
	})

	t.Run("invalid signature", func(t *testing.T) {
		other := make([]byte, len(signature))
		copy(other, signature)
		other[0]++

		err := verifyECSignature(jwk, other, msg)
		require.EqualError(t, err, "ecdsa: invalid signature")
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		_, err := GetECPublicKey(&jws.JWK{Kty: "EC", Crv: "P-256", X: "abc", Y: jwk.Y})
		require.Contains(t, err.Error(), "invalid x coordinate")

		_, err = GetECPublicKey(&jws.JWK{Kty: "EC", Crv: "P-256", X: jwk.X, Y: "a=b"})
		require.Contains(t, err.Error(), "invalid y coordinate")

		_, err = GetECPublicKey(&jws.JWK{Kty: "EC", Crv: "P-256", X: jwk.X, Y: jwk.X})
		require.Contains(t, err.Error(), "not on curve")
	})
}

type ecSigner struct {
	key *ecdsa.PrivateKey
}

func (s *ecSigner) Headers() jws.Headers {
	return jws.Headers{"alg": "ES256"}
}

func (s *ecSigner) Sign(msg []byte) ([]byte, error) {
	ec := parseEllipticCurve(curveName(s.key.Curve))

	h := ec.hash.New()
	h.Write(msg) //nolint:errcheck

	r, sig, err := ecdsa.Sign(rand.Reader, s.key, h.Sum(nil))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2*ec.keySize)
	r.FillBytes(out[:ec.keySize])
	sig.FillBytes(out[ec.keySize:])

	return out, nil
}

func curveName(c elliptic.Curve) string {
	return c.Params().Name
}

func ecJWK(t *testing.T, pub *ecdsa.PublicKey) *jws.JWK {
	t.Helper()

	ec := parseEllipticCurve(curveName(pub.Curve))
	require.NotNil(t, ec)

	x := make([]byte, ec.keySize)
	y := make([]byte, ec.keySize)

	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)

	return &jws.JWK{
		Kty: "EC",
		Crv: curveName(pub.Curve),
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}
}
