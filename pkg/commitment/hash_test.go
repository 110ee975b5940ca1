/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/jws"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const (
	sha2_256 uint = 18
)

func TestGetCommitment(t *testing.T) {
	jwk := &jws.JWK{
		Crv: "crv",
		Kty: "kty",
		X:   "x",
		Y:   "y",
	}

	t.Run("success", func(t *testing.T) {
		commitment, err := GetCommitment(jwk, sha2_256)
		require.NoError(t, err)
		require.NotEmpty(t, commitment)
		require.True(t, hashing.CanonicalizeAndVerifyDoubleHash(jwk, commitment))
	})

	t.Run("error - multihash not supported", func(t *testing.T) {
		commitment, err := GetCommitment(jwk, 55)
		require.Error(t, err)
		require.Empty(t, commitment)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.UnsupportedHashAlgorithm))
	})
}

func TestRevealValue(t *testing.T) {
	jwk1 := &jws.JWK{Crv: "P-256", Kty: "EC", X: "x1", Y: "y1"}
	jwk2 := &jws.JWK{Crv: "P-256", Kty: "EC", X: "x2", Y: "y2"}

	t.Run("round trip", func(t *testing.T) {
		rv, err := GetRevealValue(jwk1, sha2_256)
		require.NoError(t, err)

		c, err := GetCommitment(jwk1, sha2_256)
		require.NoError(t, err)

		fromReveal, err := GetCommitmentFromRevealValue(rv)
		require.NoError(t, err)
		require.Equal(t, c, fromReveal)
	})

	t.Run("distinct keys do not verify", func(t *testing.T) {
		rv1, err := GetRevealValue(jwk1, sha2_256)
		require.NoError(t, err)

		c2, err := GetCommitment(jwk2, sha2_256)
		require.NoError(t, err)

		fromReveal, err := GetCommitmentFromRevealValue(rv1)
		require.NoError(t, err)
		require.NotEqual(t, c2, fromReveal)
		require.False(t, hashing.CanonicalizeAndVerifyDoubleHash(jwk1, c2))
	})

	t.Run("error - unsupported multihash", func(t *testing.T) {
		_, err := GetRevealValue(jwk1, 55)
		require.Error(t, err)
	})

	t.Run("error - invalid reveal value", func(t *testing.T) {
		_, err := GetCommitmentFromRevealValue("invalid!")
		require.Error(t, err)
	})
}
