/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package encoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

func TestEncodeAndDecodeAsString(t *testing.T) {
	data := "Hello World"
	encoded := EncodeToString([]byte(data))
	require.NotNil(t, encoded)

	decodedBytes, err := DecodeString(encoded)
	require.Nil(t, err)
	require.NotNil(t, decodedBytes)
	require.EqualValues(t, "Hello World", decodedBytes)
}

func TestDecodeString_InvalidAlphabet(t *testing.T) {
	for _, s := range []string{"SGVsbG8=", "SGV+bG8", "SGV/bG8", "SGVs\nbG8", "SGVs bG8"} {
		_, err := DecodeString(s)
		require.Error(t, err, s)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.EncodedStringIncorrectEncoding))
	}

	require.True(t, IsBase64URLString("abc-_09"))
	require.False(t, IsBase64URLString("abc="))
}

func TestDecodeString_InvalidLength(t *testing.T) {
	_, err := DecodeString("a")
	require.Error(t, err)
	require.True(t, sidetreeerr.Is(err, sidetreeerr.EncodedStringIncorrectEncoding))
}
