/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

func TestCreateChunkFile(t *testing.T) {
	const createOpsNum = 5
	const updateOpsNum = 4
	const deactivateOpsNum = 3
	const recoverOpsNum = 1

	ops := getTestOperations(createOpsNum, updateOpsNum, deactivateOpsNum, recoverOpsNum)

	chunk := CreateChunkFile(ops)
	require.NotNil(t, chunk)
	require.Equal(t, createOpsNum+updateOpsNum+recoverOpsNum, len(chunk.Deltas))

	require.Nil(t, CreateChunkFile(getTestOperations(0, 0, deactivateOpsNum, 0)))
}

func TestParseChunkFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		const createOpsNum = 5
		const updateOpsNum = 4
		const deactivateOpsNum = 3
		const recoverOpsNum = 1

		ops := getTestOperations(createOpsNum, updateOpsNum, deactivateOpsNum, recoverOpsNum)

		model := CreateChunkFile(ops)
		bytes, err := json.Marshal(model)
		require.NoError(t, err)

		parsed, err := ParseChunkFile(bytes)
		require.NoError(t, err)

		require.Equal(t, createOpsNum+updateOpsNum+recoverOpsNum, len(parsed.Deltas))
	})

	t.Run("success - invalid delta is kept as nil entry", func(t *testing.T) {
		content := `{"deltas":[` +
			`{"patches":[],"updateCommitment":"EiB"},` +
			`{"patches":[],"updateCommitment":"EiB","other":1},` +
			`null,` +
			`{"patches":"bad"}]}`

		parsed, err := ParseChunkFile([]byte(content))
		require.NoError(t, err)
		require.Len(t, parsed.Deltas, 4)
		require.NotNil(t, parsed.Deltas[0])
		require.Equal(t, "EiB", parsed.Deltas[0].UpdateCommitment)
		require.Nil(t, parsed.Deltas[1])
		require.Nil(t, parsed.Deltas[2])
		require.Nil(t, parsed.Deltas[3])
	})

	t.Run("error - unknown property", func(t *testing.T) {
		parsed, err := ParseChunkFile([]byte(`{"deltas":[{}],"other":1}`))
		require.Error(t, err)
		require.Nil(t, parsed)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.ChunkFileInvalid))
	})

	t.Run("error - no deltas", func(t *testing.T) {
		parsed, err := ParseChunkFile([]byte(`{"deltas":[]}`))
		require.Error(t, err)
		require.Nil(t, parsed)
		require.Contains(t, err.Error(), "chunk file has no deltas")
	})
}
