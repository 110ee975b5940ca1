/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/compression"
	"github.com/trustbloc/sidetree-node-go/pkg/mocks"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider/models"
)

func TestCodec_CreateBuffer(t *testing.T) {
	p := mocks.GetDefaultProtocolParameters()
	codec := newTestCodec(p, mocks.NewMockCasClient(nil))

	t.Run("empty file", func(t *testing.T) {
		buf, err := codec.CreateBuffer(models.CreateChunkFile(&models.SortedOperations{}))
		require.NoError(t, err)
		require.Nil(t, buf)

		var cif *models.CoreIndexFile
		buf, err = codec.CreateBuffer(cif)
		require.NoError(t, err)
		require.Nil(t, buf)
	})

	t.Run("success", func(t *testing.T) {
		chunk := &models.ChunkFile{Deltas: []*model.DeltaModel{{UpdateCommitment: "commitment"}}}

		buf, err := codec.CreateBuffer(chunk)
		require.NoError(t, err)
		require.NotEmpty(t, buf)

		content, err := compression.New(compression.WithDefaultAlgorithms()).Decompress(p.CompressionAlgorithm, buf, 1000)
		require.NoError(t, err)
		require.Equal(t, `{"deltas":[{"updateCommitment":"commitment"}]}`, string(content))
	})

	t.Run("empty file is not written", func(t *testing.T) {
		casClient := mocks.NewMockCasClient(errors.New("should not be called"))

		uri, err := newTestCodec(p, casClient).Write(casClient, &models.ChunkFile{}, "chunk")
		require.NoError(t, err)
		require.Empty(t, uri)
	})
}

func TestCodec_Read(t *testing.T) {
	p := mocks.GetDefaultProtocolParameters()

	t.Run("success", func(t *testing.T) {
		casClient := mocks.NewMockCasClient(nil)
		codec := newTestCodec(p, casClient)

		chunk := &models.ChunkFile{Deltas: []*model.DeltaModel{{UpdateCommitment: "commitment"}}}

		uri, err := codec.Write(casClient, chunk, "chunk")
		require.NoError(t, err)

		content, err := codec.Read(context.Background(), uri, p.MaxChunkFileSize, "chunk")
		require.NoError(t, err)

		parsed, err := models.ParseChunkFile(content)
		require.NoError(t, err)
		require.Equal(t, "commitment", parsed.Deltas[0].UpdateCommitment)
	})

	t.Run("error - decompressed size exceeds maximum", func(t *testing.T) {
		casClient := mocks.NewMockCasClient(nil)
		codec := newTestCodec(p, casClient)

		// highly compressible content: a few bytes on the wire expand far beyond maxSize*factor
		compressed, err := compression.New(compression.WithDefaultAlgorithms()).Compress(p.CompressionAlgorithm,
			bytes.Repeat([]byte("a"), 10000))
		require.NoError(t, err)

		uri, err := casClient.Write(compressed)
		require.NoError(t, err)

		maxSize := uint(len(compressed))

		content, err := codec.Read(context.Background(), uri, maxSize, "chunk")
		require.Error(t, err)
		require.Nil(t, content)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.FileExceedsMaxDecompressedSize))
	})

	t.Run("error - not compressed", func(t *testing.T) {
		casClient := mocks.NewMockCasClient(nil)

		uri, err := casClient.Write([]byte(`{"deltas":[]}`))
		require.NoError(t, err)

		content, err := newTestCodec(p, casClient).Read(context.Background(), uri, p.MaxChunkFileSize, "chunk")
		require.Error(t, err)
		require.Nil(t, content)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.FileDecompressionFailure))
	})

	t.Run("error - fetch result codes", func(t *testing.T) {
		codes := map[cas.FetchResultCode]sidetreeerr.Code{
			cas.NotFound:        sidetreeerr.CasFileNotFound,
			cas.InvalidHash:     sidetreeerr.CasFileHashInvalid,
			cas.MaxSizeExceeded: sidetreeerr.CasFileTooLarge,
			cas.NotAFile:        sidetreeerr.CasFileNotAFile,
			cas.NotReachable:    sidetreeerr.CasNotReachable,
			"unknown":           sidetreeerr.CasNotReachable,
		}

		for fetchCode, errCode := range codes {
			casClient := mocks.NewMockCasClient(nil)
			casClient.SetReadResultCode(fetchCode)

			content, err := newTestCodec(p, casClient).Read(context.Background(), "uri", p.MaxChunkFileSize, "chunk")
			require.Error(t, err)
			require.Nil(t, content)
			require.True(t, sidetreeerr.Is(err, errCode), "fetch code %s", fetchCode)
		}
	})
}
