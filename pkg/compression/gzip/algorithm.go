/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gzip

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const algName = "GZIP"

// Algorithm implements gzip compression/decompression.
type Algorithm struct{}

// New creates new gzip algorithm instance.
func New() *Algorithm {
	return &Algorithm{}
}

// Compress will compress data using gzip.
func (a *Algorithm) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)

	_, err := zw.Write(data)
	if err != nil {
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress will decompress data using gzip. Reading stops after maxSize+1 bytes so
// that an oversized stream is rejected without being fully inflated.
func (a *Algorithm) Decompress(data []byte, maxSize uint) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, sidetreeerr.New(sidetreeerr.FileDecompressionFailure, err.Error())
	}

	defer zr.Close() //nolint:errcheck

	result, err := io.ReadAll(io.LimitReader(zr, int64(maxSize)+1))
	if err != nil {
		return nil, sidetreeerr.New(sidetreeerr.FileDecompressionFailure, err.Error())
	}

	if uint(len(result)) > maxSize {
		return nil, sidetreeerr.Newf(sidetreeerr.FileExceedsMaxDecompressedSize,
			"decompressed size exceeds maximum allowed size %d", maxSize)
	}

	return result, nil
}

// Accept algorithm.
func (a *Algorithm) Accept(alg string) bool {
	return alg == algName
}
