/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

type compressionProvider interface {
	Compress(alg string, data []byte) ([]byte, error)
	Decompress(alg string, data []byte, maxSize uint) ([]byte, error)
}

type metricsProvider interface {
	CASWriteSize(dataType string, size int)
	CASReadSize(dataType string, size int)
	CASReadTime(dataType string, value time.Duration)
}

// File is a batch file model.
type File interface {
	IsEmpty() bool
}

// Codec serializes batch files into compressed canonical JSON and reads them back from CAS.
type Codec struct {
	alg     string
	factor  uint
	cp      compressionProvider
	reader  cas.Reader
	metrics metricsProvider
}

// NewCodec returns a new batch file codec. The reader may be nil if the codec is only used for writing.
func NewCodec(alg string, maxMemoryDecompressionFactor uint, cp compressionProvider, reader cas.Reader,
	metrics metricsProvider) *Codec {
	return &Codec{
		alg:     alg,
		factor:  maxMemoryDecompressionFactor,
		cp:      cp,
		reader:  reader,
		metrics: metrics,
	}
}

// CreateBuffer canonicalizes and compresses the given file. Nil is returned for an empty file.
func (c *Codec) CreateBuffer(f File) ([]byte, error) {
	if f == nil || f.IsEmpty() {
		return nil, nil
	}

	content, err := canonicalizer.MarshalCanonical(f)
	if err != nil {
		return nil, errors.Wrap(err, "marshal canonical")
	}

	compressed, err := c.cp.Compress(c.alg, content)
	if err != nil {
		return nil, errors.Wrapf(err, "compress using '%s'", c.alg)
	}

	return compressed, nil
}

// Write creates the buffer for the given file and stores it in CAS. An empty URI is returned
// for an empty file.
func (c *Codec) Write(w cas.Writer, f File, alias string) (string, error) {
	buf, err := c.CreateBuffer(f)
	if err != nil {
		return "", errors.Wrapf(err, "create %s file", alias)
	}

	if buf == nil {
		return "", nil
	}

	address, err := w.Write(buf)
	if err != nil {
		return "", errors.Wrapf(err, "store %s file", alias)
	}

	c.metrics.CASWriteSize(alias, len(buf))

	return address, nil
}

// Read downloads at most maxSize bytes from CAS and decompresses them. Decompression is aborted as soon as
// the output exceeds maxSize times the memory decompression factor.
func (c *Codec) Read(ctx context.Context, uri string, maxSize uint, alias string) ([]byte, error) {
	start := time.Now()

	result := c.reader.Read(ctx, uri, maxSize)

	c.metrics.CASReadTime(alias, time.Since(start))

	if err := fetchResultToError(result.Code, uri); err != nil {
		return nil, err
	}

	c.metrics.CASReadSize(alias, len(result.Content))

	if uint(len(result.Content)) > maxSize {
		return nil, sidetreeerr.Newf(sidetreeerr.CasFileTooLarge,
			"uri[%s]: content size %d exceeded maximum size %d", uri, len(result.Content), maxSize)
	}

	content, err := c.cp.Decompress(c.alg, result.Content, maxSize*c.factor)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress CAS uri[%s] using '%s'", uri, c.alg)
	}

	return content, nil
}

func fetchResultToError(code cas.FetchResultCode, uri string) error {
	switch code {
	case cas.Success:
		return nil
	case cas.NotFound:
		return sidetreeerr.Newf(sidetreeerr.CasFileNotFound, "uri[%s] not found", uri)
	case cas.InvalidHash:
		return sidetreeerr.Newf(sidetreeerr.CasFileHashInvalid, "uri[%s] is not a valid hash", uri)
	case cas.MaxSizeExceeded:
		return sidetreeerr.Newf(sidetreeerr.CasFileTooLarge, "uri[%s] exceeds maximum size", uri)
	case cas.NotAFile:
		return sidetreeerr.Newf(sidetreeerr.CasFileNotAFile, "uri[%s] is not a file", uri)
	case cas.NotReachable:
		return sidetreeerr.Newf(sidetreeerr.CasNotReachable, "CAS not reachable for uri[%s]", uri)
	default:
		return sidetreeerr.Newf(sidetreeerr.CasNotReachable, "unexpected fetch result code[%s] for uri[%s]", code, uri)
	}
}
