/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package badgercas implements a local content addressable store on badger. Content is addressed by the
// base58btc multibase encoding of its SHA2-256 multihash.
package badgercas

import (
	"context"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const (
	loggerModule = "sidetree-core-badgercas"

	sha2_256 = 18
)

// Config holds the store configuration.
type Config struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps content in memory only.
	InMemory bool

	// SyncWrites flushes every write to disk.
	SyncWrites bool
}

// CAS is a content addressable store backed by badger.
type CAS struct {
	db     *badger.DB
	logger *log.Log
}

// Open opens (creating if necessary) the store.
func Open(cfg Config) (*CAS, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create directory %s", cfg.Path)
		}

		opts = badger.DefaultOptions(cfg.Path)
	}

	logger := log.New(loggerModule)

	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger database")
	}

	return &CAS{db: db, logger: logger}, nil
}

// Close closes the store.
func (c *CAS) Close() error {
	return c.db.Close()
}

// Write stores the content and returns its address. Writing the same content twice returns the same address.
func (c *CAS) Write(content []byte) (string, error) {
	mh, err := hashing.ComputeMultihash(sha2_256, content)
	if err != nil {
		return "", errors.Wrap(err, "compute multihash")
	}

	address, err := multibase.Encode(multibase.Base58BTC, mh)
	if err != nil {
		return "", errors.Wrap(err, "encode address")
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mh, content)
	})
	if err != nil {
		return "", errors.Wrapf(err, "store content at address[%s]", address)
	}

	c.logger.Debug("Stored content", log.WithAddress(address), log.WithSize(len(content)))

	return address, nil
}

// Read reads the content at the given address. Content larger than maxSize is reported as MaxSizeExceeded.
func (c *CAS) Read(ctx context.Context, address string, maxSize uint) *cas.FetchResult {
	if ctx.Err() != nil {
		return &cas.FetchResult{Code: cas.NotFound}
	}

	key, err := decodeAddress(address)
	if err != nil {
		c.logger.Debug("Invalid address", log.WithAddress(address), log.WithError(err))

		return &cas.FetchResult{Code: cas.InvalidHash}
	}

	var content []byte

	err = c.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get(key)
		if e != nil {
			return e
		}

		if uint(item.ValueSize()) > maxSize {
			return errMaxSizeExceeded
		}

		content, e = item.ValueCopy(nil)

		return e
	})

	switch {
	case err == nil:
		return &cas.FetchResult{Code: cas.Success, Content: content}
	case errors.Is(err, badger.ErrKeyNotFound):
		return &cas.FetchResult{Code: cas.NotFound}
	case errors.Is(err, errMaxSizeExceeded):
		return &cas.FetchResult{Code: cas.MaxSizeExceeded}
	default:
		c.logger.Warn("Failed to read content", log.WithAddress(address), log.WithError(err))

		return &cas.FetchResult{Code: cas.NotReachable}
	}
}

var errMaxSizeExceeded = errors.New("content exceeds maximum size")

func decodeAddress(address string) ([]byte, error) {
	enc, mh, err := multibase.Decode(address)
	if err != nil {
		return nil, errors.Wrap(err, "decode multibase")
	}

	if enc != multibase.Base58BTC {
		return nil, errors.Errorf("unsupported multibase encoding[%c]", enc)
	}

	if _, err := multihash.Decode(mh); err != nil {
		return nil, errors.Wrap(err, "decode multihash")
	}

	return mh, nil
}

type badgerLogger struct {
	logger *log.Log
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
