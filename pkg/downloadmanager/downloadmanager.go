/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package downloadmanager

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const (
	loggerModule = "sidetree-core-downloadmanager"

	defaultMaxConcurrentDownloads = 20
	defaultTimeout                = 10 * time.Second
)

// DownloadManager bounds the number of concurrent CAS reads. Reads beyond the limit wait for a lane
// in submission order.
type DownloadManager struct {
	reader  cas.Reader
	lanes   *semaphore.Weighted
	timeout time.Duration
	logger  *log.Log
}

// Option is a download manager option.
type Option func(m *DownloadManager)

// WithTimeout sets the maximum time a single read may take once it holds a lane.
func WithTimeout(timeout time.Duration) Option {
	return func(m *DownloadManager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(m *DownloadManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a download manager that reads from the given CAS reader using at most maxConcurrentDownloads lanes.
func New(reader cas.Reader, maxConcurrentDownloads int, opts ...Option) *DownloadManager {
	if maxConcurrentDownloads <= 0 {
		maxConcurrentDownloads = defaultMaxConcurrentDownloads
	}

	m := &DownloadManager{
		reader:  reader,
		lanes:   semaphore.NewWeighted(int64(maxConcurrentDownloads)),
		timeout: defaultTimeout,
		logger:  log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Read reads the content at the given address. Waiting for a lane is bounded only by the caller's context;
// the timeout starts once a lane is held. A read that times out, or whose context is done, is reported as NotFound.
func (m *DownloadManager) Read(ctx context.Context, address string, maxSize uint) *cas.FetchResult {
	if err := m.lanes.Acquire(ctx, 1); err != nil {
		m.logger.Debug("Gave up waiting for a download lane", log.WithAddress(address), log.WithError(err))

		return &cas.FetchResult{Code: cas.NotFound}
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan *cas.FetchResult, 1)

	go func() {
		// the lane is held until the read returns even if the caller gave up
		defer m.lanes.Release(1)

		done <- m.reader.Read(ctx, address, maxSize)
	}()

	select {
	case result := <-done:
		if result == nil {
			return &cas.FetchResult{Code: cas.NotReachable}
		}

		return result
	case <-ctx.Done():
		m.logger.Debug("Download timed out", log.WithAddress(address), log.WithDuration(m.timeout))

		return &cas.FetchResult{Code: cas.NotFound}
	}
}
