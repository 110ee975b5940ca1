/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/batch"
	"github.com/trustbloc/sidetree-node-go/pkg/batch/cutter"
	"github.com/trustbloc/sidetree-node-go/pkg/batch/opqueue"
	"github.com/trustbloc/sidetree-node-go/pkg/cas/badgercas"
	"github.com/trustbloc/sidetree-node-go/pkg/compression"
	"github.com/trustbloc/sidetree-node-go/pkg/config"
	"github.com/trustbloc/sidetree-node-go/pkg/dochandler"
	"github.com/trustbloc/sidetree-node-go/pkg/downloadmanager"
	"github.com/trustbloc/sidetree-node-go/pkg/ledger/memledger"
	"github.com/trustbloc/sidetree-node-go/pkg/metrics"
	"github.com/trustbloc/sidetree-node-go/pkg/observer"
	"github.com/trustbloc/sidetree-node-go/pkg/resolver"
	"github.com/trustbloc/sidetree-node-go/pkg/restapi/diddochandler"
	restdochandler "github.com/trustbloc/sidetree-node-go/pkg/restapi/dochandler"
	"github.com/trustbloc/sidetree-node-go/pkg/store/sqlite"
	"github.com/trustbloc/sidetree-node-go/pkg/versionmanager"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/factory"
)

const (
	memoryDB          = ":memory:"
	readHeaderTimeout = 10 * time.Second
)

// node holds the running components of a Sidetree node.
type node struct {
	cfg      *config.Config
	db       *sqlite.DB
	cas      *badgercas.CAS
	observer *observer.Observer
	writer   *batch.Writer
	server   *http.Server
	addr     net.Addr
}

// batchContext provides the batch writer with its collaborators.
type batchContext struct {
	pc            protocol.Client
	ledger        ledger.Ledger
	queue         cutter.OperationQueue
	confirmations store.ConfirmationStore
}

func (c *batchContext) Protocol() protocol.Client { return c.pc }
func (c *batchContext) Ledger() ledger.Ledger { return c.ledger }
func (c *batchContext) OperationQueue() cutter.OperationQueue { return c.queue }
func (c *batchContext) ConfirmationStore() store.ConfirmationStore { return c.confirmations }

// newNode opens the stores and wires the node components. Nothing runs until start is called.
func newNode(cfg *config.Config) (*node, error) {
	if cfg.Store.SQLitePath != memoryDB {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o750); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sqlite.Open(cfg.Store.SQLitePath)
	if err != nil {
		return nil, errors.Wrap(err, "open operation and transaction stores")
	}

	casStore, err := badgercas.Open(badgercas.Config{Path: cfg.CAS.Path, InMemory: cfg.CAS.InMemory})
	if err != nil {
		_ = db.Close() //nolint:errcheck

		return nil, errors.Wrap(err, "open CAS")
	}

	n := &node{cfg: cfg, db: db, cas: casStore}

	if err := n.wire(); err != nil {
		n.close()

		return nil, err
	}

	return n, nil
}

func (n *node) wire() error {
	cfg := n.cfg

	opStore := sqlite.NewOperationStore(n.db)
	txnStore := sqlite.NewTransactionStore(n.db)
	confirmationStore := sqlite.NewConfirmationStore(n.db)
	unresolvableStore := sqlite.NewUnresolvableStore(n.db,
		sqlite.WithRetryDelayFactor(cfg.Observer.UnresolvableRetryDelay))

	metricsProvider := metrics.New(prometheus.NewRegistry())

	l := memledger.New(cfg.Namespace,
		memledger.WithWriter(cfg.Ledger.Writer),
		memledger.WithNormalizedFee(cfg.Ledger.NormalizedFee))

	pc := versionmanager.New()

	err := pc.Load(cfg.VersionConfigs(), &factory.Providers{
		CasWriter: n.cas,
		CasReader: downloadmanager.New(n.cas, cfg.CAS.MaxConcurrentReads,
			downloadmanager.WithTimeout(cfg.CAS.ReadTimeout)),
		OperationStore:   opStore,
		TransactionStore: txnStore,
		Ledger:           l,
		Compression:      compression.New(compression.WithDefaultAlgorithms()),
		Metrics:          metricsProvider,
	})
	if err != nil {
		return errors.Wrap(err, "load protocol versions")
	}

	n.writer, err = batch.New(cfg.Namespace,
		&batchContext{
			pc:            pc,
			ledger:        l,
			queue:         &opqueue.MemQueue{},
			confirmations: confirmationStore,
		},
		batch.WithBatchTimeout(cfg.Batch.Timeout),
		batch.WithMetrics(metricsProvider),
	)
	if err != nil {
		return errors.Wrap(err, "create batch writer")
	}

	n.observer = observer.New(
		&observer.Providers{
			Ledger:            l,
			ProtocolClient:    pc,
			OpStore:           opStore,
			TxnStore:          txnStore,
			UnresolvableStore: unresolvableStore,
			ConfirmationStore: confirmationStore,
			Metrics:           metricsProvider,
		},
		observer.WithInterval(cfg.Observer.Interval),
		observer.WithMaxConcurrentDownloads(cfg.Observer.MaxConcurrentDownloads),
		observer.WithMaxUnresolvableRetries(cfg.Observer.MaxUnresolvableRetries),
	)

	docHandler := dochandler.New(cfg.Namespace, pc, n.writer,
		resolver.New(cfg.Namespace, opStore, pc, resolver.WithMetrics(metricsProvider)))

	var updateOpts []restdochandler.UpdateOption

	if cfg.HTTP.OperationsPerSecond > 0 {
		updateOpts = append(updateOpts, restdochandler.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.HTTP.OperationsPerSecond), cfg.HTTP.OperationsBurst)))
	}

	n.server = &http.Server{
		Addr: cfg.HTTP.ListenAddress,
		Handler: diddochandler.NewRouter(
			diddochandler.NewUpdateHandler(cfg.HTTP.BasePath, docHandler, updateOpts...),
			diddochandler.NewResolveHandler(cfg.HTTP.BasePath, docHandler),
			diddochandler.NewMetricsHandler(cfg.HTTP.MetricsPath, metricsProvider.Handler()),
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return nil
}

// start starts the observer, the batch writer and the REST server. The returned channel receives
// the error that stopped the server, if any.
func (n *node) start() (<-chan error, error) {
	listener, err := net.Listen("tcp", n.server.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", n.server.Addr)
	}

	n.addr = listener.Addr()

	n.observer.Start()
	n.writer.Start()

	errCh := make(chan error, 1)

	go func() {
		if err := n.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("Sidetree node started",
		zap.String("namespace", n.cfg.Namespace),
		zap.String("address", n.addr.String()),
		zap.String("basePath", n.cfg.HTTP.BasePath))

	return errCh, nil
}

// stop shuts down the REST server and the background workers, then closes the stores.
func (n *node) stop(ctx context.Context) error {
	err := n.server.Shutdown(ctx)
	if err != nil {
		logger.Warn("REST server shutdown", zap.Error(err))
	}

	n.observer.Stop()
	n.writer.Stop()

	n.close()

	logger.Info("Sidetree node stopped")

	return err
}

func (n *node) close() {
	if err := n.cas.Close(); err != nil {
		logger.Warn("Failed to close CAS", zap.Error(err))
	}

	if err := n.db.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}
