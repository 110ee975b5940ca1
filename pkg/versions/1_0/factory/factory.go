/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package factory

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/doccomposer"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/doctransformer/didtransformer"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/feemanager"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationapplier"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationparser"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprocessor"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnselector"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/vtlverifier"
)

// Version is the protocol version string implemented by this package.
const Version = "1.0"

var logger = log.New("sidetree-core-factory")

type compressionProvider interface {
	Compress(alg string, data []byte) ([]byte, error)
	Decompress(alg string, data []byte, maxSize uint) ([]byte, error)
}

type metricsProvider interface {
	CASWriteSize(dataType string, size int)
	CASReadSize(dataType string, size int)
	CASReadTime(dataType string, value time.Duration)
}

// Providers contains the collaborators shared by all components of a protocol version.
type Providers struct {
	// CasWriter stores batch files.
	CasWriter cas.Writer
	// CasReader reads batch files, normally through the download manager.
	CasReader        cas.Reader
	OperationStore   store.OperationStore
	TransactionStore store.TransactionStore
	Ledger           ledger.Ledger
	Compression      compressionProvider
	Metrics          metricsProvider
}

// Option is a factory option.
type Option func(f *Factory)

// WithTransformerOptions sets the options of the DID document transformer.
func WithTransformerOptions(opts ...didtransformer.Option) Option {
	return func(f *Factory) {
		f.transformerOpts = opts
	}
}

// Factory implements version 1.0 of the protocol.
type Factory struct {
	transformerOpts []didtransformer.Option
}

// New returns a version 1.0 factory.
func New(opts ...Option) *Factory {
	f := &Factory{}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create returns a 1.0 protocol version implementation with the given protocol parameters.
func (f *Factory) Create(p protocol.Protocol, providers *Providers) (protocol.Version, error) {
	if err := validateProviders(providers); err != nil {
		return nil, err
	}

	logger.Debug("Creating protocol version", log.WithVersion(Version), log.WithVersionTime(p.GenesisTime))

	parser := operationparser.New(p)
	composer := doccomposer.New()
	fees := feemanager.New(p)
	verifier := vtlverifier.New(p)

	provider := txnprovider.NewOperationProvider(p, parser, providers.CasReader, providers.Compression,
		providers.Metrics)

	return &vrsn{
		version:     Version,
		protocol:    p,
		parser:      parser,
		applier:     operationapplier.New(p, parser, composer),
		composer:    composer,
		transformer: didtransformer.New(f.transformerOpts...),
		handler: txnprovider.NewOperationHandler(p, providers.CasWriter, providers.Compression, parser,
			providers.Metrics),
		provider: provider,
		processor: txnprocessor.New(p, &txnprocessor.Providers{
			OpStore:                   providers.OperationStore,
			OperationProtocolProvider: provider,
			ValueTimeLockProvider:     providers.Ledger,
			FeeManager:                fees,
			ValueTimeLockVerifier:     verifier,
		}),
		selector: txnselector.New(p, providers.TransactionStore),
		verifier: verifier,
		fees:     fees,
	}, nil
}

func validateProviders(providers *Providers) error {
	switch {
	case providers == nil:
		return errors.New("providers are required")
	case providers.CasWriter == nil || providers.CasReader == nil:
		return errors.New("CAS writer and reader are required")
	case providers.OperationStore == nil || providers.TransactionStore == nil:
		return errors.New("operation and transaction stores are required")
	case providers.Ledger == nil:
		return errors.New("ledger is required")
	case providers.Compression == nil:
		return errors.New("compression provider is required")
	case providers.Metrics == nil:
		return errors.New("metrics provider is required")
	default:
		return nil
	}
}

type vrsn struct {
	version     string
	protocol    protocol.Protocol
	parser      protocol.OperationParser
	applier     protocol.OperationApplier
	composer    protocol.DocumentComposer
	transformer protocol.DocumentTransformer
	handler     protocol.OperationHandler
	provider    protocol.OperationProvider
	processor   protocol.TxnProcessor
	selector    protocol.TxnSelector
	verifier    protocol.ValueTimeLockVerifier
	fees        protocol.FeeManager
}

func (v *vrsn) Version() string {
	return v.version
}

func (v *vrsn) Protocol() protocol.Protocol {
	return v.protocol
}

func (v *vrsn) OperationParser() protocol.OperationParser {
	return v.parser
}

func (v *vrsn) OperationApplier() protocol.OperationApplier {
	return v.applier
}

func (v *vrsn) DocumentComposer() protocol.DocumentComposer {
	return v.composer
}

func (v *vrsn) DocumentTransformer() protocol.DocumentTransformer {
	return v.transformer
}

func (v *vrsn) OperationHandler() protocol.OperationHandler {
	return v.handler
}

func (v *vrsn) OperationProvider() protocol.OperationProvider {
	return v.provider
}

func (v *vrsn) TransactionProcessor() protocol.TxnProcessor {
	return v.processor
}

func (v *vrsn) TransactionSelector() protocol.TxnSelector {
	return v.selector
}

func (v *vrsn) ValueTimeLockVerifier() protocol.ValueTimeLockVerifier {
	return v.verifier
}

func (v *vrsn) FeeManager() protocol.FeeManager {
	return v.fees
}
