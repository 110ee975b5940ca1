/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the node configuration from YAML or TOML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/versionmanager"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/factory"
)

//nolint:gomnd // protocol 1.0 defaults.
const (
	sha2_256 = 18

	defaultMaxOperationCount         = 10000
	defaultMaxOperationSize          = 2500
	defaultMaxOperationHashLength    = 100
	defaultMaxDeltaSize              = 1000
	defaultMaxCasURILength           = 100
	defaultMaxCoreIndexFileSize      = 1000000
	defaultMaxProofFileSize          = 2500000
	defaultMaxProvisionalIndexSize   = 1000000
	defaultMaxChunkFileSize          = 10000000
	defaultMaxDecompressionFactor    = 3
	defaultMaxWriterLockIDSize       = 200
	defaultMaxOpsPerTransactionTime  = 600000
	defaultMaxTxnsPerTransactionTime = 300
	defaultFeeToPerOperationMult     = 0.01
	defaultValueTimeLockAmountMult   = 600
	defaultMaxOpsForNoValueTimeLock  = 100
	defaultCompressionAlgorithm      = "GZIP"
)

// Config is the node configuration.
type Config struct {
	Namespace string `yaml:"namespace" toml:"namespace"`

	// LogLevel is a log level spec: module1=level1:module2=level2:defaultLevel.
	LogLevel string `yaml:"logLevel" toml:"log_level"`

	Observer  ObserverConfig   `yaml:"observer" toml:"observer"`
	CAS       CASConfig        `yaml:"cas" toml:"cas"`
	Batch     BatchConfig      `yaml:"batch" toml:"batch"`
	HTTP      HTTPConfig       `yaml:"http" toml:"http"`
	Store     StoreConfig      `yaml:"store" toml:"store"`
	Ledger    LedgerConfig     `yaml:"ledger" toml:"ledger"`
	Protocols []ProtocolConfig `yaml:"protocols" toml:"protocols"`
}

// ObserverConfig configures the transaction observer.
type ObserverConfig struct {
	Interval               time.Duration `yaml:"interval" toml:"interval"`
	MaxConcurrentDownloads int           `yaml:"maxConcurrentDownloads" toml:"max_concurrent_downloads"`
	MaxUnresolvableRetries int           `yaml:"maxUnresolvableRetries" toml:"max_unresolvable_retries"`
	// UnresolvableRetryDelay is the base delay of the exponential retry backoff for unresolvable transactions.
	UnresolvableRetryDelay time.Duration `yaml:"unresolvableRetryDelay" toml:"unresolvable_retry_delay"`
}

// CASConfig configures the content addressable store.
type CASConfig struct {
	Path               string        `yaml:"path" toml:"path"`
	InMemory           bool          `yaml:"inMemory" toml:"in_memory"`
	ReadTimeout        time.Duration `yaml:"readTimeout" toml:"read_timeout"`
	MaxConcurrentReads int           `yaml:"maxConcurrentReads" toml:"max_concurrent_reads"`
}

// BatchConfig configures the batch writer.
type BatchConfig struct {
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	ListenAddress string `yaml:"listenAddress" toml:"listen_address"`
	BasePath      string `yaml:"basePath" toml:"base_path"`
	MetricsPath   string `yaml:"metricsPath" toml:"metrics_path"`

	// OperationsPerSecond limits accepted operations; zero disables the limit.
	OperationsPerSecond float64 `yaml:"operationsPerSecond" toml:"operations_per_second"`
	OperationsBurst     int     `yaml:"operationsBurst" toml:"operations_burst"`
}

// StoreConfig configures the operation, transaction, unresolvable and confirmation stores.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlitePath" toml:"sqlite_path"`
}

// LedgerConfig configures the in-process ledger.
type LedgerConfig struct {
	Writer        string `yaml:"writer" toml:"writer"`
	NormalizedFee uint64 `yaml:"normalizedFee" toml:"normalized_fee"`
}

// ProtocolConfig selects a protocol version from a genesis time. Zero parameters keep the version defaults.
type ProtocolConfig struct {
	Version     string `yaml:"version" toml:"version"`
	GenesisTime uint64 `yaml:"genesisTime" toml:"genesis_time"`

	MaxOperationCount                         uint    `yaml:"maxOperationCount" toml:"max_operation_count"`
	MaxOperationSize                          uint    `yaml:"maxOperationSize" toml:"max_operation_size"`
	MaxDeltaSize                              uint    `yaml:"maxDeltaSize" toml:"max_delta_size"`
	MaxCasURILength                           uint    `yaml:"maxCasUriLength" toml:"max_cas_uri_length"`
	MaxCoreIndexFileSize                      uint    `yaml:"maxCoreIndexFileSize" toml:"max_core_index_file_size"`
	MaxProofFileSize                          uint    `yaml:"maxProofFileSize" toml:"max_proof_file_size"`
	MaxProvisionalIndexFileSize               uint    `yaml:"maxProvisionalIndexFileSize" toml:"max_provisional_index_file_size"`
	MaxChunkFileSize                          uint    `yaml:"maxChunkFileSize" toml:"max_chunk_file_size"`
	MaxMemoryDecompressionFactor              uint    `yaml:"maxMemoryDecompressionFactor" toml:"max_memory_decompression_factor"`
	MaxNumberOfOperationsPerTransactionTime   uint    `yaml:"maxNumberOfOperationsPerTransactionTime" toml:"max_number_of_operations_per_transaction_time"`
	MaxNumberOfTransactionsPerTransactionTime uint    `yaml:"maxNumberOfTransactionsPerTransactionTime" toml:"max_number_of_transactions_per_transaction_time"`
	NormalizedFeeToPerOperationFeeMultiplier  float64 `yaml:"normalizedFeeToPerOperationFeeMultiplier" toml:"normalized_fee_to_per_operation_fee_multiplier"`
	ValueTimeLockAmountMultiplier             uint64  `yaml:"valueTimeLockAmountMultiplier" toml:"value_time_lock_amount_multiplier"`
	MaxNumberOfOperationsForNoValueTimeLock   uint    `yaml:"maxNumberOfOperationsForNoValueTimeLock" toml:"max_number_of_operations_for_no_value_time_lock"`
}

// Default returns the default configuration: a standalone node with protocol 1.0 from genesis.
func Default() *Config {
	return &Config{
		Namespace: "did:sidetree",
		LogLevel:  "INFO",
		Observer: ObserverConfig{
			Interval:               time.Second,
			MaxConcurrentDownloads: 20,
			MaxUnresolvableRetries: 100,
			UnresolvableRetryDelay: time.Minute,
		},
		CAS: CASConfig{
			Path:               "data/cas",
			ReadTimeout:        10 * time.Second,
			MaxConcurrentReads: 20,
		},
		Batch: BatchConfig{
			Timeout: 2 * time.Second,
		},
		HTTP: HTTPConfig{
			ListenAddress:       "localhost:48326",
			BasePath:            "/sidetree/v1",
			MetricsPath:         "/metrics",
			OperationsPerSecond: 100,
			OperationsBurst:     100,
		},
		Store: StoreConfig{
			SQLitePath: "data/sidetree.db",
		},
		Ledger: LedgerConfig{
			Writer: "local",
		},
		Protocols: []ProtocolConfig{{Version: factory.Version}},
	}
}

// Load reads the configuration file. The format is chosen by the file extension (.yaml, .yml or .toml).
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "decode YAML")
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(err, "decode TOML")
		}
	default:
		return nil, errors.Errorf("unsupported config file extension [%s]", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Namespace == "":
		return errors.New("namespace is required")
	case len(c.Protocols) == 0:
		return errors.New("at least one protocol version is required")
	case c.HTTP.ListenAddress == "":
		return errors.New("HTTP listen address is required")
	case c.Store.SQLitePath == "":
		return errors.New("sqlite path is required")
	case !c.CAS.InMemory && c.CAS.Path == "":
		return errors.New("CAS path is required")
	case c.HTTP.OperationsPerSecond < 0:
		return errors.New("operations per second must not be negative")
	}

	genesisTimes := make(map[uint64]bool)

	for _, p := range c.Protocols {
		if p.Version == "" {
			return errors.Errorf("version is required for protocol at genesis time [%d]", p.GenesisTime)
		}

		if genesisTimes[p.GenesisTime] {
			return errors.Errorf("duplicate genesis time [%d]", p.GenesisTime)
		}

		genesisTimes[p.GenesisTime] = true
	}

	return nil
}

// VersionConfigs returns the version manager configuration.
func (c *Config) VersionConfigs() []versionmanager.Config {
	configs := make([]versionmanager.Config, len(c.Protocols))

	for i, p := range c.Protocols {
		configs[i] = versionmanager.Config{
			Version:  p.Version,
			Protocol: p.Protocol(),
		}
	}

	return configs
}

// Protocol returns the protocol parameters: the defaults with the configured overrides applied.
func (p ProtocolConfig) Protocol() protocol.Protocol {
	params := DefaultProtocol()
	params.GenesisTime = p.GenesisTime

	override(&params.MaxOperationCount, p.MaxOperationCount)
	override(&params.MaxOperationSize, p.MaxOperationSize)
	override(&params.MaxDeltaSize, p.MaxDeltaSize)
	override(&params.MaxCasURILength, p.MaxCasURILength)
	override(&params.MaxCoreIndexFileSize, p.MaxCoreIndexFileSize)
	override(&params.MaxProofFileSize, p.MaxProofFileSize)
	override(&params.MaxProvisionalIndexFileSize, p.MaxProvisionalIndexFileSize)
	override(&params.MaxChunkFileSize, p.MaxChunkFileSize)
	override(&params.MaxMemoryDecompressionFactor, p.MaxMemoryDecompressionFactor)
	override(&params.MaxNumberOfOperationsPerTransactionTime, p.MaxNumberOfOperationsPerTransactionTime)
	override(&params.MaxNumberOfTransactionsPerTransactionTime, p.MaxNumberOfTransactionsPerTransactionTime)
	override(&params.MaxNumberOfOperationsForNoValueTimeLock, p.MaxNumberOfOperationsForNoValueTimeLock)

	if p.NormalizedFeeToPerOperationFeeMultiplier > 0 {
		params.NormalizedFeeToPerOperationFeeMultiplier = p.NormalizedFeeToPerOperationFeeMultiplier
	}

	if p.ValueTimeLockAmountMultiplier > 0 {
		params.ValueTimeLockAmountMultiplier = p.ValueTimeLockAmountMultiplier
	}

	return params
}

func override(param *uint, value uint) {
	if value > 0 {
		*param = value
	}
}

// DefaultProtocol returns the protocol 1.0 parameters.
func DefaultProtocol() protocol.Protocol {
	return protocol.Protocol{
		MultihashAlgorithms:                       []uint{sha2_256},
		MaxOperationCount:                         defaultMaxOperationCount,
		MaxOperationSize:                          defaultMaxOperationSize,
		MaxOperationHashLength:                    defaultMaxOperationHashLength,
		MaxDeltaSize:                              defaultMaxDeltaSize,
		MaxCasURILength:                           defaultMaxCasURILength,
		CompressionAlgorithm:                      defaultCompressionAlgorithm,
		MaxCoreIndexFileSize:                      defaultMaxCoreIndexFileSize,
		MaxProofFileSize:                          defaultMaxProofFileSize,
		MaxProvisionalIndexFileSize:               defaultMaxProvisionalIndexSize,
		MaxChunkFileSize:                          defaultMaxChunkFileSize,
		MaxMemoryDecompressionFactor:              defaultMaxDecompressionFactor,
		MaxWriterLockIDSize:                       defaultMaxWriterLockIDSize,
		MaxNumberOfOperationsPerTransactionTime:   defaultMaxOpsPerTransactionTime,
		MaxNumberOfTransactionsPerTransactionTime: defaultMaxTxnsPerTransactionTime,
		NormalizedFeeToPerOperationFeeMultiplier:  defaultFeeToPerOperationMult,
		ValueTimeLockAmountMultiplier:             defaultValueTimeLockAmountMult,
		MaxNumberOfOperationsForNoValueTimeLock:   defaultMaxOpsForNoValueTimeLock,
		Patches: []string{
			"replace", "add-public-keys", "remove-public-keys",
			"add-services", "remove-services", "ietf-json-patch",
		},
		SignatureAlgorithms: []string{"EdDSA", "ES256", "ES256K"},
		KeyAlgorithms:       []string{"Ed25519", "P-256", "secp256k1"},
	}
}
