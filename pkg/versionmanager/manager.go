/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package versionmanager

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/factory"
)

var logger = log.New("sidetree-core-versionmanager")

// Factory creates the implementation of one protocol version.
type Factory interface {
	Create(p protocol.Protocol, providers *factory.Providers) (protocol.Version, error)
}

// Config ties a version string to the protocol parameters that apply from its genesis time.
type Config struct {
	Version  string
	Protocol protocol.Protocol
}

// Option is a version manager option.
type Option func(m *Manager)

// WithFactory registers the factory for the given version string, replacing the built-in one.
func WithFactory(version string, f Factory) Option {
	return func(m *Manager) {
		m.factories[version] = f
	}
}

// Manager holds a static table of protocol versions ordered by genesis time.
type Manager struct {
	mutex     sync.RWMutex
	factories map[string]Factory
	versions  []protocol.Version
}

// New returns a version manager with the compiled-in version factories registered.
func New(opts ...Option) *Manager {
	m := &Manager{
		factories: map[string]Factory{
			factory.Version: factory.New(),
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load creates a version for each configuration entry. Genesis times must be unique.
func (m *Manager) Load(configs []Config, providers *factory.Providers) error {
	if len(configs) == 0 {
		return errors.New("at least one protocol version is required")
	}

	versions := make([]protocol.Version, 0, len(configs))
	genesisTimes := make(map[uint64]bool)

	for _, cfg := range configs {
		if genesisTimes[cfg.Protocol.GenesisTime] {
			return errors.Errorf("duplicate genesis time [%d] for version [%s]", cfg.Protocol.GenesisTime, cfg.Version)
		}

		genesisTimes[cfg.Protocol.GenesisTime] = true

		f, ok := m.factories[cfg.Version]
		if !ok {
			return sidetreeerr.Newf(sidetreeerr.VersionNotFound, "protocol version [%s] is not supported", cfg.Version)
		}

		v, err := f.Create(cfg.Protocol, providers)
		if err != nil {
			return errors.Wrapf(err, "create protocol version [%s]", cfg.Version)
		}

		logger.Info("Loaded protocol version", log.WithVersion(cfg.Version), log.WithVersionTime(cfg.Protocol.GenesisTime))

		versions = append(versions, v)
	}

	m.Add(versions...)

	return nil
}

// Add adds already created versions to the table.
func (m *Manager) Add(versions ...protocol.Version) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.versions = append(m.versions, versions...)

	sort.SliceStable(m.versions, func(i, j int) bool {
		return m.versions[i].Protocol().GenesisTime < m.versions[j].Protocol().GenesisTime
	})
}

// Current returns the latest protocol version.
func (m *Manager) Current() (protocol.Version, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if len(m.versions) == 0 {
		return nil, sidetreeerr.New(sidetreeerr.VersionNotFound, "no protocol versions loaded")
	}

	return m.versions[len(m.versions)-1], nil
}

// Get returns the protocol version that applies at the given transaction time.
func (m *Manager) Get(transactionTime uint64) (protocol.Version, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for i := len(m.versions) - 1; i >= 0; i-- {
		if transactionTime >= m.versions[i].Protocol().GenesisTime {
			return m.versions[i], nil
		}
	}

	return nil, sidetreeerr.Newf(sidetreeerr.VersionNotFound, "protocol version not found for transaction time [%d]",
		transactionTime)
}
