/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package factory

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/compression"
	"github.com/trustbloc/sidetree-node-go/pkg/mocks"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
	"github.com/trustbloc/sidetree-node-go/pkg/util/pubkey"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/client"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/doctransformer/didtransformer"
)

const sha2_256 = 18

func TestFactory_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		pv, err := New().Create(mocks.GetDefaultProtocolParameters(), newTestProviders())
		require.NoError(t, err)
		require.NotNil(t, pv)

		require.Equal(t, Version, pv.Version())
		require.Equal(t, mocks.GetDefaultProtocolParameters().MaxOperationCount, pv.Protocol().MaxOperationCount)
		require.NotNil(t, pv.OperationParser())
		require.NotNil(t, pv.OperationApplier())
		require.NotNil(t, pv.DocumentComposer())
		require.NotNil(t, pv.DocumentTransformer())
		require.NotNil(t, pv.OperationHandler())
		require.NotNil(t, pv.OperationProvider())
		require.NotNil(t, pv.TransactionProcessor())
		require.NotNil(t, pv.TransactionSelector())
		require.NotNil(t, pv.ValueTimeLockVerifier())
		require.NotNil(t, pv.FeeManager())
	})

	t.Run("success - transformer options", func(t *testing.T) {
		f := New(WithTransformerOptions(didtransformer.WithBase(true)))
		require.Len(t, f.transformerOpts, 1)

		pv, err := f.Create(mocks.GetDefaultProtocolParameters(), newTestProviders())
		require.NoError(t, err)
		require.NotNil(t, pv.DocumentTransformer())
	})

	t.Run("error - missing providers", func(t *testing.T) {
		tests := []struct {
			name   string
			update func(p *Providers) *Providers
			errMsg string
		}{
			{"nil providers", func(*Providers) *Providers { return nil }, "providers are required"},
			{"CAS", func(p *Providers) *Providers { p.CasReader = nil; return p }, "CAS writer and reader are required"},
			{"stores", func(p *Providers) *Providers { p.TransactionStore = nil; return p }, "stores are required"},
			{"ledger", func(p *Providers) *Providers { p.Ledger = nil; return p }, "ledger is required"},
			{"compression", func(p *Providers) *Providers { p.Compression = nil; return p }, "compression provider is required"},
			{"metrics", func(p *Providers) *Providers { p.Metrics = nil; return p }, "metrics provider is required"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				pv, err := New().Create(mocks.GetDefaultProtocolParameters(), tc.update(newTestProviders()))
				require.Error(t, err)
				require.Nil(t, pv)
				require.Contains(t, err.Error(), tc.errMsg)
			})
		}
	})
}

func TestFactory_WriteAndProcess(t *testing.T) {
	providers := newTestProviders()
	l := mocks.NewMockLedger()
	providers.Ledger = l

	pv, err := New().Create(mocks.GetDefaultProtocolParameters(), providers)
	require.NoError(t, err)

	request := newCreateRequest(t)

	op, err := pv.OperationParser().Parse(mocks.DefaultNS, request)
	require.NoError(t, err)

	info, err := pv.OperationHandler().PrepareTxnFiles([]*operation.QueuedOperation{
		{
			Type:             op.Type,
			OperationRequest: request,
			UniqueSuffix:     op.UniqueSuffix,
			Namespace:        mocks.DefaultNS,
		},
	}, "")
	require.NoError(t, err)
	require.Len(t, info.OperationReferences, 1)

	require.NoError(t, l.Write(context.Background(), info.AnchorString, 0))

	txns := l.Transactions()
	require.Len(t, txns, 1)

	qualified, err := pv.TransactionSelector().SelectQualifiedTransactions(txns)
	require.NoError(t, err)
	require.Len(t, qualified, 1)

	done, err := pv.TransactionProcessor().Process(context.Background(), qualified[0])
	require.NoError(t, err)
	require.True(t, done)

	ops, err := providers.OperationStore.Get(op.UniqueSuffix)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, operation.TypeCreate, ops[0].Type)

	result := pv.OperationApplier().Apply(ops[0], nil)
	require.True(t, result.IsApplied())

	doc, err := pv.DocumentTransformer().TransformDocument(result.State, protocol.TransformationInfo{
		protocol.IDKey:        mocks.DefaultNS + ":" + op.UniqueSuffix,
		protocol.PublishedKey: true,
	})
	require.NoError(t, err)
	require.Equal(t, mocks.DefaultNS+":"+op.UniqueSuffix, doc.Document.ID())
}

func newTestProviders() *Providers {
	casClient := mocks.NewMockCasClient(nil)

	return &Providers{
		CasWriter:        casClient,
		CasReader:        casClient,
		OperationStore:   mocks.NewMockOperationStore(nil),
		TransactionStore: mocks.NewMockTransactionStore(),
		Ledger:           mocks.NewMockLedger(),
		Compression:      compression.New(compression.WithDefaultAlgorithms()),
		Metrics:          &mocks.MetricsProvider{},
	}
}

func newCreateRequest(t *testing.T) []byte {
	t.Helper()

	p, err := patch.NewAddPublicKeysPatch(`[{"id": "key1", "type": "JsonWebKey2020",
		"purposes": ["authentication"],
		"publicKeyJwk": {"kty": "EC", "crv": "P-256K", "x": "PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA"}}]`)
	require.NoError(t, err)

	request, err := client.NewCreateRequest(&client.CreateRequestInfo{
		Patches:            []patch.Patch{p},
		RecoveryCommitment: newCommitment(t),
		UpdateCommitment:   newCommitment(t),
		MultihashCode:      sha2_256,
	})
	require.NoError(t, err)

	return request
}

func newCommitment(t *testing.T) string {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwk, err := pubkey.GetPublicKeyJWK(&privateKey.PublicKey)
	require.NoError(t, err)

	c, err := commitment.GetCommitment(jwk, sha2_256)
	require.NoError(t, err)

	return c
}
