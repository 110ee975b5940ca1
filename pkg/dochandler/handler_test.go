/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dochandler

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/compression"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/mocks"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
	"github.com/trustbloc/sidetree-node-go/pkg/resolver"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/util/pubkey"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/client"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/factory"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationparser"
)

const (
	namespace = mocks.DefaultNS
	sha2_256  = 18
)

func TestDocumentHandler_ProcessOperation(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		env := newTestEnv(t)

		request, suffix := newCreateRequest(t)

		result, err := env.handler.ProcessOperation(request)
		require.NoError(t, err)
		require.Equal(t, namespace+":"+suffix, result.Document.ID())

		method, ok := result.DocumentMetadata[document.MethodProperty].(document.Metadata)
		require.True(t, ok)
		require.Equal(t, false, method[document.PublishedProperty])

		require.Len(t, env.writer.ops, 1)
		require.Equal(t, operation.TypeCreate, env.writer.ops[0].Type)
		require.Equal(t, suffix, env.writer.ops[0].UniqueSuffix)
		require.Equal(t, namespace, env.writer.ops[0].Namespace)
		require.Equal(t, request, env.writer.ops[0].OperationRequest)
	})

	t.Run("invalid operation", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.handler.ProcessOperation([]byte(`{"type":"create"}`))
		require.Error(t, err)
		require.Nil(t, result)

		_, ok := sidetreeerr.CodeOf(err)
		require.True(t, ok)
		require.Empty(t, env.writer.ops)
	})

	t.Run("batch writer error", func(t *testing.T) {
		env := newTestEnv(t)
		env.writer.err = errors.New("writer is stopped")

		request, _ := newCreateRequest(t)

		result, err := env.handler.ProcessOperation(request)
		require.Error(t, err)
		require.Contains(t, err.Error(), "writer is stopped")
		require.Nil(t, result)
	})

	t.Run("protocol error", func(t *testing.T) {
		env := newTestEnv(t)
		env.pc.Err = errors.New("protocol error")

		request, _ := newCreateRequest(t)

		_, err := env.handler.ProcessOperation(request)
		require.Error(t, err)
		require.Contains(t, err.Error(), "protocol error")
	})
}

func TestDocumentHandler_ResolveDocument(t *testing.T) {
	env := newTestEnv(t)

	request, suffix := newCreateRequest(t)
	did := namespace + ":" + suffix

	t.Run("not found", func(t *testing.T) {
		result, err := env.handler.ResolveDocument(context.Background(), did)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
		require.Nil(t, result)
	})

	t.Run("long-form - unpublished", func(t *testing.T) {
		result, err := env.handler.ResolveDocument(context.Background(), did+":"+longFormSuffix(t, request))
		require.NoError(t, err)
		require.Equal(t, did, result.Document.ID())

		method := result.DocumentMetadata[document.MethodProperty].(document.Metadata)
		require.Equal(t, false, method[document.PublishedProperty])
	})

	require.NoError(t, env.store.Put([]*operation.AnchoredOperation{{
		Type:              operation.TypeCreate,
		UniqueSuffix:      suffix,
		OperationRequest:  request,
		TransactionNumber: 1,
	}}))

	t.Run("published", func(t *testing.T) {
		result, err := env.handler.ResolveDocument(context.Background(), did)
		require.NoError(t, err)
		require.Equal(t, did, result.Document.ID())
		require.NotEmpty(t, result.Document[document.VerificationMethodProperty])

		method := result.DocumentMetadata[document.MethodProperty].(document.Metadata)
		require.Equal(t, true, method[document.PublishedProperty])
	})

	t.Run("long-form - published", func(t *testing.T) {
		result, err := env.handler.ResolveDocument(context.Background(), did+":"+longFormSuffix(t, request))
		require.NoError(t, err)

		method := result.DocumentMetadata[document.MethodProperty].(document.Metadata)
		require.Equal(t, true, method[document.PublishedProperty])
	})

	t.Run("error - wrong namespace", func(t *testing.T) {
		_, err := env.handler.ResolveDocument(context.Background(), "did:other:"+suffix)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.DIDInvalid))
	})

	t.Run("error - empty suffix", func(t *testing.T) {
		_, err := env.handler.ResolveDocument(context.Background(), namespace+":")
		require.True(t, sidetreeerr.Is(err, sidetreeerr.DIDInvalid))
	})

	t.Run("error - long-form suffix mismatch", func(t *testing.T) {
		other, _ := newCreateRequest(t)

		_, err := env.handler.ResolveDocument(context.Background(), namespace+":unknown:"+longFormSuffix(t, other))
		require.True(t, sidetreeerr.Is(err, sidetreeerr.DIDInvalid))
		require.Contains(t, err.Error(), "doesn't match")
	})

	t.Run("error - long-form encoding", func(t *testing.T) {
		_, err := env.handler.ResolveDocument(context.Background(), namespace+":unknown:!!")
		require.True(t, sidetreeerr.Is(err, sidetreeerr.EncodedStringIncorrectEncoding))

		_, err = env.handler.ResolveDocument(context.Background(),
			namespace+":unknown:"+encoder.EncodeToString([]byte("not json")))
		require.True(t, sidetreeerr.Is(err, sidetreeerr.OperationNotJSON))
	})

	t.Run("error - store", func(t *testing.T) {
		h := New(namespace, env.pc, env.writer,
			resolver.New(namespace, mocks.NewMockOperationStore(errors.New("store error")), env.pc))

		_, err := h.ResolveDocument(context.Background(), did)
		require.Error(t, err)
		require.Contains(t, err.Error(), "store error")
	})
}

type testEnv struct {
	pc      *mocks.MockProtocolClient
	store   *mocks.MockOperationStore
	writer  *mockBatchWriter
	handler *DocumentHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	casClient := mocks.NewMockCasClient(nil)
	opStore := mocks.NewMockOperationStore(nil)

	pv, err := factory.New().Create(mocks.GetDefaultProtocolParameters(), &factory.Providers{
		CasWriter:        casClient,
		CasReader:        casClient,
		OperationStore:   opStore,
		TransactionStore: mocks.NewMockTransactionStore(),
		Ledger:           mocks.NewMockLedger(),
		Compression:      compression.New(compression.WithDefaultAlgorithms()),
		Metrics:          &mocks.MetricsProvider{},
	})
	require.NoError(t, err)

	pc := mocks.NewMockProtocolClientWithVersions(pv)
	writer := &mockBatchWriter{}

	return &testEnv{
		pc:      pc,
		store:   opStore,
		writer:  writer,
		handler: New(namespace, pc, writer, resolver.New(namespace, opStore, pc)),
	}
}

type mockBatchWriter struct {
	ops []*operation.QueuedOperation
	err error
}

func (m *mockBatchWriter) Add(op *operation.QueuedOperation, _ uint64) error {
	if m.err != nil {
		return m.err
	}

	m.ops = append(m.ops, op)

	return nil
}

func newCreateRequest(t *testing.T) ([]byte, string) {
	t.Helper()

	p, err := patch.NewAddPublicKeysPatch(`[{"id": "key-1", "type": "JsonWebKey2020", "purposes": ["authentication"],
		"publicKeyJwk": {"kty": "EC", "crv": "P-256K", "x": "PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA"}}]`)
	require.NoError(t, err)

	request, err := client.NewCreateRequest(&client.CreateRequestInfo{
		Patches:            []patch.Patch{p},
		RecoveryCommitment: newCommitment(t),
		UpdateCommitment:   newCommitment(t),
		MultihashCode:      sha2_256,
	})
	require.NoError(t, err)

	op, err := operationparser.New(mocks.GetDefaultProtocolParameters()).Parse(namespace, request)
	require.NoError(t, err)

	return request, op.UniqueSuffix
}

func longFormSuffix(t *testing.T, request []byte) string {
	t.Helper()

	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(request, &obj))

	delete(obj, "type")

	initialState, err := canonicalizer.MarshalCanonical(obj)
	require.NoError(t, err)

	return encoder.EncodeToString(initialState)
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
