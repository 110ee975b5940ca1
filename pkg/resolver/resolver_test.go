/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/jws"
	"github.com/trustbloc/sidetree-node-go/pkg/mocks"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/util/pubkey"
	"github.com/trustbloc/sidetree-node-go/pkg/util/signer"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/client"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/doccomposer"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationapplier"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/operationparser"
)

const (
	sha2_256 = 18
	name     = "test"
)

func TestResolve(t *testing.T) {
	t.Run("success - create only", func(t *testing.T) {
		did := newTestDID(t)
		store := newStore(t, did.create(t, 1))

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, did.recoveryKey.commitment(t), state.RecoveryCommitment)
		require.Equal(t, did.updateKey.commitment(t), state.UpdateCommitment)
		require.Equal(t, uint64(1), state.LastOperationTransactionNumber)
		require.Equal(t, []string{"key-1"}, keyIDs(state))
	})

	t.Run("success - update chain applied in ledger order", func(t *testing.T) {
		did := newTestDID(t)

		u2, u3 := newTestKey(t), newTestKey(t)

		store := newStore(t,
			did.update(t, u2, u3, "key-3", 3),
			did.create(t, 1),
			did.update(t, did.updateKey, u2, "key-2", 2),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, u3.commitment(t), state.UpdateCommitment)
		require.Equal(t, uint64(3), state.LastOperationTransactionNumber)
		require.Equal(t, []string{"key-1", "key-2", "key-3"}, keyIDs(state))
	})

	t.Run("success - earliest of competing updates wins", func(t *testing.T) {
		did := newTestDID(t)

		legit, attacker := newTestKey(t), newTestKey(t)

		store := newStore(t,
			did.create(t, 1),
			did.update(t, did.updateKey, attacker, "attacker", 5),
			did.update(t, did.updateKey, legit, "legit", 4),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, legit.commitment(t), state.UpdateCommitment)
		require.Equal(t, []string{"key-1", "legit"}, keyIDs(state))
	})

	t.Run("success - recovery resets update chain", func(t *testing.T) {
		did := newTestDID(t)

		nextRecovery, nextUpdate, staleNext := newTestKey(t), newTestKey(t), newTestKey(t)

		store := newStore(t,
			did.create(t, 1),
			did.recover(t, did.recoveryKey, nextRecovery, nextUpdate, 2),
			// signed with the update key committed to by the create: stale after the recovery
			did.update(t, did.updateKey, staleNext, "stale", 3),
			did.update(t, nextUpdate, newTestKey(t), "fresh", 4),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, nextRecovery.commitment(t), state.RecoveryCommitment)
		require.Equal(t, uint64(4), state.LastOperationTransactionNumber)
		require.Equal(t, []string{"recovered", "fresh"}, keyIDs(state))
	})

	t.Run("success - recovery applies before an earlier update", func(t *testing.T) {
		did := newTestDID(t)

		nextRecovery, nextUpdate := newTestKey(t), newTestKey(t)

		store := newStore(t,
			did.create(t, 1),
			did.update(t, did.updateKey, newTestKey(t), "before-recovery", 2),
			did.recover(t, did.recoveryKey, nextRecovery, nextUpdate, 3),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, nextUpdate.commitment(t), state.UpdateCommitment)
		require.Equal(t, []string{"recovered"}, keyIDs(state))
	})

	t.Run("success - deactivate is terminal", func(t *testing.T) {
		did := newTestDID(t)

		nextRecovery, nextUpdate := newTestKey(t), newTestKey(t)

		store := newStore(t,
			did.create(t, 1),
			did.deactivate(t, did.recoveryKey, 2),
			did.recover(t, did.recoveryKey, nextRecovery, nextUpdate, 3),
			did.update(t, did.updateKey, newTestKey(t), "after-deactivate", 4),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.True(t, state.Deactivated())
		require.Empty(t, state.UpdateCommitment)
		require.Equal(t, uint64(2), state.LastOperationTransactionNumber)
	})

	t.Run("success - update reusing a commitment is rejected", func(t *testing.T) {
		did := newTestDID(t)

		u2 := newTestKey(t)

		store := newStore(t,
			did.create(t, 1),
			did.update(t, did.updateKey, u2, "key-2", 2),
			// commits back to the update key that was already revealed
			did.update(t, u2, did.updateKey, "replay", 3),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, u2.commitment(t), state.UpdateCommitment)
		require.Equal(t, uint64(2), state.LastOperationTransactionNumber)
	})

	t.Run("success - recover to the current commitment is rejected", func(t *testing.T) {
		did := newTestDID(t)

		store := newStore(t,
			did.create(t, 1),
			did.recover(t, did.recoveryKey, did.recoveryKey, newTestKey(t), 2),
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, did.recoveryKey.commitment(t), state.RecoveryCommitment)
		require.Equal(t, uint64(1), state.LastOperationTransactionNumber)
	})

	t.Run("success - additional unpublished create", func(t *testing.T) {
		did := newTestDID(t)

		state, err := newResolver(mocks.NewMockOperationStore(nil)).Resolve(context.Background(), did.suffix,
			WithAdditionalOperations(did.create(t, 0)))
		require.NoError(t, err)
		require.Equal(t, did.updateKey.commitment(t), state.UpdateCommitment)
	})

	t.Run("success - invalid reveal value is skipped", func(t *testing.T) {
		did := newTestDID(t)

		store := newStore(t,
			did.create(t, 1),
			&operation.AnchoredOperation{
				Type:              operation.TypeUpdate,
				UniqueSuffix:      did.suffix,
				OperationRequest:  []byte(`{"type":"update"}`),
				TransactionNumber: 2,
			},
		)

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.Equal(t, uint64(1), state.LastOperationTransactionNumber)
	})

	t.Run("error - not found", func(t *testing.T) {
		state, err := newResolver(mocks.NewMockOperationStore(nil)).Resolve(context.Background(), "suffix")
		require.Error(t, err)
		require.Nil(t, state)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
	})

	t.Run("error - no valid create", func(t *testing.T) {
		did := newTestDID(t)

		store := newStore(t, did.update(t, did.updateKey, newTestKey(t), "key-2", 2))

		state, err := newResolver(store).Resolve(context.Background(), did.suffix)
		require.Error(t, err)
		require.Nil(t, state)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
		require.Contains(t, err.Error(), "valid create operation not found")
	})

	t.Run("error - store error", func(t *testing.T) {
		store := mocks.NewMockOperationStore(errors.New("store error"))

		state, err := newResolver(store).Resolve(context.Background(), "suffix")
		require.Error(t, err)
		require.Nil(t, state)
		require.Contains(t, err.Error(), "store error")
	})

	t.Run("error - protocol version not found", func(t *testing.T) {
		did := newTestDID(t)
		store := newStore(t, did.create(t, 1))

		pc := newProtocolClient()
		pc.Err = errors.New("protocol error")

		state, err := New(name, store, pc).Resolve(context.Background(), did.suffix)
		require.Error(t, err)
		require.Nil(t, state)
		require.True(t, sidetreeerr.Is(err, sidetreeerr.NotFound))
	})

	t.Run("error - context cancelled", func(t *testing.T) {
		did := newTestDID(t)
		store := newStore(t,
			did.create(t, 1),
			did.update(t, did.updateKey, newTestKey(t), "key-2", 2),
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		state, err := newResolver(store).Resolve(ctx, did.suffix)
		require.Error(t, err)
		require.Nil(t, state)
		require.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("success - with options", func(t *testing.T) {
		did := newTestDID(t)
		store := newStore(t, did.create(t, 1))

		r := New(name, store, newProtocolClient(), WithMetrics(&mocks.MetricsProvider{}), WithLogger(nil))
		require.NotNil(t, r.logger)

		state, err := r.Resolve(context.Background(), did.suffix)
		require.NoError(t, err)
		require.NotNil(t, state)
	})
}

func newResolver(store OperationStore) *Resolver {
	return New(name, store, newProtocolClient())
}

func newProtocolClient() *mocks.MockProtocolClient {
	p := mocks.GetDefaultProtocolParameters()
	parser := operationparser.New(p)

	pv := mocks.NewProtocolVersion(p)
	pv.Parser = parser
	pv.Applier = operationapplier.New(p, parser, doccomposer.New())

	return mocks.NewMockProtocolClientWithVersions(pv)
}

func newStore(t *testing.T, ops ...*operation.AnchoredOperation) *mocks.MockOperationStore {
	t.Helper()

	store := mocks.NewMockOperationStore(nil)
	require.NoError(t, store.Put(ops))

	return store
}

func keyIDs(state *protocol.DIDState) []string {
	var ids []string

	for _, pk := range state.Doc.PublicKeys() {
		ids = append(ids, pk.ID())
	}

	return ids
}

type testKey struct {
	privateKey *ecdsa.PrivateKey
	jwk        *jws.JWK
}

func newTestKey(t *testing.T) *testKey {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwk, err := pubkey.GetPublicKeyJWK(&privateKey.PublicKey)
	require.NoError(t, err)

	return &testKey{privateKey: privateKey, jwk: jwk}
}

func (k *testKey) commitment(t *testing.T) string {
	t.Helper()

	c, err := commitment.GetCommitment(k.jwk, sha2_256)
	require.NoError(t, err)

	return c
}

func (k *testKey) revealValue(t *testing.T) string {
	t.Helper()

	rv, err := commitment.GetRevealValue(k.jwk, sha2_256)
	require.NoError(t, err)

	return rv
}

func (k *testKey) signer() client.Signer {
	return signer.NewECDSA(k.privateKey, "ES256", "")
}

type testDID struct {
	recoveryKey *testKey
	updateKey   *testKey
	suffix      string
	request     []byte
}

func newTestDID(t *testing.T) *testDID {
	t.Helper()

	did := &testDID{recoveryKey: newTestKey(t), updateKey: newTestKey(t)}

	request, err := client.NewCreateRequest(&client.CreateRequestInfo{
		Patches:            []patch.Patch{addKeysPatch(t, "key-1")},
		RecoveryCommitment: did.recoveryKey.commitment(t),
		UpdateCommitment:   did.updateKey.commitment(t),
		MultihashCode:      sha2_256,
	})
	require.NoError(t, err)

	op, err := operationparser.New(mocks.GetDefaultProtocolParameters()).Parse(mocks.DefaultNS, request)
	require.NoError(t, err)

	did.suffix = op.UniqueSuffix
	did.request = request

	return did
}

func (d *testDID) create(_ *testing.T, txnNumber uint64) *operation.AnchoredOperation {
	return anchored(operation.TypeCreate, d.suffix, d.request, txnNumber)
}

func (d *testDID) update(t *testing.T, updateKey, nextUpdateKey *testKey, keyID string, txnNumber uint64) *operation.AnchoredOperation {
	t.Helper()

	request, err := client.NewUpdateRequest(&client.UpdateRequestInfo{
		DidSuffix:        d.suffix,
		Patches:          []patch.Patch{addKeysPatch(t, keyID)},
		UpdateCommitment: nextUpdateKey.commitment(t),
		UpdateKey:        updateKey.jwk,
		MultihashCode:    sha2_256,
		Signer:           updateKey.signer(),
		RevealValue:      updateKey.revealValue(t),
	})
	require.NoError(t, err)

	return anchored(operation.TypeUpdate, d.suffix, request, txnNumber)
}

func (d *testDID) recover(t *testing.T, recoveryKey, nextRecoveryKey, nextUpdateKey *testKey,
	txnNumber uint64) *operation.AnchoredOperation {
	t.Helper()

	request, err := client.NewRecoverRequest(&client.RecoverRequestInfo{
		DidSuffix:          d.suffix,
		RecoveryKey:        recoveryKey.jwk,
		Patches:            []patch.Patch{replacePatch(t, "recovered")},
		RecoveryCommitment: nextRecoveryKey.commitment(t),
		UpdateCommitment:   nextUpdateKey.commitment(t),
		MultihashCode:      sha2_256,
		Signer:             recoveryKey.signer(),
		RevealValue:        recoveryKey.revealValue(t),
	})
	require.NoError(t, err)

	return anchored(operation.TypeRecover, d.suffix, request, txnNumber)
}

func (d *testDID) deactivate(t *testing.T, recoveryKey *testKey, txnNumber uint64) *operation.AnchoredOperation {
	t.Helper()

	request, err := client.NewDeactivateRequest(&client.DeactivateRequestInfo{
		DidSuffix:   d.suffix,
		RecoveryKey: recoveryKey.jwk,
		Signer:      recoveryKey.signer(),
		RevealValue: recoveryKey.revealValue(t),
	})
	require.NoError(t, err)

	return anchored(operation.TypeDeactivate, d.suffix, request, txnNumber)
}

func anchored(opType operation.Type, suffix string, request []byte, txnNumber uint64) *operation.AnchoredOperation {
	return &operation.AnchoredOperation{
		Type:              opType,
		UniqueSuffix:      suffix,
		OperationRequest:  request,
		TransactionTime:   txnNumber,
		TransactionNumber: txnNumber,
	}
}

const testJWK = `{"kty": "EC", "crv": "P-256K", "x": "PUymIqdtF_qxaAqPABSw-C-owT1KYYQbsMKFM-L9fJA"}`

func addKeysPatch(t *testing.T, id string) patch.Patch {
	t.Helper()

	p, err := patch.NewAddPublicKeysPatch(`[{"id": "` + id + `", "type": "JsonWebKey2020", "purposes": ["authentication"],
		"publicKeyJwk": ` + testJWK + `}]`)
	require.NoError(t, err)

	return p
}

func replacePatch(t *testing.T, id string) patch.Patch {
	t.Helper()

	p, err := patch.NewReplacePatch(`{"publicKeys": [{"id": "` + id + `", "type": "JsonWebKey2020",
		"purposes": ["authentication"], "publicKeyJwk": ` + testJWK + `}]}`)
	require.NoError(t, err)

	return p
}
