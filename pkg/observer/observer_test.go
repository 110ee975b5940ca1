/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/mocks"
)

func TestNew(t *testing.T) {
	o := New(&Providers{}, WithInterval(0), WithMaxConcurrentDownloads(0), WithMaxUnresolvableRetries(0), WithLogger(nil))
	require.Equal(t, defaultInterval, o.interval)
	require.Equal(t, defaultMaxConcurrentDownloads, o.maxConcurrentDownloads)
	require.Equal(t, defaultMaxUnresolvableRetries, o.maxUnresolvableRetries)
	require.NotNil(t, o.logger)

	o = New(&Providers{}, WithInterval(time.Minute), WithMaxConcurrentDownloads(3), WithMaxUnresolvableRetries(5))
	require.Equal(t, time.Minute, o.interval)
	require.Equal(t, 3, o.maxConcurrentDownloads)
	require.Equal(t, 5, o.maxUnresolvableRetries)
}

func TestObserver_ProcessTransactions(t *testing.T) {
	t.Run("success - all pages are processed in order", func(t *testing.T) {
		env := newTestEnv()
		env.ledger.WithPageSize(2)

		env.anchor(t, 5)

		require.NoError(t, env.confirmations.Submit(anchorString(4), 0))

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))

		stored := env.txnStore.Transactions()
		require.Len(t, stored, 5)

		for i, st := range stored {
			require.Equal(t, uint64(i), st.TransactionNumber)
		}

		require.Equal(t, 5, env.opStore.Count())

		c, err := env.confirmations.GetLastSubmitted()
		require.NoError(t, err)
		require.NotNil(t, c.ConfirmedAt)
		require.Equal(t, uint64(4), *c.ConfirmedAt)

		// nothing new on the ledger
		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Len(t, env.txnStore.Transactions(), 5)
		require.Equal(t, 5, env.processor.count())
	})

	t.Run("success - no transactions", func(t *testing.T) {
		env := newTestEnv()

		require.NoError(t, env.observer().ProcessTransactions(context.Background()))
		require.Empty(t, env.txnStore.Transactions())
	})

	t.Run("success - resumes after the last stored transaction", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 2)

		require.NoError(t, env.observer().ProcessTransactions(context.Background()))

		env.anchor(t, 1)

		// a new observer picks up the cursor from the transaction store
		require.NoError(t, env.observer().ProcessTransactions(context.Background()))
		require.Len(t, env.txnStore.Transactions(), 3)
		require.Equal(t, 3, env.processor.count())
	})

	t.Run("success - only qualified transactions are processed", func(t *testing.T) {
		env := newTestEnv()
		env.selector.reject = map[string]bool{anchorString(1): true}

		env.anchor(t, 3)

		require.NoError(t, env.observer().ProcessTransactions(context.Background()))

		stored := env.txnStore.Transactions()
		require.Len(t, stored, 2)
		require.Equal(t, uint64(0), stored[0].TransactionNumber)
		require.Equal(t, uint64(2), stored[1].TransactionNumber)
	})

	t.Run("unresolvable transaction is recorded and retried", func(t *testing.T) {
		env := newTestEnv()
		env.processor.setUnresolvable(anchorString(1), true)

		env.anchor(t, 3)

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))

		// the transaction is stored so that the cursor moves past it
		require.Len(t, env.txnStore.Transactions(), 3)
		require.Equal(t, 2, env.opStore.Count())
		require.Equal(t, 2, env.unresolvable.Attempts(1))

		env.processor.setUnresolvable(anchorString(1), false)

		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Equal(t, 3, env.opStore.Count())
		require.Equal(t, 0, env.unresolvable.Attempts(1))
		require.Len(t, env.txnStore.Transactions(), 3)
	})

	t.Run("unexpected failure persists only the processed prefix", func(t *testing.T) {
		env := newTestEnv()
		env.processor.setUnresolvable(anchorString(2), true)
		env.unresolvable.Err = errors.New("unresolvable store error")

		env.anchor(t, 5)

		o := env.observer()

		err := o.ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "transaction processing failed")

		stored := env.txnStore.Transactions()
		require.Len(t, stored, 2)
		require.Equal(t, uint64(1), stored[1].TransactionNumber)

		env.unresolvable.Err = nil
		env.processor.setUnresolvable(anchorString(2), false)

		require.NoError(t, o.ProcessTransactions(context.Background()))

		stored = env.txnStore.Transactions()
		require.Len(t, stored, 5)

		for i, st := range stored {
			require.Equal(t, uint64(i), st.TransactionNumber)
		}
	})

	t.Run("error - ledger read", func(t *testing.T) {
		env := newTestEnv()
		env.ledger.ReadErr = errors.New("ledger error")

		err := env.observer().ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "read ledger transactions")
	})

	t.Run("error - transaction store", func(t *testing.T) {
		env := newTestEnv()
		env.txnStore.Err = errors.New("store error")

		err := env.observer().ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "get last transaction")
	})

	t.Run("error - add transaction", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 1)

		o := env.observer()
		require.NoError(t, o.initCursor())

		env.txnStore.Err = errors.New("store error")

		err := o.ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "store transaction[0]")
	})

	t.Run("error - protocol version", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 1)

		env.pc.Err = errors.New("version error")

		err := env.observer().ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "get protocol version for transaction time[0]")
	})

	t.Run("error - selector", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 1)

		env.selector.err = errors.New("selector error")

		err := env.observer().ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "select qualified transactions")
	})

	t.Run("error - unresolvable store", func(t *testing.T) {
		env := newTestEnv()
		env.unresolvable.Err = errors.New("unresolvable store error")

		err := env.observer().ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "get unresolvable transactions due for retry")
	})

	t.Run("error - context cancelled", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := env.observer().ProcessTransactions(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, env.txnStore.Transactions())
	})
}

func TestObserver_Reorg(t *testing.T) {
	t.Run("success - rolls back to the last valid transaction", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 5)

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Equal(t, 5, env.opStore.Count())

		env.processor.setUnresolvable(anchorString(3), true)
		require.NoError(t, env.unresolvable.RecordUnresolvableTransactionFetchAttempt(env.txnStore.Transactions()[3]))

		env.ledger.Fork(1)
		env.anchor(t, 2)

		require.NoError(t, o.ProcessTransactions(context.Background()))

		stored := env.txnStore.Transactions()
		require.Len(t, stored, 2)
		require.Equal(t, uint64(1), stored[1].TransactionNumber)
		require.Equal(t, 2, env.opStore.Count())
		require.Equal(t, 0, env.unresolvable.Attempts(3))
		require.Equal(t, uint64(1), o.cursor.TransactionNumber)

		// the next cycle continues after the last valid transaction
		require.NoError(t, o.ProcessTransactions(context.Background()))

		stored = env.txnStore.Transactions()
		require.Len(t, stored, 4)
		require.Equal(t, anchorString(6), stored[3].AnchorString)
		require.Equal(t, 4, env.opStore.Count())
	})

	t.Run("success - no valid transaction left", func(t *testing.T) {
		env := newTestEnv()
		env.providers.Ledger = &rewrittenLedger{MockLedger: env.ledger}

		env.anchor(t, 2)

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Len(t, env.txnStore.Transactions(), 2)

		env.ledger.Fork(0)

		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Empty(t, env.txnStore.Transactions())
		require.Equal(t, 0, env.opStore.Count())
		require.Nil(t, o.cursor)

		// reading starts over from the beginning of the ledger
		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Len(t, env.txnStore.Transactions(), 1)
	})

	t.Run("ledger lagging behind is not a reorganization", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 3)

		env.providers.Ledger = &laggingLedger{MockLedger: env.ledger}

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))

		env.ledger.Fork(0)

		require.NoError(t, o.ProcessTransactions(context.Background()))
		require.Len(t, env.txnStore.Transactions(), 3)
		require.Equal(t, 3, env.opStore.Count())
	})

	t.Run("error - latest time", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 2)

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))

		env.ledger.Fork(0)
		env.ledger.Err = errors.New("ledger error")

		err := o.ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "get latest ledger time")
	})

	t.Run("error - delete operations", func(t *testing.T) {
		env := newTestEnv()
		env.anchor(t, 2)

		o := env.observer()
		require.NoError(t, o.ProcessTransactions(context.Background()))

		env.ledger.Fork(0)
		env.opStore.DeleteErr = errors.New("delete error")

		err := o.ProcessTransactions(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "delete operations")
	})
}

func TestObserver_StartStop(t *testing.T) {
	env := newTestEnv()
	env.anchor(t, 2)

	o := env.observer(WithInterval(10 * time.Millisecond))
	o.Start()

	require.Eventually(t, func() bool {
		return len(env.txnStore.Transactions()) == 2
	}, time.Second, 10*time.Millisecond)

	o.Stop()
	require.True(t, o.Stopped())

	// stopping twice is allowed
	o.Stop()
}

func TestGroupByTransactionTime(t *testing.T) {
	groups := groupByTransactionTime([]txn.SidetreeTxn{
		{TransactionTime: 1, TransactionNumber: 0},
		{TransactionTime: 1, TransactionNumber: 1},
		{TransactionTime: 2, TransactionNumber: 2},
		{TransactionTime: 5, TransactionNumber: 3},
		{TransactionTime: 5, TransactionNumber: 4},
	})

	require.Len(t, groups, 3)
	require.Len(t, groups[0], 2)
	require.Len(t, groups[1], 1)
	require.Len(t, groups[2], 2)

	require.Empty(t, groupByTransactionTime(nil))
}

type testEnv struct {
	ledger        *mocks.MockLedger
	opStore       *mocks.MockOperationStore
	txnStore      *mocks.MockTransactionStore
	unresolvable  *mocks.MockUnresolvableTransactionStore
	confirmations *mocks.MockConfirmationStore
	pc            *mocks.MockProtocolClient
	processor     *mockTxnProcessor
	selector      *mockTxnSelector
	providers     *Providers
	anchors       int
}

func newTestEnv() *testEnv {
	env := &testEnv{
		ledger:        mocks.NewMockLedger(),
		opStore:       mocks.NewMockOperationStore(nil),
		txnStore:      mocks.NewMockTransactionStore(),
		unresolvable:  mocks.NewMockUnresolvableTransactionStore(),
		confirmations: mocks.NewMockConfirmationStore(),
		pc:            mocks.NewMockProtocolClient(),
		selector:      &mockTxnSelector{},
	}

	env.processor = &mockTxnProcessor{opStore: env.opStore, unresolvable: make(map[string]bool)}

	pv := env.pc.CurrentVersion()
	pv.Processor = env.processor
	pv.Selector = env.selector

	env.providers = &Providers{
		Ledger:            env.ledger,
		ProtocolClient:    env.pc,
		OpStore:           env.opStore,
		TxnStore:          env.txnStore,
		UnresolvableStore: env.unresolvable,
		ConfirmationStore: env.confirmations,
		Metrics:           &mocks.MetricsProvider{},
	}

	return env
}

func (e *testEnv) observer(opts ...Option) *Observer {
	return New(e.providers, append([]Option{WithMaxConcurrentDownloads(2)}, opts...)...)
}

// anchor writes n transactions to the ledger, each at its own transaction time.
func (e *testEnv) anchor(t *testing.T, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		require.NoError(t, e.ledger.Write(context.Background(), anchorString(e.anchors), 0))

		e.anchors++
		e.ledger.Advance(1)
	}
}

func anchorString(i int) string {
	return fmt.Sprintf("1.anchor-%d", i)
}

type mockTxnProcessor struct {
	mutex        sync.Mutex
	opStore      *mocks.MockOperationStore
	unresolvable map[string]bool
	processed    int
}

func (p *mockTxnProcessor) Process(_ context.Context, t txn.SidetreeTxn) (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.unresolvable[t.AnchorString] {
		return false, errors.New("CAS not reachable")
	}

	p.processed++

	return true, p.opStore.Put([]*operation.AnchoredOperation{{
		Type:              operation.TypeCreate,
		UniqueSuffix:      t.AnchorString,
		TransactionTime:   t.TransactionTime,
		TransactionNumber: t.TransactionNumber,
	}})
}

func (p *mockTxnProcessor) setUnresolvable(anchor string, value bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.unresolvable[anchor] = value
}

func (p *mockTxnProcessor) count() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.processed
}

type mockTxnSelector struct {
	reject map[string]bool
	err    error
}

func (s *mockTxnSelector) SelectQualifiedTransactions(txns []txn.SidetreeTxn) ([]txn.SidetreeTxn, error) {
	if s.err != nil {
		return nil, s.err
	}

	var qualified []txn.SidetreeTxn

	for _, t := range txns {
		if !s.reject[t.AnchorString] {
			qualified = append(qualified, t)
		}
	}

	return qualified, nil
}

// rewrittenLedger reports that none of the stored transactions are valid anymore.
type rewrittenLedger struct {
	*mocks.MockLedger
}

func (l *rewrittenLedger) GetFirstValidTransaction(context.Context, []txn.SidetreeTxn) (*txn.SidetreeTxn, error) {
	return nil, nil
}

// laggingLedger reports a latest time that is behind every transaction.
type laggingLedger struct {
	*mocks.MockLedger
}

func (l *laggingLedger) GetLatestTime(context.Context) (*ledger.LatestTime, error) {
	return &ledger.LatestTime{Time: 0}, nil
}
