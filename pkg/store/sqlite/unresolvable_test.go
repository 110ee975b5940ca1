/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestUnresolvableStore(t *testing.T) {
	clock := &testClock{now: time.Unix(1600000000, 0)}

	s := NewUnresolvableStore(newTestDB(t), WithRetryDelayFactor(time.Second), WithClock(clock.Now))

	t.Run("backoff", func(t *testing.T) {
		require.NoError(t, s.RecordUnresolvableTransactionFetchAttempt(newTxn(1, 1)))

		// first retry is due one delay factor after the first fetch
		due, err := s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Empty(t, due)

		clock.Advance(time.Second)

		due, err = s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Len(t, due, 1)
		require.Equal(t, newTxn(1, 1), due[0])

		// second retry is due two delay factors after the first fetch
		require.NoError(t, s.RecordUnresolvableTransactionFetchAttempt(newTxn(1, 1)))

		due, err = s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Empty(t, due)

		clock.Advance(time.Second)

		due, err = s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Len(t, due, 1)

		require.NoError(t, s.RemoveUnresolvableTransaction(newTxn(1, 1)))

		due, err = s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Empty(t, due)
	})

	t.Run("max return count", func(t *testing.T) {
		for i := uint64(1); i <= 3; i++ {
			require.NoError(t, s.RecordUnresolvableTransactionFetchAttempt(newTxn(i, i)))
		}

		clock.Advance(time.Second)

		due, err := s.GetUnresolvableTransactionsDueForRetry(2)
		require.NoError(t, err)
		require.Len(t, due, 2)
		require.Equal(t, uint64(1), due[0].TransactionNumber)
	})

	t.Run("remove later than", func(t *testing.T) {
		require.NoError(t, s.RemoveUnresolvableTransactionsLaterThan(uint64Ptr(1)))

		due, err := s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Len(t, due, 1)

		require.NoError(t, s.RemoveUnresolvableTransactionsLaterThan(nil))

		due, err = s.GetUnresolvableTransactionsDueForRetry(0)
		require.NoError(t, err)
		require.Empty(t, due)
	})
}

func TestUnresolvableStore_Backoff(t *testing.T) {
	s := NewUnresolvableStore(newTestDB(t))

	require.Equal(t, time.Minute, s.backoff(0))
	require.Equal(t, 8*time.Minute, s.backoff(3))

	// 2^27 minutes still fits; 2^28 minutes does not
	require.Equal(t, time.Duration(1<<27)*time.Minute, s.backoff(27))
	require.Equal(t, time.Duration(math.MaxInt64), s.backoff(28))
	require.Equal(t, time.Duration(math.MaxInt64), s.backoff(63))
	require.Equal(t, time.Duration(math.MaxInt64), s.backoff(1000))

	prev := s.backoff(0)

	for attempts := 1; attempts <= 100; attempts++ {
		next := s.backoff(attempts)
		require.Positive(t, next)
		require.GreaterOrEqual(t, next, prev)

		prev = next
	}
}

func TestUnresolvableStore_ManyAttempts(t *testing.T) {
	clock := &testClock{now: time.Unix(1600000000, 0)}

	s := NewUnresolvableStore(newTestDB(t), WithClock(clock.Now))

	for i := 0; i < 40; i++ {
		require.NoError(t, s.RecordUnresolvableTransactionFetchAttempt(newTxn(1, 1)))
	}

	// a saturated backoff keeps the transaction out of the retry set instead of wrapping into the past
	due, err := s.GetUnresolvableTransactionsDueForRetry(0)
	require.NoError(t, err)
	require.Empty(t, due)

	clock.Advance(100 * 365 * 24 * time.Hour)

	due, err = s.GetUnresolvableTransactionsDueForRetry(0)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestUnresolvableStore_Closed(t *testing.T) {
	db := newTestDB(t)
	s := NewUnresolvableStore(db)

	require.NoError(t, db.db.Close())

	require.Error(t, s.RecordUnresolvableTransactionFetchAttempt(newTxn(1, 1)))
	require.Error(t, s.RemoveUnresolvableTransaction(newTxn(1, 1)))
	require.Error(t, s.RemoveUnresolvableTransactionsLaterThan(nil))

	_, err := s.GetUnresolvableTransactionsDueForRetry(1)
	require.Error(t, err)
}
