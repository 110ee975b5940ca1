/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const defaultRetryDelayFactor = time.Minute

// UnresolvableStore tracks transactions whose batch files could not be fetched. The next retry of a
// transaction is scheduled exponentially: first fetch time + 2^attempts * retry delay factor. The delay
// saturates at the largest time.Duration.
type UnresolvableStore struct {
	*DB

	retryDelayFactor time.Duration
	now              func() time.Time
}

// UnresolvableOption configures the unresolvable transaction store.
type UnresolvableOption func(s *UnresolvableStore)

// WithRetryDelayFactor sets the base delay of the exponential retry backoff.
func WithRetryDelayFactor(factor time.Duration) UnresolvableOption {
	return func(s *UnresolvableStore) {
		if factor > 0 {
			s.retryDelayFactor = factor
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) UnresolvableOption {
	return func(s *UnresolvableStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewUnresolvableStore returns an unresolvable transaction store backed by the given database.
func NewUnresolvableStore(db *DB, opts ...UnresolvableOption) *UnresolvableStore {
	s := &UnresolvableStore{
		DB:               db,
		retryDelayFactor: defaultRetryDelayFactor,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RecordUnresolvableTransactionFetchAttempt records a failed fetch attempt and schedules the next retry.
func (s *UnresolvableStore) RecordUnresolvableTransactionFetchAttempt(t txn.SidetreeTxn) error {
	now := s.now().UnixMilli()

	var firstFetch int64

	var attempts int

	err := s.db.QueryRow(`SELECT first_fetch_time, retry_attempts FROM unresolvable_transactions WHERE txn_number = ?`,
		t.TransactionNumber).Scan(&firstFetch, &attempts)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		firstFetch = now
		attempts = 0
	case err != nil:
		return errors.Wrapf(err, "get unresolvable transaction[%d]", t.TransactionNumber)
	default:
		attempts++
	}

	nextRetry := firstFetch + s.backoff(attempts).Milliseconds()

	_, err = s.db.Exec(`INSERT OR REPLACE INTO unresolvable_transactions (`+transactionColumns+`,
		first_fetch_time, retry_attempts, next_retry_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransactionNumber, t.TransactionTime, t.TransactionTimeHash, t.AnchorString,
		t.TransactionFeePaid, t.NormalizedTransactionFee, t.Writer, t.Namespace,
		firstFetch, attempts, nextRetry)
	if err != nil {
		return errors.Wrapf(err, "record unresolvable transaction[%d]", t.TransactionNumber)
	}

	s.logger.Debug("Recorded unresolvable transaction fetch attempt", log.WithTransactionNumber(t.TransactionNumber),
		log.WithRetryAttempts(attempts))

	return nil
}

// RemoveUnresolvableTransaction removes the transaction from the store.
func (s *UnresolvableStore) RemoveUnresolvableTransaction(t txn.SidetreeTxn) error {
	_, err := s.db.Exec(`DELETE FROM unresolvable_transactions WHERE txn_number = ?`, t.TransactionNumber)

	return errors.Wrapf(err, "remove unresolvable transaction[%d]", t.TransactionNumber)
}

// GetUnresolvableTransactionsDueForRetry returns up to maxReturnCount transactions whose next retry time
// has passed, earliest first.
func (s *UnresolvableStore) GetUnresolvableTransactionsDueForRetry(maxReturnCount int) ([]txn.SidetreeTxn, error) {
	limit := -1
	if maxReturnCount > 0 {
		limit = maxReturnCount
	}

	rows, err := s.db.Query(`SELECT `+transactionColumns+` FROM unresolvable_transactions
		WHERE next_retry_time <= ? ORDER BY next_retry_time, txn_number LIMIT ?`, s.now().UnixMilli(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query unresolvable transactions")
	}

	defer rows.Close() //nolint:errcheck

	var result []txn.SidetreeTxn

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan unresolvable transaction")
		}

		result = append(result, *t)
	}

	return result, errors.Wrap(rows.Err(), "read unresolvable transactions")
}

// RemoveUnresolvableTransactionsLaterThan removes transactions after the given transaction number, or all if nil.
func (s *UnresolvableStore) RemoveUnresolvableTransactionsLaterThan(transactionNumber *uint64) error {
	_, err := s.db.Exec(`DELETE FROM unresolvable_transactions WHERE ? IS NULL OR txn_number > ?`,
		nullableNumber(transactionNumber), nullableNumber(transactionNumber))

	return errors.Wrap(err, "remove unresolvable transactions")
}

// backoff returns 2^attempts * retry delay factor, saturated at the largest time.Duration.
func (s *UnresolvableStore) backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}

	factor := int64(s.retryDelayFactor)

	if attempts >= 63 || int64(1)<<uint(attempts) > math.MaxInt64/factor {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(int64(1)<<uint(attempts) * factor)
}
