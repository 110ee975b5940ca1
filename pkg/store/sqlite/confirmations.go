/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

// ConfirmationStore tracks anchor strings written by this node.
type ConfirmationStore struct {
	*DB
}

// NewConfirmationStore returns a confirmation store backed by the given database.
func NewConfirmationStore(db *DB) *ConfirmationStore {
	return &ConfirmationStore{DB: db}
}

// Submit records that the anchor string was written at the given ledger time.
func (s *ConfirmationStore) Submit(anchorString string, submittedAt uint64) error {
	_, err := s.db.Exec(`INSERT INTO confirmations (anchor_string, submitted_at) VALUES (?, ?)`,
		anchorString, submittedAt)
	if err != nil {
		return errors.Wrap(err, "submit anchor string")
	}

	s.logger.Debug("Submitted anchor string", log.WithAnchorString(anchorString), log.WithLedgerTime(submittedAt))

	return nil
}

// Confirm marks the anchor string as observed on the ledger. Anchor strings this node did not write
// are ignored.
func (s *ConfirmationStore) Confirm(anchorString string, confirmedAt uint64) error {
	_, err := s.db.Exec(`UPDATE confirmations SET confirmed_at = ? WHERE anchor_string = ?`,
		confirmedAt, anchorString)

	return errors.Wrap(err, "confirm anchor string")
}

// ResetAfter clears confirmations made after the given time, or all confirmations if nil.
func (s *ConfirmationStore) ResetAfter(confirmedAt *uint64) error {
	_, err := s.db.Exec(`UPDATE confirmations SET confirmed_at = NULL WHERE ? IS NULL OR confirmed_at > ?`,
		nullableNumber(confirmedAt), nullableNumber(confirmedAt))

	return errors.Wrap(err, "reset confirmations")
}

// GetLastSubmitted returns the most recently submitted anchor string or nil.
func (s *ConfirmationStore) GetLastSubmitted() (*store.Confirmation, error) {
	c := &store.Confirmation{}

	var confirmedAt sql.NullInt64

	err := s.db.QueryRow(`SELECT anchor_string, submitted_at, confirmed_at FROM confirmations
		ORDER BY id DESC LIMIT 1`).Scan(&c.AnchorString, &c.SubmittedAt, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "get last submitted anchor string")
	}

	if confirmedAt.Valid {
		v := uint64(confirmedAt.Int64)
		c.ConfirmedAt = &v
	}

	return c, nil
}
