/*
store.go - Progress persistence interface

PURPOSE:
  Defines the interface between the engine and the database. The engine
  treats storage as a key/value map of current results plus an
  append-only submission log. It holds no state of its own.

KEY INTERFACES:
  Store:    Current results (get, upsert, list, delete) + submission log
  TxStore:  Runs a submission (write + log + rollup) atomically

UPSERT CONTRACT:
  Upsert writes the single current result for a key. Writing the same key
  again overwrites Delivered/Value/Comment; it never creates a duplicate.
  Implementations should make the upsert a single-row operation
  (INSERT ... ON CONFLICT) so concurrent writers cannot duplicate a key.

APPEND-ONLY LOG:
  AppendEntry is the only write to the submission log. There is no update
  or delete for entries. Entries are for audit and display; the engine
  never reads them back to rebuild current results.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - types.go: ProgressKey, Progress, SubmissionEntry
  - kpi/tracker.go: The write path using Store
*/
package generic

import "context"

// =============================================================================
// STORE - Current results and submission log
// =============================================================================

type Store interface {
	// Get returns the current result for key. ok is false if absent.
	Get(ctx context.Context, key ProgressKey) (Progress, bool, error)

	// Upsert creates or overwrites the current result for key.
	Upsert(ctx context.Context, key ProgressKey, p Progress) error

	// Delete removes the current result for key. Missing keys are not an error.
	Delete(ctx context.Context, key ProgressKey) error

	// ListByKPIAndType returns every current result of one KPI and period type.
	ListByKPIAndType(ctx context.Context, kpiID KPIID, pt PeriodType) ([]ProgressRecord, error)

	// AppendEntry adds an immutable submission log entry.
	AppendEntry(ctx context.Context, e SubmissionEntry) error

	// Entries returns log entries matching filter, newest first.
	Entries(ctx context.Context, filter EntryFilter) ([]SubmissionEntry, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic submissions
// =============================================================================

// TxStore wraps Store with transaction support.
// Use this when several writes must land together (result + log + rollup).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// RunInTx runs fn in a transaction when the store supports one,
// otherwise directly against the store.
func RunInTx(ctx context.Context, s Store, fn func(Store) error) error {
	if tx, ok := s.(TxStore); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(s)
}
