/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the engine using SQLite. In
  production the same patterns apply to PostgreSQL with minor SQL dialect
  differences.

INTERFACES IMPLEMENTED:
  generic.Store / TxStore:  Current results + submission log
  generic.HolidayCalendar:  Holiday lookups for due-date shifting
  kpi.Catalog:              KPI definitions
  kpi.StaffDirectory:       KPI owners

SINGLE-ROW UPSERT:
  The progress table is keyed by (kpi_id, period_type, period_key) and
  written with INSERT ... ON CONFLICT DO UPDATE. Two writers racing on the
  same key can never create a duplicate row; the last write wins.

APPEND-ONLY LOG:
  The submissions table is only ever INSERTed into. There is no UPDATE or
  DELETE statement for it, not even when a KPI is deleted.

KEY TABLES:
  progress:     Current result per key
  submissions:  Immutable log of every submission
  kpis:         KPI definitions
  staff:        KPI owners
  holidays:     Dates on which deadlines do not fall

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The connection pool is limited to
  one connection so ":memory:" databases are shared and transactions
  serialize.

USAGE:
  store, err := sqlite.New("./data/kpi.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  tracker := kpi.NewTracker(store, store, periods, logger)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
)

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Current results (one row per key)
	CREATE TABLE IF NOT EXISTS progress (
		kpi_id TEXT NOT NULL,
		period_type TEXT NOT NULL,
		period_key TEXT NOT NULL,
		delivered BOOLEAN NOT NULL DEFAULT FALSE,
		value TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (kpi_id, period_type, period_key)
	);

	-- Submission log (append-only)
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		kpi_id TEXT NOT NULL,
		period_type TEXT NOT NULL,
		period_key TEXT NOT NULL,
		delivered BOOLEAN NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		due_date TEXT,
		submitted_at TEXT NOT NULL,
		submitted_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_kpi_period
		ON submissions(kpi_id, period_type, period_key);
	CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at
		ON submissions(submitted_at DESC);

	-- KPI definitions
	CREATE TABLE IF NOT EXISTS kpis (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		unit_type TEXT NOT NULL,
		periodicity TEXT NOT NULL,
		target_weekly TEXT,
		target_monthly TEXT,
		owner_id TEXT NOT NULL DEFAULT '',
		tracks_daily BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kpis_owner
		ON kpis(owner_id);

	-- Staff (KPI owners)
	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROGRESS STORE (generic.Store interface)
// =============================================================================

// Get returns the current result for key.
func (s *Store) Get(ctx context.Context, key generic.ProgressKey) (generic.Progress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProgress(ctx, s.db, key)
}

// Upsert creates or overwrites the current result for key.
func (s *Store) Upsert(ctx context.Context, key generic.ProgressKey, p generic.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertProgress(ctx, s.db, key, p, s.now())
}

// Delete removes the current result for key.
func (s *Store) Delete(ctx context.Context, key generic.ProgressKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteProgress(ctx, s.db, key)
}

// ListByKPIAndType returns every current result of one KPI and period type.
func (s *Store) ListByKPIAndType(ctx context.Context, kpiID generic.KPIID, pt generic.PeriodType) ([]generic.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProgress(ctx, s.db, `
		SELECT kpi_id, period_type, period_key, delivered, value, comment, updated_at
		FROM progress
		WHERE kpi_id = ? AND period_type = ?
		ORDER BY period_key ASC
	`, kpiID, pt)
}

// All returns every current result keyed by "kpiId-periodType-periodKey".
func (s *Store) All(ctx context.Context) (map[string]generic.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := listProgress(ctx, s.db, `
		SELECT kpi_id, period_type, period_key, delivered, value, comment, updated_at
		FROM progress
	`)
	if err != nil {
		return nil, err
	}
	out := make(map[string]generic.Progress, len(records))
	for _, rec := range records {
		out[rec.Key.String()] = rec.Progress
	}
	return out, nil
}

// AppendEntry adds a submission to the log.
func (s *Store) AppendEntry(ctx context.Context, e generic.SubmissionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

// Entries returns log entries matching filter, newest first.
func (s *Store) Entries(ctx context.Context, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, filter)
}

func getProgress(ctx context.Context, q querier, key generic.ProgressKey) (generic.Progress, bool, error) {
	var p generic.Progress
	err := q.QueryRowContext(ctx, `
		SELECT delivered, value, comment FROM progress
		WHERE kpi_id = ? AND period_type = ? AND period_key = ?
	`, key.KPIID, key.PeriodType, key.PeriodKey).Scan(&p.Delivered, &p.Value, &p.Comment)

	if errors.Is(err, sql.ErrNoRows) {
		return generic.Progress{}, false, nil
	}
	if err != nil {
		return generic.Progress{}, false, fmt.Errorf("failed to get progress %s: %w", key, err)
	}
	return p, true, nil
}

func upsertProgress(ctx context.Context, q querier, key generic.ProgressKey, p generic.Progress, now time.Time) error {
	query := `
		INSERT INTO progress (kpi_id, period_type, period_key, delivered, value, comment, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kpi_id, period_type, period_key) DO UPDATE SET
			delivered = excluded.delivered,
			value = excluded.value,
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		key.KPIID, key.PeriodType, key.PeriodKey,
		p.Delivered, p.Value, p.Comment,
		now.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress %s: %w", key, err)
	}
	return nil
}

func deleteProgress(ctx context.Context, q querier, key generic.ProgressKey) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM progress WHERE kpi_id = ? AND period_type = ? AND period_key = ?",
		key.KPIID, key.PeriodType, key.PeriodKey,
	)
	if err != nil {
		return fmt.Errorf("failed to delete progress %s: %w", key, err)
	}
	return nil
}

func listProgress(ctx context.Context, q querier, query string, args ...any) ([]generic.ProgressRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []generic.ProgressRecord
	for rows.Next() {
		var (
			rec       generic.ProgressRecord
			updatedAt string
		)
		if err := rows.Scan(
			&rec.Key.KPIID, &rec.Key.PeriodType, &rec.Key.PeriodKey,
			&rec.Progress.Delivered, &rec.Progress.Value, &rec.Progress.Comment,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		rec.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func appendEntry(ctx context.Context, q querier, e generic.SubmissionEntry) error {
	query := `
		INSERT INTO submissions
		(id, kpi_id, period_type, period_key, delivered, value, comment,
		 start_date, end_date, due_date, submitted_at, submitted_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.KPIID, e.PeriodType, e.PeriodKey,
		e.Delivered, e.Value, e.Comment,
		nullDate(e.StartDate), nullDate(e.EndDate), nullDate(e.DueDate),
		e.SubmittedAt.UTC().Format(timestampLayout),
		e.SubmittedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append submission: %w", err)
	}
	return nil
}

func queryEntries(ctx context.Context, q querier, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.KPIID != "" {
		where = append(where, "kpi_id = ?")
		args = append(args, filter.KPIID)
	}
	if filter.PeriodType != "" {
		where = append(where, "period_type = ?")
		args = append(args, filter.PeriodType)
	}
	if filter.PeriodKey != "" {
		where = append(where, "period_key = ?")
		args = append(args, filter.PeriodKey)
	}

	query := `
		SELECT id, kpi_id, period_type, period_key, delivered, value, comment,
		       start_date, end_date, due_date, submitted_at, submitted_by
		FROM submissions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var entries []generic.SubmissionEntry
	for rows.Next() {
		var (
			e               generic.SubmissionEntry
			start, end, due sql.NullString
			submittedAt     string
		)
		if err := rows.Scan(
			&e.ID, &e.KPIID, &e.PeriodType, &e.PeriodKey,
			&e.Delivered, &e.Value, &e.Comment,
			&start, &end, &due, &submittedAt, &e.SubmittedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		e.StartDate = parseDate(start)
		e.EndDate = parseDate(end)
		e.DueDate = parseDate(due)
		e.SubmittedAt, _ = time.Parse(timestampLayout, submittedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, now: s.now}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open transaction. The parent lock is
// already held, so it never calls back into Store methods.
type txStore struct {
	tx  *sql.Tx
	now func() time.Time
}

func (ts *txStore) Get(ctx context.Context, key generic.ProgressKey) (generic.Progress, bool, error) {
	return getProgress(ctx, ts.tx, key)
}

func (ts *txStore) Upsert(ctx context.Context, key generic.ProgressKey, p generic.Progress) error {
	return upsertProgress(ctx, ts.tx, key, p, ts.now())
}

func (ts *txStore) Delete(ctx context.Context, key generic.ProgressKey) error {
	return deleteProgress(ctx, ts.tx, key)
}

func (ts *txStore) ListByKPIAndType(ctx context.Context, kpiID generic.KPIID, pt generic.PeriodType) ([]generic.ProgressRecord, error) {
	return listProgress(ctx, ts.tx, `
		SELECT kpi_id, period_type, period_key, delivered, value, comment, updated_at
		FROM progress
		WHERE kpi_id = ? AND period_type = ?
		ORDER BY period_key ASC
	`, kpiID, pt)
}

func (ts *txStore) AppendEntry(ctx context.Context, e generic.SubmissionEntry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) Entries(ctx context.Context, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	return queryEntries(ctx, ts.tx, filter)
}

// =============================================================================
// KPI CATALOG (kpi.Catalog interface)
// =============================================================================

// SaveKPI creates or replaces a KPI definition.
func (s *Store) SaveKPI(ctx context.Context, k kpi.KPI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO kpis (id, name, description, unit_type, periodicity,
		                  target_weekly, target_monthly, owner_id, tracks_daily,
		                  created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			unit_type = excluded.unit_type,
			periodicity = excluded.periodicity,
			target_weekly = excluded.target_weekly,
			target_monthly = excluded.target_monthly,
			owner_id = excluded.owner_id,
			tracks_daily = excluded.tracks_daily,
			updated_at = excluded.updated_at
	`

	now := s.now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx, query,
		k.ID, k.Name, k.Description, k.UnitType, k.Periodicity,
		nullDecimal(k.TargetWeekly), nullDecimal(k.TargetMonthly),
		k.OwnerID, k.TracksDaily, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save kpi %s: %w", k.ID, err)
	}
	return nil
}

// GetKPI retrieves a KPI by ID. Returns nil, nil when absent.
func (s *Store) GetKPI(ctx context.Context, id generic.KPIID) (*kpi.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectKPIs+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get kpi %s: %w", id, err)
	}
	kpis, err := scanKPIs(rows)
	if err != nil || len(kpis) == 0 {
		return nil, err
	}
	return &kpis[0], nil
}

// ListKPIs returns all KPIs ordered by name.
func (s *Store) ListKPIs(ctx context.Context) ([]kpi.KPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectKPIs+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list kpis: %w", err)
	}
	return scanKPIs(rows)
}

// DeleteKPI removes a KPI and its current results. The submission log
// is kept.
func (s *Store) DeleteKPI(ctx context.Context, id generic.KPIID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM progress WHERE kpi_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete progress of kpi %s: %w", id, err)
	}
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM kpis WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete kpi %s: %w", id, err)
	}
	return sqlTx.Commit()
}

const selectKPIs = `
	SELECT id, name, description, unit_type, periodicity,
	       target_weekly, target_monthly, owner_id, tracks_daily
	FROM kpis`

func scanKPIs(rows *sql.Rows) ([]kpi.KPI, error) {
	defer rows.Close()

	var kpis []kpi.KPI
	for rows.Next() {
		var (
			k               kpi.KPI
			weekly, monthly sql.NullString
		)
		if err := rows.Scan(
			&k.ID, &k.Name, &k.Description, &k.UnitType, &k.Periodicity,
			&weekly, &monthly, &k.OwnerID, &k.TracksDaily,
		); err != nil {
			return nil, fmt.Errorf("failed to scan kpi: %w", err)
		}
		k.TargetWeekly = parseDecimal(weekly)
		k.TargetMonthly = parseDecimal(monthly)
		kpis = append(kpis, k)
	}
	return kpis, rows.Err()
}

// =============================================================================
// STAFF DIRECTORY (kpi.StaffDirectory interface)
// =============================================================================

// SaveStaff creates or updates a staff member.
func (s *Store) SaveStaff(ctx context.Context, st kpi.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO staff (id, name, email, unit, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			unit = excluded.unit
	`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Name, st.Email, st.Unit,
		s.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save staff %s: %w", st.ID, err)
	}
	return nil
}

// GetStaff retrieves a staff member by ID. Returns nil, nil when absent.
func (s *Store) GetStaff(ctx context.Context, id string) (*kpi.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st kpi.Staff
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, unit FROM staff WHERE id = ?",
		id,
	).Scan(&st.ID, &st.Name, &st.Email, &st.Unit)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff %s: %w", id, err)
	}
	return &st, nil
}

// ListStaff returns all staff ordered by name.
func (s *Store) ListStaff(ctx context.Context) ([]kpi.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, unit FROM staff ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var staff []kpi.Staff
	for rows.Next() {
		var st kpi.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Unit); err != nil {
			return nil, err
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday to the database.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		s.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday %s: %w", h.Date, err)
	}
	return nil
}

// DeleteHoliday deletes a holiday by ID. Returns false when it did not exist.
func (s *Store) DeleteHoliday(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete holiday %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsHoliday checks if a date is a holiday. Lookup errors count as
// "not a holiday" so a broken calendar never blocks a deadline.
func (s *Store) IsHoliday(date generic.TimePoint) bool {
	holiday, err := s.LookupHoliday(date)
	return err == nil && holiday
}

// LookupHoliday is IsHoliday with the query error, so callers that cache
// answers can skip failed lookups.
func (s *Store) LookupHoliday(date generic.TimePoint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (recurring = FALSE AND date = ?)
		   OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
	`

	var count int
	err := s.db.QueryRow(query, date.String(), date.Time.Format("01-02")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("lookup holiday %s: %w", date, err)
	}
	return count > 0, nil
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, name, recurring FROM holidays ORDER BY date ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h       generic.Holiday
			dateStr string
		)
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, _ = generic.ParseDayKey(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"progress", "submissions", "kpis", "staff", "holidays"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullDate(tp generic.TimePoint) sql.NullString {
	if tp.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseDate(ns sql.NullString) generic.TimePoint {
	if !ns.Valid {
		return generic.TimePoint{}
	}
	tp, _ := generic.ParseDayKey(ns.String)
	return tp
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}
