// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/kpi-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	progress map[generic.ProgressKey]generic.ProgressRecord
	entries  []generic.SubmissionEntry
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		progress: make(map[generic.ProgressKey]generic.ProgressRecord),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key generic.ProgressKey) (generic.Progress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.progress[key]
	return rec.Progress, ok, nil
}

func (m *Memory) Upsert(_ context.Context, key generic.ProgressKey, p generic.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertLocked(key, p)
	return nil
}

func (m *Memory) upsertLocked(key generic.ProgressKey, p generic.Progress) {
	m.progress[key] = generic.ProgressRecord{Key: key, Progress: p, UpdatedAt: m.now()}
}

func (m *Memory) Delete(_ context.Context, key generic.ProgressKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress, key)
	return nil
}

func (m *Memory) ListByKPIAndType(_ context.Context, kpiID generic.KPIID, pt generic.PeriodType) ([]generic.ProgressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(kpiID, pt), nil
}

func (m *Memory) listLocked(kpiID generic.KPIID, pt generic.PeriodType) []generic.ProgressRecord {
	var result []generic.ProgressRecord
	for k, rec := range m.progress {
		if k.KPIID == kpiID && k.PeriodType == pt {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.PeriodKey < result[j].Key.PeriodKey
	})
	return result
}

// All returns every current result, keyed by ProgressKey.String().
func (m *Memory) All(_ context.Context) (map[string]generic.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]generic.Progress, len(m.progress))
	for k, rec := range m.progress {
		out[k.String()] = rec.Progress
	}
	return out, nil
}

// AppendEntry adds a log entry. Append-only.
func (m *Memory) AppendEntry(_ context.Context, e generic.SubmissionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Entries(_ context.Context, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entriesLocked(filter), nil
}

func (m *Memory) entriesLocked(filter generic.EntryFilter) []generic.SubmissionEntry {
	var result []generic.SubmissionEntry
	// Newest first: walk the log backwards.
	for i := len(m.entries) - 1; i >= 0; i-- {
		if !filter.Matches(m.entries[i]) {
			continue
		}
		result = append(result, m.entries[i])
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(generic.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	progress map[generic.ProgressKey]generic.ProgressRecord
	entries  int
}

func (m *Memory) snapshot() memorySnapshot {
	progressCopy := make(map[generic.ProgressKey]generic.ProgressRecord, len(m.progress))
	for k, v := range m.progress {
		progressCopy[k] = v
	}
	return memorySnapshot{progress: progressCopy, entries: len(m.entries)}
}

func (m *Memory) restore(s memorySnapshot) {
	m.progress = s.progress
	m.entries = m.entries[:s.entries]
}

// txMemoryView runs against the parent while its lock is held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Get(_ context.Context, key generic.ProgressKey) (generic.Progress, bool, error) {
	rec, ok := tv.parent.progress[key]
	return rec.Progress, ok, nil
}

func (tv *txMemoryView) Upsert(_ context.Context, key generic.ProgressKey, p generic.Progress) error {
	tv.parent.upsertLocked(key, p)
	return nil
}

func (tv *txMemoryView) Delete(_ context.Context, key generic.ProgressKey) error {
	delete(tv.parent.progress, key)
	return nil
}

func (tv *txMemoryView) ListByKPIAndType(_ context.Context, kpiID generic.KPIID, pt generic.PeriodType) ([]generic.ProgressRecord, error) {
	return tv.parent.listLocked(kpiID, pt), nil
}

func (tv *txMemoryView) AppendEntry(_ context.Context, e generic.SubmissionEntry) error {
	tv.parent.entries = append(tv.parent.entries, e)
	return nil
}

func (tv *txMemoryView) Entries(_ context.Context, filter generic.EntryFilter) ([]generic.SubmissionEntry, error) {
	return tv.parent.entriesLocked(filter), nil
}
