package kpi

import (
	"context"
	"sort"
	"sync"
)

// Staff is a person who can own KPIs. Credentials live elsewhere.
type Staff struct {
	ID    string
	Name  string
	Email string
	Unit  string
}

// StaffDirectory resolves KPI owners.
type StaffDirectory interface {
	// GetStaff returns nil, nil when the person does not exist.
	GetStaff(ctx context.Context, id string) (*Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	SaveStaff(ctx context.Context, s Staff) error
}

// MemoryStaff is an in-memory StaffDirectory.
type MemoryStaff struct {
	mu    sync.RWMutex
	staff map[string]Staff
}

func NewMemoryStaff(staff ...Staff) *MemoryStaff {
	d := &MemoryStaff{staff: make(map[string]Staff)}
	for _, s := range staff {
		d.staff[s.ID] = s
	}
	return d
}

func (d *MemoryStaff) GetStaff(_ context.Context, id string) (*Staff, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.staff[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (d *MemoryStaff) ListStaff(_ context.Context) ([]Staff, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Staff, 0, len(d.staff))
	for _, s := range d.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *MemoryStaff) SaveStaff(_ context.Context, s Staff) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.staff[s.ID] = s
	return nil
}
