package labentry

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	students map[string]Student
	entries  []memEntry
}

type memEntry struct {
	id          string
	at          time.Time
	admissionNo string
}

// NewMemoryStore creates a store whose roster holds students.
func NewMemoryStore(students ...Student) *MemoryStore {
	m := &MemoryStore{students: make(map[string]Student, len(students))}
	for _, st := range students {
		m.students[st.AdmissionNo] = st
	}
	return m
}

// InsertEntry appends an entry; it returns ErrStudentNotFound for unknown students.
func (m *MemoryStore) InsertEntry(_ context.Context, id, admissionNo string, at time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[admissionNo]
	if !ok {
		return Entry{}, ErrStudentNotFound
	}
	m.entries = append(m.entries, memEntry{id: id, at: at, admissionNo: admissionNo})
	return Entry{ID: id, EntryTime: at, Student: st}, nil
}

// ListEntries returns entries matching f ordered like the Postgres repository.
func (m *MemoryStore) ListEntries(_ context.Context, f Filter) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := []Entry{}
	for _, me := range m.entries {
		e := Entry{ID: me.id, EntryTime: me.at, Student: m.students[me.admissionNo]}
		if f.Matches(e) {
			res = append(res, e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].EntryTime.Equal(res[j].EntryTime) {
			return res[i].EntryTime.After(res[j].EntryTime)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

// CountEntries returns how many entries reference admissionNo.
func (m *MemoryStore) CountEntries(_ context.Context, admissionNo string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, me := range m.entries {
		if me.admissionNo == admissionNo {
			n++
		}
	}
	return n, nil
}
