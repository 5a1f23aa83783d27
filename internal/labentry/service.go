package labentry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"labentry/internal/metrics"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	InsertEntry(ctx context.Context, id, admissionNo string, at time.Time) (Entry, error)
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)
}

// Service validates kiosk input and logs or queries lab entries.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

// NewService creates a service backed by store. loc is the zone in which
// calendar-day filters are interpreted; nil means the process local zone.
func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateEntry logs one lab entry for admissionNo at the current server time.
// Repeated calls for the same student log repeated entries.
func (s *Service) CreateEntry(ctx context.Context, admissionNo string) (Entry, error) {
	admissionNo = strings.TrimSpace(admissionNo)
	if admissionNo == "" {
		metrics.EntryCreateFailures.WithLabelValues("validation").Inc()
		return Entry{}, &ValidationError{Field: "admissionNo", Message: "Admission number is required"}
	}

	at := ceilMicro(s.now().UTC())
	entry, err := s.store.InsertEntry(ctx, s.newID(), admissionNo, at)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			metrics.EntryCreateFailures.WithLabelValues("not_found").Inc()
			return Entry{}, ErrStudentNotFound
		}
		metrics.EntryCreateFailures.WithLabelValues("storage").Inc()
		return Entry{}, &StorageError{Op: "insert entry", Err: err}
	}
	metrics.EntriesCreated.Inc()
	return entry, nil
}

// ListEntries returns the entries matching q, newest first.
func (s *Service) ListEntries(ctx context.Context, q Query) ([]Entry, error) {
	f, err := q.Resolve(s.loc)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, f)
	if err != nil {
		return nil, &StorageError{Op: "list entries", Err: err}
	}
	metrics.EntriesListed.Observe(float64(len(entries)))
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// ceilMicro rounds t up to the microsecond precision of timestamptz, so the
// stored time equals the returned one and is never before the call began.
func ceilMicro(t time.Time) time.Time {
	c := t.Truncate(time.Microsecond)
	if c.Before(t) {
		c = c.Add(time.Microsecond)
	}
	return c
}
