package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labentry/internal/labentry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticCheck bool

func (s staticCheck) Healthy(context.Context) bool { return bool(s) }

type brokenStore struct{}

func (brokenStore) InsertEntry(context.Context, string, string, time.Time) (labentry.Entry, error) {
	return labentry.Entry{}, errors.New("disk full")
}

func (brokenStore) ListEntries(context.Context, labentry.Filter) ([]labentry.Entry, error) {
	return nil, errors.New("disk full")
}

type entryJSON struct {
	ID        string    `json:"id"`
	EntryTime time.Time `json:"entryTime"`
	Student   struct {
		AdmissionNo string `json:"admissionNo"`
		Name        string `json:"name"`
		Class       string `json:"class"`
		Section     string `json:"section"`
	} `json:"student"`
}

func newRouter(store labentry.Store, checks map[string]HealthChecker) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(labentry.NewService(store, time.UTC), checks, logger)
	r := gin.New()
	h.Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func decodeEntries(t *testing.T, w *httptest.ResponseRecorder) []entryJSON {
	t.Helper()
	var entries []entryJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	return entries
}

func TestKioskScenario(t *testing.T) {
	ctx := context.Background()
	store := labentry.NewMemoryStore(labentry.Student{AdmissionNo: "A001", Name: "Asha Rao", Class: "10", Section: "A"})
	r := newRouter(store, nil)

	w := do(t, r, http.MethodPost, "/api/entry", []byte(`{"admissionNo":"A001"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created entryJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "A001", created.Student.AdmissionNo)
	assert.Equal(t, "Asha Rao", created.Student.Name)
	assert.Equal(t, "10", created.Student.Class)
	assert.Equal(t, "A", created.Student.Section)

	count, err := store.CountEntries(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w = do(t, r, http.MethodGet, "/api/entries?class=10&section=A", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeEntries(t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ID)

	w = do(t, r, http.MethodGet, "/api/entries?class=11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/entry", []byte(`{"admissionNo":"X999"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Student not found", decodeError(t, w))
	count, err = store.CountEntries(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w = do(t, r, http.MethodPost, "/api/entry", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Admission number is required", decodeError(t, w))
}

func TestCreateEntryBadBodies(t *testing.T) {
	r := newRouter(labentry.NewMemoryStore(), nil)

	for name, body := range map[string][]byte{
		"empty body":   {},
		"not json":     []byte(`admissionNo=A001`),
		"wrong type":   []byte(`{"admissionNo":42}`),
		"blank string": []byte(`{"admissionNo":"  "}`),
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/entry", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Admission number is required", decodeError(t, w))
		})
	}
}

func TestListEntriesRoundTripByDay(t *testing.T) {
	store := labentry.NewMemoryStore(labentry.Student{AdmissionNo: "A001", Name: "Asha Rao", Class: "10", Section: "A"})
	r := newRouter(store, nil)

	w := do(t, r, http.MethodPost, "/api/entry", []byte(`{"admissionNo":"A001"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created entryJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	today := created.EntryTime.UTC().Format(labentry.DateLayout)
	w = do(t, r, http.MethodGet, "/api/entries?date="+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeEntries(t, w), 1)

	w = do(t, r, http.MethodGet, "/api/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeEntries(t, w), 1)

	w = do(t, r, http.MethodGet, "/api/entries?date=1999-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeEntries(t, w))
}

func TestListEntriesInvalidDate(t *testing.T) {
	r := newRouter(labentry.NewMemoryStore(), nil)

	w := do(t, r, http.MethodGet, "/api/entries?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date", decodeError(t, w))
}

func TestStorageFailureIsGeneric(t *testing.T) {
	r := newRouter(brokenStore{}, nil)

	w := do(t, r, http.MethodGet, "/api/entries", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, w))

	w = do(t, r, http.MethodPost, "/api/entry", []byte(`{"admissionNo":"A001"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, w))
}

func TestHealthz(t *testing.T) {
	r := newRouter(labentry.NewMemoryStore(), map[string]HealthChecker{"db": staticCheck(true), "redis": staticCheck(true)})
	w := do(t, r, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","db":true,"redis":true}`, w.Body.String())

	r = newRouter(labentry.NewMemoryStore(), map[string]HealthChecker{"db": staticCheck(true), "redis": staticCheck(false)})
	w = do(t, r, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","db":true,"redis":false}`, w.Body.String())
}
