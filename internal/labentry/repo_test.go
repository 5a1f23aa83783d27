package labentry

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1).Add(-time.Millisecond)

	tests := []struct {
		name      string
		filter    Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:     "unfiltered",
			filter:   Filter{},
			wantArgs: []any{},
		},
		{
			name:      "class only",
			filter:    Filter{Class: "10"},
			wantWhere: "WHERE s.class = $1",
			wantArgs:  []any{"10"},
		},
		{
			name:      "section only",
			filter:    Filter{Section: "A"},
			wantWhere: "WHERE s.section = $1",
			wantArgs:  []any{"A"},
		},
		{
			name:      "all filters",
			filter:    Filter{Class: "10", Section: "A", From: &from, To: &to},
			wantWhere: "WHERE s.class = $1 AND s.section = $2 AND e.entry_time >= $3 AND e.entry_time <= $4",
			wantArgs:  []any{"10", "A", from, to},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter)
			if tt.wantWhere == "" {
				assert.NotContains(t, query, "WHERE")
			} else {
				assert.Contains(t, query, tt.wantWhere)
			}
			assert.True(t, strings.HasSuffix(query, "ORDER BY e.entry_time DESC, e.id DESC"))
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestClassifyInsertError(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no roster row", sql.ErrNoRows, ErrStudentNotFound},
		{"fk violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), ErrStudentNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, nil},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyInsertError(tt.err)
			if tt.want == nil {
				assert.NotErrorIs(t, got, ErrStudentNotFound)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
