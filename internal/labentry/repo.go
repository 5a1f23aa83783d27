package labentry

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the Postgres SQLSTATE for a failed REFERENCES check.
const foreignKeyViolation = "23503"

// Repository persists lab entries in Postgres and reads the roster.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// insertEntrySQL resolves the student and appends the entry in one statement,
// so the roster lookup and the insert see the same snapshot.
const insertEntrySQL = `
	WITH student AS (
		SELECT admission_no, name, class, section
		FROM students
		WHERE admission_no = $2
	), inserted AS (
		INSERT INTO lab_entries (id, entry_time, student_admission_no)
		SELECT $1, $3, admission_no FROM student
		RETURNING id, entry_time
	)
	SELECT inserted.id, inserted.entry_time, student.admission_no, student.name, student.class, student.section
	FROM inserted CROSS JOIN student
`

// InsertEntry appends an entry for admissionNo. It returns ErrStudentNotFound
// when the roster has no such student.
func (r *Repository) InsertEntry(ctx context.Context, id, admissionNo string, at time.Time) (Entry, error) {
	row := r.db.QueryRowContext(ctx, insertEntrySQL, id, admissionNo, at)
	var e Entry
	if err := row.Scan(&e.ID, &e.EntryTime, &e.Student.AdmissionNo, &e.Student.Name, &e.Student.Class, &e.Student.Section); err != nil {
		return Entry{}, classifyInsertError(err)
	}
	return e, nil
}

// classifyInsertError maps "no roster row" and a lost FK race to ErrStudentNotFound.
func classifyInsertError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStudentNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrStudentNotFound
	}
	return err
}

// ListEntries returns entries matching f, newest first.
func (r *Repository) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	query, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EntryTime, &e.Student.AdmissionNo, &e.Student.Name, &e.Student.Class, &e.Student.Section); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// CountEntries returns how many entries reference admissionNo.
func (r *Repository) CountEntries(ctx context.Context, admissionNo string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lab_entries WHERE student_admission_no = $1`, admissionNo).Scan(&n)
	return n, err
}

func buildListQuery(f Filter) (string, []any) {
	query := `SELECT e.id, e.entry_time, s.admission_no, s.name, s.class, s.section
		FROM lab_entries e
		JOIN students s ON s.admission_no = e.student_admission_no`
	args := []any{}
	clauses := []string{}
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, clause+" $"+strconv.Itoa(len(args)))
	}
	if f.Class != "" {
		add("s.class =", f.Class)
	}
	if f.Section != "" {
		add("s.section =", f.Section)
	}
	if f.From != nil {
		add("e.entry_time >=", *f.From)
	}
	if f.To != nil {
		add("e.entry_time <=", *f.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY e.entry_time DESC, e.id DESC"
	return query, args
}
