package store

import (
	"context"
	"database/sql"
)

// Schema creates the roster and entry tables when missing. The roster is
// populated outside this service; only the table shape is owned here.
const Schema = `
CREATE TABLE IF NOT EXISTS students (
	admission_no TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	class        TEXT NOT NULL,
	section      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lab_entries (
	id                   TEXT PRIMARY KEY,
	entry_time           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	student_admission_no TEXT NOT NULL REFERENCES students(admission_no)
);

CREATE INDEX IF NOT EXISTS idx_lab_entries_time    ON lab_entries(entry_time);
CREATE INDEX IF NOT EXISTS idx_lab_entries_student ON lab_entries(student_admission_no);
CREATE INDEX IF NOT EXISTS idx_students_class_section ON students(class, section);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
