package labentry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadRosterCSV reads students from CSV rows of admission number, name, class
// and section. A leading header row is skipped.
func ReadRosterCSV(r io.Reader) ([]Student, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var students []Student
	seen := map[string]bool{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return students, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && isRosterHeader(rec[0]) {
			continue
		}
		st := Student{
			AdmissionNo: strings.TrimSpace(rec[0]),
			Name:        strings.TrimSpace(rec[1]),
			Class:       strings.TrimSpace(rec[2]),
			Section:     strings.TrimSpace(rec[3]),
		}
		if st.AdmissionNo == "" {
			return nil, fmt.Errorf("roster line %d: empty admission number", line)
		}
		if seen[st.AdmissionNo] {
			return nil, fmt.Errorf("roster line %d: duplicate admission number %q", line, st.AdmissionNo)
		}
		seen[st.AdmissionNo] = true
		students = append(students, st)
	}
}

func isRosterHeader(cell string) bool {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", "")) {
	case "admissionno", "admission_no":
		return true
	}
	return false
}
