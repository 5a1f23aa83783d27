package labentry

import "time"

// Student is a roster record. The roster is owned outside this service.
type Student struct {
	AdmissionNo string `json:"admissionNo"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Section     string `json:"section"`
}

// Entry is one logged lab visit together with the student it references.
type Entry struct {
	ID        string    `json:"id"`
	EntryTime time.Time `json:"entryTime"`
	Student   Student   `json:"student"`
}
