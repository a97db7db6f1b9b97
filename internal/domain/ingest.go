package domain

import "time"

// FileState is the position of a file in the ingestion lifecycle.
type FileState string

const (
	StateDetected      FileState = "detected"
	StateParsing       FileState = "parsing"
	StateParseFailed   FileState = "parse_failed"
	StateInserting     FileState = "inserting_batch"
	StateCommitFailed  FileState = "commit_failed"
	StateArchiving     FileState = "archiving"
	StateArchiveFailed FileState = "archive_failed"
	StateDone          FileState = "done"
)

// Terminal reports whether no further transition can happen.
func (s FileState) Terminal() bool {
	switch s {
	case StateParseFailed, StateCommitFailed, StateArchiveFailed, StateDone:
		return true
	}
	return false
}

// RecordFailure is a record skipped by the batch loop.
type RecordFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// IngestOutcome summarizes the processing of one file.
type IngestOutcome struct {
	RunID        string          `json:"run_id"`
	File         string          `json:"file"`
	State        FileState       `json:"state"`
	Total        int             `json:"total_records"`
	Inserted     int             `json:"inserted_count"`
	Failures     []RecordFailure `json:"failed_records"`
	ArchivedPath string          `json:"archived_path,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Err          error           `json:"-"`
	DetectedAt   time.Time       `json:"detected_at"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration"`
}

// FailedIndices returns the batch positions of skipped records.
func (o *IngestOutcome) FailedIndices() []int {
	indices := make([]int, 0, len(o.Failures))
	for _, f := range o.Failures {
		indices = append(indices, f.Index)
	}
	return indices
}

// Succeeded is true when the file was committed and archived.
func (o *IngestOutcome) Succeeded() bool {
	return o.State == StateDone
}

// ArchiveFailed is true when data was committed but the file could not be moved.
func (o *IngestOutcome) ArchiveFailed() bool {
	return o.State == StateArchiveFailed
}

// Fail moves the outcome into a terminal failure state.
func (o *IngestOutcome) Fail(state FileState, err error) {
	o.State = state
	o.Err = err
	if err != nil {
		o.Reason = err.Error()
	}
}
