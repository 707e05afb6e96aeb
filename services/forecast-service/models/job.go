package models

import (
	"encoding/json"
	"time"

	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
)

// JobStatus is the lifecycle of an async forecast job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Job is an uploaded batch waiting for, or finished with, the worker.
type Job struct {
	ID        string           `json:"job_id"`
	Status    JobStatus        `json:"status"`
	FileName  string           `json:"file_name,omitempty"`
	FilePath  string           `json:"file_path,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Result    json.RawMessage  `json:"result,omitempty"`
	Error     *apperrors.Error `json:"error,omitempty"`
}

// Public returns a copy without server-side fields.
func (j *Job) Public() *Job {
	cp := *j
	cp.FilePath = ""
	return &cp
}
