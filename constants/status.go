package constants

// JobStatus is the outcome recorded for an inbox receipt.
type JobStatus string

// Stable values written to proposal sidecar files.
const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusOCROK      JobStatus = "OCR_OK"     // text extracted
	JobStatusNormalized JobStatus = "NORMALIZED" // proposals built
	JobStatusEmpty      JobStatus = "EMPTY"      // OCR found no lines
	JobStatusFailed     JobStatus = "FAILED"
)
