package constants

// Status is the canonical state of the ingestion pipeline. IDLE is both the
// initial state and the error-recovery state; every other state belongs to
// exactly one stage of an in-flight job.
type Status string

// Stable values (these exact strings are surfaced on the status endpoint).
const (
	StatusIdle        Status = "IDLE"        // no job in flight; submit allowed
	StatusUploading   Status = "UPLOADING"   // archiving original bytes to the blob store
	StatusRasterizing Status = "RASTERIZING" // rendering page 1 to a bitmap
	StatusRecognizing Status = "RECOGNIZING" // running OCR on the bitmap
	StatusPersisting  Status = "PERSISTING"  // inserting the contract record
)

var statusLabels = map[Status]string{
	StatusIdle:        "Upload PDF",
	StatusUploading:   "Uploading...",
	StatusRasterizing: "Rendering...",
	StatusRecognizing: "Recognizing...",
	StatusPersisting:  "Saving...",
}

// Label returns the progress label shown on the submit control for s.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// InFlight reports whether a job currently owns the pipeline.
func (s Status) InFlight() bool {
	return s != StatusIdle
}
