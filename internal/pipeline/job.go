package pipeline

import "github.com/google/uuid"

// SourceFile is the original binary content and its declared name.
type SourceFile struct {
	Name string
	Data []byte
}

// IngestionJob is the ephemeral state of one upload-to-record lifecycle. The
// id is generated at creation and never reused; it joins the archived blob
// and the contract record. StorageKey is set only after archival commits and
// ExtractedText only after recognition commits. Jobs are dropped on both
// success and failure; nothing retains them.
type IngestionJob struct {
	ID            uuid.UUID
	Source        SourceFile
	StorageKey    string
	ExtractedText string
}

func newJob(name string, data []byte) *IngestionJob {
	return &IngestionJob{
		ID:     uuid.New(),
		Source: SourceFile{Name: name, Data: data},
	}
}

// archiveKey derives the blob-store address: {id}/{originalName}.
func (j *IngestionJob) archiveKey() string {
	return j.ID.String() + "/" + j.Source.Name
}
