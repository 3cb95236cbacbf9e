package models

// TaskStatus is the ingestion state reported by the video-understanding
// provider for one upload task.
type TaskStatus string

const (
	TaskStatusValidating TaskStatus = "validating"
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusIndexing   TaskStatus = "indexing"
	TaskStatusReady      TaskStatus = "ready"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the provider will not change this status anymore.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusReady || s == TaskStatusFailed
}

// RemoteIndex is an opaque handle to a provider-side video index. Handles are
// re-resolved on every invocation; nothing is cached across requests.
type RemoteIndex struct {
	ID   string
	Name string
}

// RemoteTask is an opaque handle to a provider-side ingestion task.
type RemoteTask struct {
	ID      string
	VideoID string
	Status  TaskStatus
}

// RemoteSession is an opaque handle to a provider-side browser session.
type RemoteSession struct {
	ID         string
	WSEndpoint string
	LiveURL    string
}
