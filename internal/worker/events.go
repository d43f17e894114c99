// internal/worker/events.go
package worker

import "time"

// Progress is a transient status update emitted while a worker runs.
// Events are ordered and delivered at most once; a slow consumer loses
// events rather than blocking the worker.
type Progress struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Post identifies one forum post owned by the authenticated account.
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Outcome is the single terminal result of a worker run.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Artifact is the path of a file or directory the run produced, if any.
	Artifact string `json:"artifact,omitempty"`
	Count    int    `json:"count,omitempty"`
	Posts    []Post `json:"posts,omitempty"`
}
