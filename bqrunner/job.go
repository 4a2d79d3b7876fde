package bqrunner

// Job identifies one asynchronous query execution.
type Job struct {
	ProjectID string
	ID        string
	Location  string
	Complete  bool
}
