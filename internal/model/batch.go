package model

// BatchJob is an ordered list of classification requests with a progress
// cursor. The cursor is the index of the next unprocessed request; Results
// always holds exactly Cursor entries, in request order.
type BatchJob struct {
	ID       string
	Requests []ClassificationRequest
	Results  []ClassificationResult
	Cursor   int
}

// Remaining returns the number of unprocessed requests.
func (j *BatchJob) Remaining() int {
	return len(j.Requests) - j.Cursor
}

// Done reports whether every request has been processed.
func (j *BatchJob) Done() bool {
	return j.Cursor >= len(j.Requests)
}
