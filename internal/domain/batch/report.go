// Package batch holds per-category ingestion outcomes. A failing category is
// recorded and the run continues; the report replaces exception interception.
package batch

// Status is the processing outcome of one category.
type Status string

// Category status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of ingesting one category.
type Result struct {
	category string
	inserted int
	status   Status
	err      error
}

// NewOK creates a successful category result.
func NewOK(category string, inserted int) Result {
	return Result{category: category, inserted: inserted, status: StatusOK}
}

// NewError creates a failed category result.
func NewError(category string, err error) Result {
	return Result{category: category, status: StatusError, err: err}
}

// Category returns the category name.
func (r Result) Category() string { return r.category }

// Inserted returns the number of records persisted for this category.
func (r Result) Inserted() int { return r.inserted }

// Status returns the processing outcome.
func (r Result) Status() Status { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Report aggregates category results for one ingestion run.
type Report struct {
	results []Result
}

// Add appends a category result.
func (r *Report) Add(res Result) { r.results = append(r.results, res) }

// Results returns all category results in run order.
func (r *Report) Results() []Result { return r.results }

// TotalInserted returns the number of records persisted across all categories.
func (r *Report) TotalInserted() int {
	n := 0
	for _, res := range r.results {
		n += res.inserted
	}
	return n
}

// Failed returns the categories that did not complete.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.results {
		if res.status == StatusError {
			out = append(out, res)
		}
	}
	return out
}
