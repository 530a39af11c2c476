package models

// BatchResult reports partial success of a batch run. A per-asset failure
// lands in Errors and never aborts sibling assets.
type BatchResult struct {
	Processed int
	Created   int
	Errors    []string
}

// AddError records a per-asset failure.
func (r *BatchResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
