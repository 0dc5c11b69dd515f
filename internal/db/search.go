package db

// KNNQuery is the input for vector similarity search. Filter is an opaque
// predicate string forwarded to the backend unparsed; the indexed metric of
// VectorField decides distance semantics.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	Filter       string
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single record hit. Distance is the raw metric value from
// the store; score normalization is a service-layer concern.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
