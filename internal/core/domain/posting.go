package domain

// DuplicatePolicy decides what happens when an entry already exists for an event's natural key.
type DuplicatePolicy string

const (
	// DuplicateSkip returns the existing entry untouched.
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateSupersede deletes the existing entries and posts a fresh one.
	DuplicateSupersede DuplicatePolicy = "supersede"
)

// PostOptions tunes a single posting.
type PostOptions struct {
	OnDuplicate DuplicatePolicy
	Actor       string
}

// PostResult is the outcome of posting one event.
type PostResult struct {
	Entry   JournalEntry       `json:"entry"`
	Lines   []JournalEntryLine `json:"lines"`
	Skipped bool               `json:"skipped"`
}

// BatchFailure describes an event a batch could not post.
type BatchFailure struct {
	Index     int       `json:"index"`
	EventType EventType `json:"eventType"`
	SourceID  string    `json:"sourceID"`
	Error     string    `json:"error"`
	Err       error     `json:"-"`
}

// BatchResult summarizes a best-effort posting batch.
type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Results   []PostResult   `json:"results"`
	Failures  []BatchFailure `json:"failures"`
}
