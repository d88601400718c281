package index

// DraftIndex defines the interface for draft indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DraftIndex interface {
	UpsertSource(s SourceRow) error
	ReplaceDrafts(sourceID string, drafts []DraftRow) error
	DeleteSource(id string) error
	DeleteDraft(sourceID, title string) error
	ListSources() ([]SourceRow, error)
	GetSource(id string) (*SourceRow, error)
	DraftsBySource(id string) ([]DraftRow, error)
	AllSourceIDs() (map[string]struct{}, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies DraftIndex at compile time.
var _ DraftIndex = (*DB)(nil)
