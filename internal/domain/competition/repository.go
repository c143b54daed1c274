package competition

import "context"

// Catalog lists every competition the provider knows about.
type Catalog interface {
	FetchCompetitions(ctx context.Context, language string) ([]Competition, error)
}
