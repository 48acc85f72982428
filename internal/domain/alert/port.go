package alert

import "context"

// Store is the durable append-only log. Append assigns the next id and the
// creation timestamp; id assignment must be mutually exclusive across
// concurrent appends. List returns every record newest first. ListBefore is
// the paging hook for logs too large to return in one slice.
type Store interface {
	Append(ctx context.Context, c Candidate) (*Alert, error)
	List(ctx context.Context) ([]*Alert, error)
	ListBefore(ctx context.Context, beforeID int64, limit int) ([]*Alert, error)
}
