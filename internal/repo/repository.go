package repo

import (
	"context"

	"github.com/hamed0406/routerwatch/internal/domain"
)

// OutageStore keeps the history of resolved outages.
type OutageStore interface {
	// Append stores o, assigning an ID when o.ID is empty.
	Append(ctx context.Context, o *domain.Outage) error
	// List returns up to limit outages, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]domain.Outage, error)
}
