package pipeline

import "context"

// MetadataProvider abstracts the per-app Steam lookups the pipeline needs
// on a cache miss. PlayerCount and OwnersEstimate are best-effort; their
// errors never fail an item.
type MetadataProvider interface {
	CoopMetadata(ctx context.Context, appID string) (bool, []string, error)
	ReviewSummary(ctx context.Context, appID string) (summary string, percent *int, count *int, err error)
	PlayerCount(ctx context.Context, appID string) (*int, error)
	OwnersEstimate(ctx context.Context, appID string) (string, error)
}
