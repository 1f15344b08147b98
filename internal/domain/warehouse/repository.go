package warehouse

import "context"

// CollectionBinding ties one in-memory collection to durable storage.
// Value returns the rehydrated collection, Save writes a whole collection
// back, Refresh rereads what the slot holds now, and OnChange registers the
// consumer of changes written by other execution contexts.
type CollectionBinding[T any] interface {
	Value() []T
	Save(ctx context.Context, items []T)
	Refresh(ctx context.Context) []T
	OnChange(fn func(items []T))
}
