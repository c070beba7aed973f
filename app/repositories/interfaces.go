package repositories

import (
	"context"

	"recipebox/app/models"
)

// PostRepository defines the interface for post data access.
//
// List returns every stored post in the store's natural scan order; an empty
// store yields an empty slice. Create assigns a fresh ID to post and persists
// it. Both wrap store failures in ErrStoreUnavailable.
type PostRepository interface {
	List(ctx context.Context) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
}
