package repositories

import (
	"context"

	"recipebox/app/config"
	"recipebox/app/models"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens the Badger database described by cfg.
func OpenBadger(cfg config.Badger) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	return badger.Open(opts)
}

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create stores post under a fresh ULID key.
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return storeError("create post", err)
	}

	id := NewPostID()
	stored := *post
	stored.ID = id

	data, err := marshalEntity(&stored)
	if err != nil {
		return storeError("create post", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(id), data)
	})
	if err != nil {
		return storeError("create post", err)
	}

	post.ID = id
	return nil
}

// List scans every post key.
func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(PostKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return err
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("list posts", err)
	}
	return posts, nil
}
