package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/app/config"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

// ErrStoreUnavailable marks every failure to reach, read from or write to the
// document store.
var ErrStoreUnavailable = errors.New("document store unavailable")

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Store is an open document store connection and the post repository backed by it.
type Store struct {
	Driver string
	Posts  PostRepository

	closers []func() error
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	var result *multierror.Error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.closers = nil
	return result.ErrorOrNil()
}

// Open connects to the store selected by cfg.Driver. It is meant to be called
// once at startup; the returned Store is shared by all requests.
func Open(ctx context.Context, cfg config.Store) (*Store, error) {
	store := &Store{Driver: cfg.Driver}

	switch cfg.Driver {
	case config.DriverBadger:
		db, err := OpenBadger(cfg.Badger)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		store.Posts = NewBadgerPostRepository(db)
		store.closers = append(store.closers, db.Close)

	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store.Posts = NewMongoPostRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		store.closers = append(store.closers, func() error {
			return client.Disconnect(context.Background())
		})

	case config.DriverFirestore:
		client, err := NewFirestoreClient(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		repo, err := NewFirestorePostRepository(client, cfg.Firestore.Collection)
		if err != nil {
			client.Close()
			return nil, err
		}
		store.Posts = repo
		store.closers = append(store.closers, client.Close)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	log.Info().Str("driver", cfg.Driver).Msg("document store ready")
	return store, nil
}
