package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipebox/app/config"
	"recipebox/app/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var errMissingFirestoreClient = errors.New("firestore client is missing")

// firestorePostDocument is the shape of a post in Firestore. The document ID
// is the post ID and is not repeated in the body.
type firestorePostDocument struct {
	Title     string    `firestore:"title"`
	Content   string    `firestore:"content"`
	Author    string    `firestore:"author"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// NewFirestoreClient creates a client for cfg.ProjectID. Credentials are not
// loaded when talking to the emulator.
func NewFirestoreClient(ctx context.Context, cfg config.Firestore) (*firestore.Client, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" && cfg.EmulatorHost == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, storeError("initialize firestore client", err)
	}
	return client, nil
}

// FirestorePostRepository implements PostRepository on a Firestore collection.
type FirestorePostRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestorePostRepository creates a FirestorePostRepository.
func NewFirestorePostRepository(client *firestore.Client, collection string) (*FirestorePostRepository, error) {
	if client == nil {
		return nil, errMissingFirestoreClient
	}
	return &FirestorePostRepository{client: client, collection: collection}, nil
}

// Create stores post under an auto-generated document ID.
func (r *FirestorePostRepository) Create(ctx context.Context, post *models.Post) error {
	ref := r.client.Collection(r.collection).NewDoc()
	doc := firestorePostDocument{
		Title:     post.Title,
		Content:   post.Content,
		Author:    post.Author,
		CreatedAt: post.CreatedAt,
	}

	if _, err := ref.Create(ctx, doc); err != nil {
		return storeError("create post document", err)
	}

	post.ID = ref.ID
	return nil
}

// List reads every document of the collection.
func (r *FirestorePostRepository) List(ctx context.Context) ([]*models.Post, error) {
	iter := r.client.Collection(r.collection).Documents(ctx)
	defer iter.Stop()

	posts := []*models.Post{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, storeError("iterate posts", err)
		}

		var doc firestorePostDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, storeError("decode post document", fmt.Errorf("%s: %w", snap.Ref.ID, err))
		}
		posts = append(posts, &models.Post{
			ID:        snap.Ref.ID,
			Title:     doc.Title,
			Content:   doc.Content,
			Author:    doc.Author,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	return posts, nil
}
