package repositories

import (
	"context"
	"fmt"
	"time"

	"recipebox/app/config"
	"recipebox/app/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// mongoPostDocument is the shape of a post in the blogposts collection.
type mongoPostDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Author    string             `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *mongoPostDocument) toModel() *models.Post {
	return &models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Author:    d.Author,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// ConnectMongo opens a client and waits until the server answers a ping,
// retrying with exponential backoff up to cfg.ConnectRetries times.
func ConnectMongo(ctx context.Context, cfg config.Mongo) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, storeError("connect mongo", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ConnectRetries),
		ctx,
	)
	ping := func() error {
		return client.Ping(ctx, readpref.Primary())
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("mongo ping failed")
	}
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeError("ping mongo", err)
	}

	return client, nil
}

// MongoPostRepository implements PostRepository on a MongoDB collection.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a MongoPostRepository over db.collection.
func NewMongoPostRepository(db *mongo.Database, collection string) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection(collection)}
}

// Create inserts post with a client-generated ObjectID.
func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	doc := mongoPostDocument{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Content:   post.Content,
		Author:    post.Author,
		CreatedAt: post.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return storeError("insert post", err)
	}

	post.ID = doc.ID.Hex()
	return nil
}

// List runs an unfiltered find over the collection.
func (r *MongoPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, storeError("find posts", err)
	}

	var docs []mongoPostDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("decode posts", fmt.Errorf("cursor: %w", err))
	}

	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	return posts, nil
}
