package services

import (
	"context"
	"fmt"
	"sort"

	"recipebox/app/models"
	"recipebox/app/repositories"

	"github.com/rs/zerolog/log"
)

// PostNotifier is told about every stored post.
type PostNotifier interface {
	PublishPostCreated(ctx context.Context, post *models.Post) error
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo repositories.PostRepository
	notifier PostNotifier
}

// NewPostService creates a new PostService. notifier may be nil.
func NewPostService(postRepo repositories.PostRepository, notifier PostNotifier) *PostService {
	return &PostService{
		postRepo: postRepo,
		notifier: notifier,
	}
}

// CreatePost validates and stores a new post. A *models.ValidationError means
// nothing was written.
func (s *PostService) CreatePost(ctx context.Context, title, content, author string) (*models.Post, error) {
	post := models.NewPost(title, content, author)
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PublishPostCreated(ctx, post); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("post_id", post.ID).Msg("post stored but not announced")
		}
	}

	return post, nil
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}
