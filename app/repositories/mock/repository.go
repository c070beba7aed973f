package mock

import (
	"context"
	"fmt"
	"sync"

	"recipebox/app/models"
	"recipebox/app/repositories"
)

// PostRepository is an in-memory PostRepository. Fail makes every call return
// a store error until Fail(nil) is called.
type PostRepository struct {
	posts []*models.Post
	err   error
	mutex sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{}
}

// Fail injects err into subsequent calls. Pass nil to recover.
func (m *PostRepository) Fail(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.err = err
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = nil
}

// Count returns how many posts have been stored.
func (m *PostRepository) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.posts)
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.err != nil {
		return fmt.Errorf("create post: %w: %w", repositories.ErrStoreUnavailable, m.err)
	}

	post.ID = repositories.NewPostID()
	stored := *post
	m.posts = append(m.posts, &stored)
	return nil
}

func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.err != nil {
		return nil, fmt.Errorf("list posts: %w: %w", repositories.ErrStoreUnavailable, m.err)
	}

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		p := *post
		posts = append(posts, &p)
	}
	return posts, nil
}
