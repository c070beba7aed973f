package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"recipebox/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPostRepository runs the behaviour every backend must share against an
// empty repository.
func testPostRepository(t *testing.T, repo PostRepository) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		posts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("create then list", func(t *testing.T) {
		post := models.NewPost("Hello", "World", "Ann")
		require.NoError(t, repo.Create(ctx, post))
		assert.NotEmpty(t, post.ID)

		posts, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)
		assert.Equal(t, "Hello", posts[0].Title)
		assert.Equal(t, "World", posts[0].Content)
		assert.Equal(t, "Ann", posts[0].Author)
		assert.WithinDuration(t, post.CreatedAt, posts[0].CreatedAt, time.Millisecond)
	})

	t.Run("concurrent creates get distinct ids", func(t *testing.T) {
		const n = 20
		var wg sync.WaitGroup
		ids := make([]string, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				post := models.NewPost(fmt.Sprintf("Post %d", i), "body", "Ann")
				errs[i] = repo.Create(ctx, post)
				ids[i] = post.ID
			}(i)
		}
		wg.Wait()

		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.False(t, seen[ids[i]], "duplicate id %s", ids[i])
			seen[ids[i]] = true
		}

		posts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, n+1)
	})
}
