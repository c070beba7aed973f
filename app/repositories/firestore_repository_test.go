package repositories

import (
	"context"
	"os"
	"testing"

	"recipebox/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against the emulator, e.g.
// FIRESTORE_EMULATOR_HOST=localhost:8200 go test ./app/repositories/...
func TestFirestorePostRepository(t *testing.T) {
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := NewFirestoreClient(context.Background(), config.Firestore{
		ProjectID:    "recipebox-test",
		EmulatorHost: host,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	repo, err := NewFirestorePostRepository(client, "blogposts_"+NewPostID())
	require.NoError(t, err)
	testPostRepository(t, repo)
}

func TestNewFirestorePostRepositoryNilClient(t *testing.T) {
	_, err := NewFirestorePostRepository(nil, "blogposts")
	assert.ErrorIs(t, err, errMissingFirestoreClient)
}
