package repositories

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid"
)

const (
	// PostKeyPrefix prefixes every post key in Badger.
	PostKeyPrefix = "post:"
)

// NewPostID returns a ULID. ULIDs sort by creation time, so a prefix scan over
// post keys returns posts in insertion order (to the millisecond).
func NewPostID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + id)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
