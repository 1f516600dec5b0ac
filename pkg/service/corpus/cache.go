package corpus

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// embeddingCache persists computed vectors across corpus builds so rows
// whose text has not changed are not sent to the provider again.
type embeddingCache struct {
	db *bbolt.DB
}

func openEmbeddingCache(path string) (*embeddingCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open embedding cache", goerr.V("path", path))
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create embeddings bucket")
	}

	return &embeddingCache{db: db}, nil
}

func (c *embeddingCache) Close() error {
	return c.db.Close()
}

// The key includes a hash of the embedded text, so editing a row's text
// invalidates its cached vector.
func cacheKey(projectID int64, text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(fmt.Sprintf("%d:%x", projectID, sum))
}

func (c *embeddingCache) get(projectID int64, text string) []float32 {
	var vector []float32
	_ = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(cacheKey(projectID, text))
		if data == nil {
			return nil
		}
		var v []float32
		if err := json.Unmarshal(data, &v); err != nil {
			return nil // skip corrupted entries
		}
		vector = v
		return nil
	})
	return vector
}

type cacheEntry struct {
	projectID int64
	text      string
	vector    []float32
}

func (c *embeddingCache) putAll(entries []cacheEntry) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for _, e := range entries {
			data, err := json.Marshal(e.vector)
			if err != nil {
				return goerr.Wrap(err, "failed to encode embedding", goerr.V("projectID", e.projectID))
			}
			if err := b.Put(cacheKey(e.projectID, e.text), data); err != nil {
				return goerr.Wrap(err, "failed to store embedding", goerr.V("projectID", e.projectID))
			}
		}
		return nil
	})
}
