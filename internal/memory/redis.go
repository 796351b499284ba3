package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iksnae/agentroom/internal"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in a hash of id -> CBOR-encoded document,
// with a set indexing collection names
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &internal.MemoryError{Op: "open", Err: fmt.Errorf("redis %s: %w", opts.Addr, err)}
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "agentroom"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":collections"
}

func (s *RedisStore) collectionKey(name string) string {
	return s.prefix + ":memory:" + name
}

// GetOrCreate returns the named collection, creating it if needed
func (s *RedisStore) GetOrCreate(ctx context.Context, name string) (Collection, error) {
	if err := s.rdb.SAdd(ctx, s.indexKey(), name).Err(); err != nil {
		return nil, &internal.MemoryError{Collection: name, Op: "open", Err: err}
	}
	return &redisCollection{store: s, name: name}, nil
}

// Collections lists collection names alphabetically
func (s *RedisStore) Collections(ctx context.Context) ([]string, error) {
	names, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, &internal.MemoryError{Op: "list", Err: err}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a collection and its documents
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	ok, err := s.rdb.SIsMember(ctx, s.indexKey(), name).Result()
	if err != nil {
		return &internal.MemoryError{Collection: name, Op: "delete", Err: err}
	}
	if !ok {
		return &internal.MemoryError{Collection: name, Op: "delete", Err: ErrCollectionNotFound}
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.collectionKey(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return &internal.MemoryError{Collection: name, Op: "delete", Err: err}
	}
	return nil
}

// Rename moves a collection and its documents to a new name
func (s *RedisStore) Rename(ctx context.Context, oldName, newName string) error {
	ok, err := s.rdb.SIsMember(ctx, s.indexKey(), oldName).Result()
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}
	if !ok {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: ErrCollectionNotFound}
	}
	taken, err := s.rdb.SIsMember(ctx, s.indexKey(), newName).Result()
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}
	if taken {
		return &internal.MemoryError{Collection: newName, Op: "rename", Err: ErrCollectionExists}
	}
	hasDocs, err := s.rdb.Exists(ctx, s.collectionKey(oldName)).Result()
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// RENAME fails on a missing key, and an empty collection has no hash
		if hasDocs > 0 {
			pipe.Rename(ctx, s.collectionKey(oldName), s.collectionKey(newName))
		}
		pipe.SRem(ctx, s.indexKey(), oldName)
		pipe.SAdd(ctx, s.indexKey(), newName)
		return nil
	})
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}
	return nil
}

// Close closes the redis connection pool
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

type redisCollection struct {
	store *RedisStore
	name  string
}

func (c *redisCollection) Name() string {
	return c.name
}

func (c *redisCollection) Upsert(ctx context.Context, id, doc string, meta map[string]string) error {
	data, err := encodeDocument(Document{Text: doc, Meta: meta})
	if err != nil {
		return &internal.MemoryError{Collection: c.name, Op: "upsert", Err: fmt.Errorf("failed to encode document: %w", err)}
	}
	if err := c.store.rdb.HSet(ctx, c.store.collectionKey(c.name), id, data).Err(); err != nil {
		return &internal.MemoryError{Collection: c.name, Op: "upsert", Err: err}
	}
	return nil
}

func (c *redisCollection) Query(ctx context.Context, text string, k int) ([]Document, error) {
	entries, err := c.store.rdb.HGetAll(ctx, c.store.collectionKey(c.name)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, &internal.MemoryError{Collection: c.name, Op: "query", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		doc, err := decodeDocument([]byte(entries[id]))
		if err != nil {
			internal.LogDebug("Skipping unreadable document %s/%s: %v", c.name, id, err)
			continue
		}
		doc.ID = id
		docs = append(docs, doc)
	}
	return rank(docs, text, k), nil
}

func (c *redisCollection) Count(ctx context.Context) (int, error) {
	n, err := c.store.rdb.HLen(ctx, c.store.collectionKey(c.name)).Result()
	if err != nil {
		return 0, &internal.MemoryError{Collection: c.name, Op: "count", Err: err}
	}
	return int(n), nil
}
