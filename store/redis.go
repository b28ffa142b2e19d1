package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/objectsync/depsync"
)

// RedisOptions configures the Redis connection of a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// KeyPrefix namespaces record keys. Default: "depsync:record".
	KeyPrefix string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection
	// establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// RedisStore is a record store backed by Redis. Records are stored as JSON
// documents under "<prefix>:<id>" keys.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store with the given options and
// verifies the connection with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "depsync:record"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.KeyPrefix}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Exists implements depsync.TargetStore.
func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", id, err)
	}
	return n > 0, nil
}

// Create implements depsync.TargetStore. The write uses SET NX so a record
// slipped in by a concurrent writer since the importer's existence check
// surfaces as a creation failure instead of a silent overwrite.
func (s *RedisStore) Create(ctx context.Context, source *depsync.Record, _ map[string]*depsync.Record) (*depsync.Record, error) {
	data, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal record %q: %v", depsync.ErrCreationFailed, source.ID, err)
	}

	ok, err := s.client.SetNX(ctx, s.key(source.ID), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: record %q: %v", depsync.ErrCreationFailed, source.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: record %q already exists", depsync.ErrCreationFailed, source.ID)
	}

	return source, nil
}

// Get fetches a record by id, for use as the source side of a run.
func (s *RedisStore) Get(ctx context.Context, id string) (*depsync.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", depsync.ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", id, err)
	}

	var record depsync.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return &record, nil
}

// List returns every record under the store's key prefix, scanning the
// keyspace incrementally.
func (s *RedisStore) List(ctx context.Context) ([]*depsync.Record, error) {
	var out []*depsync.Record

	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimPrefix(key, s.prefix+":")
		record, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return out, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
