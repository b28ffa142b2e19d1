package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/objectsync/depsync"
)

// EtcdOptions configures the etcd connection of an EtcdStore.
type EtcdOptions struct {
	// Endpoints lists the etcd cluster endpoints
	// (e.g., []string{"localhost:2379"}).
	Endpoints []string

	// KeyPrefix namespaces record keys. Default: "/depsync/records".
	KeyPrefix string

	// DialTimeout is the maximum time to wait for connection
	// establishment. Default: 5s.
	DialTimeout time.Duration
}

// EtcdStore is a record store backed by etcd. Records are stored as JSON
// documents under "<prefix>/<id>" keys.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdStore creates an etcd-backed store with the given options.
func NewEtcdStore(opts EtcdOptions) (*EtcdStore, error) {
	if len(opts.Endpoints) == 0 {
		opts.Endpoints = []string{"localhost:2379"}
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "/depsync/records"
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &EtcdStore{client: client, prefix: opts.KeyPrefix}, nil
}

func (s *EtcdStore) key(id string) string {
	return s.prefix + "/" + id
}

// Exists implements depsync.TargetStore.
func (s *EtcdStore) Exists(ctx context.Context, id string) (bool, error) {
	resp, err := s.client.Get(ctx, s.key(id), clientv3.WithCountOnly())
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", id, err)
	}
	return resp.Count > 0, nil
}

// Create implements depsync.TargetStore. The write runs in a transaction
// guarded on the key not existing yet, so a concurrent writer cannot be
// silently overwritten.
func (s *EtcdStore) Create(ctx context.Context, source *depsync.Record, _ map[string]*depsync.Record) (*depsync.Record, error) {
	data, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal record %q: %v", depsync.ErrCreationFailed, source.ID, err)
	}

	key := s.key(source.ID)
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return nil, fmt.Errorf("%w: record %q: %v", depsync.ErrCreationFailed, source.ID, err)
	}
	if !resp.Succeeded {
		return nil, fmt.Errorf("%w: record %q already exists", depsync.ErrCreationFailed, source.ID)
	}

	return source, nil
}

// Get fetches a record by id, for use as the source side of a run.
func (s *EtcdStore) Get(ctx context.Context, id string) (*depsync.Record, error) {
	resp, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", depsync.ErrRecordNotFound, id)
	}

	var record depsync.Record
	if err := json.Unmarshal(resp.Kvs[0].Value, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return &record, nil
}

// List returns every record under the store's key prefix.
func (s *EtcdStore) List(ctx context.Context) ([]*depsync.Record, error) {
	resp, err := s.client.Get(ctx, s.prefix+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]*depsync.Record, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var record depsync.Record
		if err := json.Unmarshal(kv.Value, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w",
				strings.TrimPrefix(string(kv.Key), s.prefix+"/"), err)
		}
		out = append(out, &record)
	}
	return out, nil
}

// Close closes the etcd connection.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}
