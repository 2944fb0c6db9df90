package hitcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/db"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

type mockSearcher struct {
	hits  []hit.Hit
	err   error
	calls int
}

func (m *mockSearcher) Search(_ context.Context, _ sequence.Record, _ database.Database) ([]hit.Hit, error) {
	m.calls++
	return m.hits, m.err
}

func (m *mockSearcher) Fingerprint(d database.Database) string {
	return "blastn|" + d.Path
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
	delFn  func(ctx context.Context, keys ...string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockKVStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func newTestCachedSearcher(t *testing.T, inner *mockSearcher) (*CachedSearcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cs := New(inner, ms, Config{TTL: time.Hour}, nil, zap.NewNop())
	return cs, ms
}

func viralDB() database.Database {
	return database.Database{Name: "viral", Path: "/dbs/viral", Type: database.Nucleotide}
}
