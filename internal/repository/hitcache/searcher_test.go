package hitcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

func sampleHits() []hit.Hit {
	return []hit.Hit{
		hit.New("viral", "NC_1", 250).WithEValue(1e-50).WithIdentity(99.1).WithLabel("Influenza A virus"),
		hit.New("viral", "NC_2", 90),
	}
}

func TestSearch_CacheMiss(t *testing.T) {
	inner := &mockSearcher{hits: sampleHits()}
	cs, ms := newTestCachedSearcher(t, inner)

	var stored []byte
	var storedKey string
	var storedTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		storedKey, stored, storedTTL = key, value, ttl
		return nil
	}

	hits, err := cs.Search(context.Background(), sequence.Record{ID: "q1", Seq: []byte("ACGT")}, viralDB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || inner.calls != 1 {
		t.Fatalf("hits=%d calls=%d", len(hits), inner.calls)
	}
	if stored == nil {
		t.Fatal("expected hits to be cached")
	}
	if !strings.HasPrefix(storedKey, "seqclass:hits:viral:") {
		t.Errorf("unexpected key %q", storedKey)
	}
	if storedTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", storedTTL)
	}
}

func TestSearch_CacheHit(t *testing.T) {
	inner := &mockSearcher{hits: []hit.Hit{hit.New("viral", "other", 1)}}
	cs, ms := newTestCachedSearcher(t, inner)

	cached, err := encode(sampleHits())
	if err != nil {
		t.Fatal(err)
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return cached, nil }

	hits, err := cs.Search(context.Background(), sequence.Record{ID: "q1", Seq: []byte("ACGT")}, viralDB())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("inner searcher should not be called on hit, got %d calls", inner.calls)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 cached hits, got %d", len(hits))
	}

	h := hits[0]
	if h.Database() != "viral" || h.SubjectID() != "NC_1" || h.BitScore() != 250 || h.Label() != "Influenza A virus" {
		t.Errorf("decoded hit = %+v", h)
	}
	if ev, ok := h.EValue(); !ok || ev != 1e-50 {
		t.Errorf("EValue() = %v, %v", ev, ok)
	}
	if _, ok := hits[1].Identity(); ok {
		t.Error("absent identity should stay absent after a cache round trip")
	}
}

func TestSearch_SameSequenceSameKey(t *testing.T) {
	inner := &mockSearcher{}
	cs, _ := newTestCachedSearcher(t, inner)

	a := cs.cacheKey(sequence.Record{ID: "a", Seq: []byte("ACGT")}, viralDB())
	b := cs.cacheKey(sequence.Record{ID: "b", Seq: []byte("ACGT")}, viralDB())
	c := cs.cacheKey(sequence.Record{ID: "a", Seq: []byte("ACGA")}, viralDB())
	if a != b {
		t.Error("query id should not affect the cache key")
	}
	if a == c {
		t.Error("different sequences must not share a key")
	}
}

func TestSearch_InnerError(t *testing.T) {
	inner := &mockSearcher{err: errors.New("blastn exploded")}
	cs, ms := newTestCachedSearcher(t, inner)

	setCalled := false
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		setCalled = true
		return nil
	}

	if _, err := cs.Search(context.Background(), sequence.Record{ID: "q"}, viralDB()); err == nil {
		t.Fatal("expected error")
	}
	if setCalled {
		t.Error("failed searches must not be cached")
	}
}

func TestSearch_StoreErrorsDegrade(t *testing.T) {
	inner := &mockSearcher{hits: sampleHits()}
	cs, ms := newTestCachedSearcher(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, errors.New("connection refused") }
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error { return errors.New("connection refused") }

	hits, err := cs.Search(context.Background(), sequence.Record{ID: "q", Seq: []byte("A")}, viralDB())
	if err != nil {
		t.Fatalf("cache failure should not fail the search: %v", err)
	}
	if len(hits) != 2 || inner.calls != 1 {
		t.Errorf("hits=%d calls=%d", len(hits), inner.calls)
	}
}

func TestSearch_CorruptEntry(t *testing.T) {
	inner := &mockSearcher{hits: sampleHits()}
	cs, ms := newTestCachedSearcher(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte{0xc1, 0x00}, nil }

	if _, err := cs.Search(context.Background(), sequence.Record{ID: "q", Seq: []byte("A")}, viralDB()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should fall back to the inner searcher")
	}
}

func TestSearch_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_hit_cache_total"}, []string{"result"})
	inner := &mockSearcher{hits: sampleHits()}
	ms := &mockKVStore{}
	cs := New(inner, ms, Config{}, counter, zap.NewNop())

	var cached []byte
	ms.setFn = func(_ context.Context, _ string, v []byte, _ time.Duration) error {
		cached = v
		return nil
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		if cached == nil {
			return nil, errors.New("miss")
		}
		return cached, nil
	}

	q := sequence.Record{ID: "q", Seq: []byte("ACGT")}
	for range 3 {
		if _, err := cs.Search(context.Background(), q, viralDB()); err != nil {
			t.Fatal(err)
		}
	}

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("misses = %f, want 1", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 2 {
		t.Errorf("hits = %f, want 2", v)
	}
}

func TestPurge(t *testing.T) {
	cs, ms := newTestCachedSearcher(t, &mockSearcher{})

	var pattern string
	var deleted []string
	ms.scanFn = func(_ context.Context, p string) ([]string, error) {
		pattern = p
		return []string{"seqclass:hits:viral:a", "seqclass:hits:viral:b"}, nil
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}

	n, err := cs.Purge(context.Background(), "viral")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(deleted) != 2 {
		t.Errorf("purged %d, deleted %v", n, deleted)
	}
	if pattern != "seqclass:hits:viral:*" {
		t.Errorf("scan pattern = %q", pattern)
	}
}

func TestPurge_RejectsPatternNames(t *testing.T) {
	cs, ms := newTestCachedSearcher(t, &mockSearcher{})
	scanned := false
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		scanned = true
		return nil, nil
	}

	for _, name := range []string{"", "viral:v2", "vir*", "vir?l", "vir[al]"} {
		if _, err := cs.Purge(context.Background(), name); err == nil {
			t.Errorf("Purge(%q): expected error", name)
		}
	}
	if scanned {
		t.Error("store must not be scanned for rejected names")
	}
}

func TestPurge_KeysOfOtherDatabasesSurvive(t *testing.T) {
	cs, ms := newTestCachedSearcher(t, &mockSearcher{})

	// "viral" and "viralx" share a name prefix but not a key prefix.
	q := sequence.Record{Seq: []byte("ACGT")}
	other := database.Database{Name: "viralx", Path: "/dbs/viralx", Type: database.Nucleotide}
	stored := map[string]string{
		cs.cacheKey(q, viralDB()): "viral",
		cs.cacheKey(q, other):     "viralx",
	}
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		prefix := strings.TrimSuffix(pattern, "*")
		var out []string
		for k := range stored {
			if strings.HasPrefix(k, prefix) {
				out = append(out, k)
			}
		}
		return out, nil
	}
	var deleted []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = append(deleted, keys...)
		return nil
	}

	if _, err := cs.Purge(context.Background(), "viral"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 1 || stored[deleted[0]] != "viral" {
		t.Errorf("deleted %v", deleted)
	}
}

func TestPurge_ScanError(t *testing.T) {
	cs, ms := newTestCachedSearcher(t, &mockSearcher{})
	ms.scanFn = func(_ context.Context, _ string) ([]string, error) { return nil, errors.New("down") }

	if _, err := cs.Purge(context.Background(), "viral"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecode_RejectsOtherVersion(t *testing.T) {
	data, err := encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decode(data, "db"); err != nil {
		t.Fatalf("current version should decode: %v", err)
	}

	old := entryDTO{Version: schemaVersion + 1}
	raw, err := msgpack.Marshal(&old)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decode(raw, "db"); err == nil {
		t.Error("expected version mismatch error")
	}
}
