package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/voicepipe/voicepipe/pkg/cache"
)

func newEntry(key string, audio string) *cache.Entry {
	return &cache.Entry{
		Key:       key,
		Audio:     []byte(audio),
		Duration:  1.0,
		CreatedAt: time.Now(),
	}
}

func TestPutGet(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", newEntry("k1", "a"), time.Hour); err != nil {
		t.Fatal(err)
	}

	entry, found, err := s.Get(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("expected hit, found=%v err=%v", found, err)
	}
	if string(entry.Audio) != "a" {
		t.Errorf("unexpected audio: %s", entry.Audio)
	}

	_, found, _ = s.Get(ctx, "absent")
	if found {
		t.Error("expected miss for absent key")
	}
}

func TestLazyExpiry(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "k1", newEntry("k1", "a"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, found, _ := s.Get(ctx, "k1"); found {
		t.Error("expired entry must not be returned")
	}
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("expired entry must be removed on read, len=%d", n)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "k1", newEntry("k1", "a"), 0)
	time.Sleep(5 * time.Millisecond)

	if _, found, _ := s.Get(ctx, "k1"); !found {
		t.Error("zero-TTL entry must not expire")
	}
}

func TestLRUEviction(t *testing.T) {
	s := New(WithMaxEntries(3))
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		k := fmt.Sprintf("k%d", i)
		s.Put(ctx, k, newEntry(k, "a"), time.Hour)
	}

	// Touch k0 so k1 becomes the LRU entry.
	s.Get(ctx, "k0")
	s.Put(ctx, "k3", newEntry("k3", "a"), time.Hour)

	if _, found, _ := s.Get(ctx, "k1"); found {
		t.Error("least recently used entry must be evicted")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, found, _ := s.Get(ctx, k); !found {
			t.Errorf("entry %s must survive eviction", k)
		}
	}
}

func TestOverwriteLastWriterWins(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "k1", newEntry("k1", "first"), time.Hour)
	s.Put(ctx, "k1", newEntry("k1", "second"), time.Hour)

	entry, found, _ := s.Get(ctx, "k1")
	if !found || string(entry.Audio) != "second" {
		t.Errorf("expected last write to win, got %v", entry)
	}
	if n, _ := s.Len(ctx); n != 1 {
		t.Errorf("overwrite must not grow the store, len=%d", n)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "k1", newEntry("k1", "a"), time.Hour)
	s.Put(ctx, "k2", newEntry("k2", "a"), time.Hour)

	s.Delete(ctx, "k1")
	if _, found, _ := s.Get(ctx, "k1"); found {
		t.Error("deleted entry must be gone")
	}

	s.Clear(ctx)
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("clear must remove everything, len=%d", n)
	}
}

func TestConcurrentPutGet(t *testing.T) {
	s := New(WithMaxEntries(64))
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := fmt.Sprintf("k%d", j%8)
				s.Put(ctx, k, newEntry(k, "a"), time.Hour)
				s.Get(ctx, k)
			}
		}(i)
	}
	wg.Wait()

	if n, _ := s.Len(ctx); n == 0 || n > 8 {
		t.Errorf("unexpected entry count after concurrent writes: %d", n)
	}
}
