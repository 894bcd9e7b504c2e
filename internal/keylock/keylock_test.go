package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestSameKey_MutualExclusion(t *testing.T) {
	kl := New(8)

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("rec-1")
			defer kl.Unlock("rec-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50 (lost update under lock)", counter)
	}
}

func TestDifferentShards_Parallel(t *testing.T) {
	kl := New(1024)

	// Find two keys in different shards.
	keyA := "a"
	keyB := ""
	for _, k := range []string{"b", "c", "d", "e", "f", "g"} {
		if kl.shard(k) != kl.shard(keyA) {
			keyB = k
			break
		}
	}
	if keyB == "" {
		t.Fatal("no key in a different shard found")
	}

	kl.Lock(keyA)
	defer kl.Unlock(keyA)

	done := make(chan struct{})
	go func() {
		kl.Lock(keyB)
		kl.Unlock(keyB)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("different shard blocked by held lock")
	}
}

func TestZeroShards_Defaults(t *testing.T) {
	kl := New(0)
	if len(kl.shards) != DefaultShards {
		t.Fatalf("shards = %d, want %d", len(kl.shards), DefaultShards)
	}

	// Must be usable.
	kl.Lock("x")
	kl.Unlock("x")
}

func TestShard_Stable(t *testing.T) {
	kl := New(64)
	if kl.shard("rec-42") != kl.shard("rec-42") {
		t.Fatal("shard assignment must be deterministic")
	}
}
