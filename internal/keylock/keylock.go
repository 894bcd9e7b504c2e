// Package keylock provides a sharded mutex table for per-key critical sections.
//
// Writers for the same record id must never interleave, but a whole-index
// lock would serialize all ingestion. A fixed shard count bounds lock-table
// memory: keys hash to one of N mutexes, so two keys in the same shard
// serialize while keys in different shards proceed in parallel.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultShards is the default shard count.
const DefaultShards = 64

// KeyLock is a sharded lock table keyed by string.
type KeyLock struct {
	shards []sync.Mutex
}

// New creates a lock table with the given shard count (DefaultShards if <= 0).
func New(shards int) *KeyLock {
	if shards <= 0 {
		shards = DefaultShards
	}
	return &KeyLock{shards: make([]sync.Mutex, shards)}
}

// Lock acquires the shard lock for key, blocking until available.
func (kl *KeyLock) Lock(key string) {
	kl.shards[kl.shard(key)].Lock()
}

// Unlock releases the shard lock for key.
func (kl *KeyLock) Unlock(key string) {
	kl.shards[kl.shard(key)].Unlock()
}

func (kl *KeyLock) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(kl.shards)))
}
