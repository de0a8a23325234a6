// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const seenKeyPrefix = "seen:"

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}

// bloomFilter is a fixed-size double-hashing bloom filter. It may report
// a URL as seen when it was not, which only costs a store read; it never
// reports a seen URL as new.
type bloomFilter struct {
	mu      sync.Mutex
	bits    []uint64
	size    uint64
	hashFns uint64
}

func newBloomFilter(capacity int, fpRate float64) *bloomFilter {
	if capacity < 1 {
		capacity = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(capacity) * math.Log(fpRate) / (ln2 * ln2)))
	if m < 64 {
		m = 64
	}
	k := uint64(math.Round(float64(m) / float64(capacity) * ln2))
	if k < 1 {
		k = 1
	}
	return &bloomFilter{
		bits:    make([]uint64, (m+63)/64),
		size:    m,
		hashFns: k,
	}
}

func (b *bloomFilter) hashPair(key string) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	h2 := fnv.New64()
	h2.Write([]byte(key))
	return h1.Sum64(), h2.Sum64() | 1
}

func (b *bloomFilter) add(key string) {
	x, y := b.hashPair(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := uint64(0); i < b.hashFns; i++ {
		pos := (x + i*y) % b.size
		b.bits[pos/64] |= 1 << (pos % 64)
	}
}

func (b *bloomFilter) test(key string) bool {
	x, y := b.hashPair(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := uint64(0); i < b.hashFns; i++ {
		pos := (x + i*y) % b.size
		if b.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// BadgerSeen implements SeenURLs on BadgerDB. Entries expire via TTL, so
// the deduplication window is enforced by the store. The bloom filter is
// warmed from stored keys at startup; it holds a superset of the live
// entries, so a negative answer is authoritative and skips the store.
type BadgerSeen struct {
	db     *badger.DB
	window time.Duration
	bloom  *bloomFilter
}

var _ SeenURLs = (*BadgerSeen)(nil)

// NewBadgerSeen builds the deduplicator and warms its bloom filter from
// the keys already in the store.
func NewBadgerSeen(db *badger.DB, window time.Duration, expectedURLs int) (*BadgerSeen, error) {
	if window <= 0 {
		return nil, fmt.Errorf("storage: dedupe window must be positive, got %v", window)
	}
	s := &BadgerSeen{
		db:     db,
		window: window,
		bloom:  newBloomFilter(expectedURLs, 0.01),
	}

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(seenKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			s.bloom.add(string(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: warm seen-url bloom filter: %w", err)
	}
	return s, nil
}

// IsNew reports whether the URL has not been seen within the window, and
// records it as seen.
func (s *BadgerSeen) IsNew(_ context.Context, url string) (bool, error) {
	key := seenKeyPrefix + hashURL(url)

	if !s.bloom.test(key) {
		return true, s.record(key)
	}

	// Bloom positives can be false; the store decides.
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return true, s.record(key)
	default:
		return false, err
	}
}

func (s *BadgerSeen) record(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), nil).WithTTL(s.window)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return err
	}
	s.bloom.add(key)
	return nil
}

// MemorySeen implements SeenURLs in memory for tests.
type MemorySeen struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

var _ SeenURLs = (*MemorySeen)(nil)

// NewMemorySeen returns an in-memory deduplicator with the given window.
func NewMemorySeen(window time.Duration) *MemorySeen {
	return &MemorySeen{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemorySeen) IsNew(_ context.Context, url string) (bool, error) {
	key := hashURL(url)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.seen[key]; ok && now.Sub(at) < s.window {
		return false, nil
	}
	s.seen[key] = now
	return true, nil
}
