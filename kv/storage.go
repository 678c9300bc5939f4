package kv

import (
	"iter"

	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Key, Value string
}

// Storage keeps the header lines of a single part in order of appearance. Keys are compared
// case-insensitively. Lookups are linear, as parts rarely carry more than a couple of headers.
type Storage struct {
	pairs []Pair
	// size is the sum of lengths of all the keys and values.
	size int
}

func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance with n pre-allocated seats.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// Add appends a new pair, even if the key is already presented.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{Key: key, Value: value})
	s.size += len(key) + len(value)
	return s
}

// Set replaces all the values of the key by the single value.
func (s *Storage) Set(key, value string) *Storage {
	return s.Delete(key).Add(key, value)
}

// Delete removes all the pairs with the key.
func (s *Storage) Delete(key string) *Storage {
	kept := s.pairs[:0]
	for _, pair := range s.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			s.size -= len(pair.Key) + len(pair.Value)
			continue
		}

		kept = append(kept, pair)
	}

	clear(s.pairs[len(kept):])
	s.pairs = kept
	return s
}

// Value returns the first value of the key or an empty string.
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns the first value of the key or the fallback.
func (s *Storage) ValueOr(key, or string) string {
	if value, found := s.Get(key); found {
		return value
	}

	return or
}

// Get returns the first value of the key and whether it was found at all.
func (s *Storage) Get(key string) (value string, found bool) {
	for _, pair := range s.pairs {
		if strcomp.EqualFold(pair.Key, key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values iterates over all the values of the key.
func (s *Storage) Values(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, pair := range s.pairs {
			if strcomp.EqualFold(pair.Key, key) && !yield(pair.Value) {
				return
			}
		}
	}
}

// Keys iterates over unique keys. The spelling of the first occurrence wins.
func (s *Storage) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, pair := range s.pairs {
			if s.seen(pair.Key, i) {
				continue
			}

			if !yield(pair.Key) {
				return
			}
		}
	}
}

func (s *Storage) seen(key string, before int) bool {
	for _, pair := range s.pairs[:before] {
		if strcomp.EqualFold(pair.Key, key) {
			return true
		}
	}

	return false
}

// Pairs iterates over all the pairs in order of their insertion.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Len returns the number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}

// Size returns the total length of all the keys and values.
func (s *Storage) Size() int {
	return s.size
}

func (s *Storage) Empty() bool {
	return len(s.pairs) == 0
}

// Clone returns a deep copy, safe to be retained after the storage is cleared.
func (s *Storage) Clone() *Storage {
	pairs := make([]Pair, len(s.pairs))
	copy(pairs, s.pairs)

	return &Storage{pairs: pairs, size: s.size}
}

// Expose returns the underlying pairs.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear removes all the entries, keeping the allocated space.
func (s *Storage) Clear() *Storage {
	clear(s.pairs)
	s.pairs = s.pairs[:0]
	s.size = 0
	return s
}
