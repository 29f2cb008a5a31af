// Package cache models the AlphaAHB memory hierarchy: per-level byte stores
// backed by Akita storage plus hit/miss models for the cache levels.
package cache

import (
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// Level identifies one level of the memory hierarchy.
type Level int

// Memory hierarchy levels.
const (
	L1I Level = iota
	L1D
	L2
	L3
	Main

	// NumCacheLevels counts the levels that have a cache model.
	NumCacheLevels = int(Main)
)

var levelNames = [...]string{
	L1I:  "l1i",
	L1D:  "l1d",
	L2:   "l2",
	L3:   "l3",
	Main: "main",
}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// AddressSpace is the size of the 32-bit physical address space.
const AddressSpace uint64 = 4 * mem.GB

// storeCapacity leaves room for an access that starts near the top of the
// address space.
const storeCapacity = AddressSpace + 4*mem.KB

// Store is one level's sparse byte store. Pages are allocated on first
// touch and read as zero until written. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	storage *mem.Storage
}

// NewStore creates an empty store covering the 32-bit address space.
func NewStore() *Store {
	return &Store{storage: mem.NewStorage(storeCapacity)}
}

// Read returns size bytes starting at the 32-bit address addr.
func (s *Store) Read(addr uint64, size int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Read(addr%AddressSpace, uint64(size))
	if err != nil {
		panic(fmt.Sprintf("cache: store read at 0x%X: %v", addr, err))
	}
	return data
}

// Write stores data starting at the 32-bit address addr.
func (s *Store) Write(addr uint64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Write(addr%AddressSpace, data); err != nil {
		panic(fmt.Sprintf("cache: store write at 0x%X: %v", addr, err))
	}
}
