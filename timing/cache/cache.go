package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of recorded accesses.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits over accesses, or 0 without accesses.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// Model decides whether an access to a cache level hits.
type Model interface {
	// Access records an access and reports whether it hit.
	Access(addr uint64, isWrite bool) bool
	// Stats returns the recorded statistics.
	Stats() Statistics
	// Reset forgets all state and statistics.
	Reset()
}

// SetAssociative is a tag-only cache model built on an Akita directory with
// LRU replacement. Data stays in the level's Store.
type SetAssociative struct {
	config LevelConfig

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// NewSetAssociative creates a set-associative model for the level.
func NewSetAssociative(config LevelConfig) *SetAssociative {
	return &SetAssociative{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the level configuration.
func (c *SetAssociative) Config() LevelConfig {
	return c.config
}

// Stats returns cache statistics.
func (c *SetAssociative) Stats() Statistics {
	return c.stats
}

func (c *SetAssociative) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Access looks the line up and allocates it on a miss. Writes allocate like
// reads; the hierarchy writes through so lines are never dirty.
func (c *SetAssociative) Access(addr uint64, isWrite bool) bool {
	if isWrite {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return false
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return false
}

// Contains reports whether the line holding addr is resident.
func (c *SetAssociative) Contains(addr uint64) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	return block != nil && block.IsValid
}

// Reset invalidates all cache lines and clears statistics.
func (c *SetAssociative) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
