package cache

import "fmt"

// Mode selects how cache hits are decided.
type Mode string

// Cache model modes.
const (
	// ModeAssumed hits a fixed fraction of accesses per level.
	ModeAssumed Mode = "assumed"
	// ModeSimulated tracks tags in set-associative LRU directories.
	ModeSimulated Mode = "simulated"
)

// LevelConfig holds one cache level's parameters.
type LevelConfig struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`
	// HitRate is the fraction of accesses that hit in assumed mode.
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

// Validate checks that the level geometry is usable.
func (c LevelConfig) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size %d must be a positive power of two", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity %d must be positive", c.Associativity)
	}
	if c.Size < c.Associativity*c.BlockSize || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d must be a multiple of associativity x block size", c.Size)
	}
	if c.HitRate < 0 || c.HitRate > 1 {
		return fmt.Errorf("hit rate %v must be within [0, 1]", c.HitRate)
	}
	return nil
}

// NumSets returns the number of sets of the level.
func (c LevelConfig) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Config holds the memory hierarchy configuration.
type Config struct {
	Mode Mode

	// Levels is indexed by L1I, L1D, L2 and L3.
	Levels [NumCacheLevels]LevelConfig

	// MainLatency is charged when every cache level misses.
	MainLatency uint64
}

// DefaultL1IConfig returns the default L1 instruction cache.
func DefaultL1IConfig() LevelConfig {
	return LevelConfig{
		Size:          64 * 1024, // 64KB
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    1,
		HitRate:       0.95,
	}
}

// DefaultL1DConfig returns the default L1 data cache.
func DefaultL1DConfig() LevelConfig {
	return LevelConfig{
		Size:          64 * 1024, // 64KB
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    3,
		HitRate:       0.90,
	}
}

// DefaultL2Config returns the default unified L2 cache.
func DefaultL2Config() LevelConfig {
	return LevelConfig{
		Size:          1024 * 1024, // 1MB
		Associativity: 16,
		BlockSize:     64,
		HitLatency:    12,
		HitRate:       0.85,
	}
}

// DefaultL3Config returns the default shared L3 cache.
func DefaultL3Config() LevelConfig {
	return LevelConfig{
		Size:          16 * 1024 * 1024, // 16MB
		Associativity: 16,
		BlockSize:     64,
		HitLatency:    36,
		HitRate:       0.80,
	}
}

// DefaultMainLatency is the default HBM access latency in cycles.
const DefaultMainLatency uint64 = 150

// DefaultConfig returns the default hierarchy in assumed mode.
func DefaultConfig() Config {
	return Config{
		Mode: ModeAssumed,
		Levels: [NumCacheLevels]LevelConfig{
			L1I: DefaultL1IConfig(),
			L1D: DefaultL1DConfig(),
			L2:  DefaultL2Config(),
			L3:  DefaultL3Config(),
		},
		MainLatency: DefaultMainLatency,
	}
}

// Validate checks the mode and every level.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeAssumed, ModeSimulated:
	default:
		return fmt.Errorf("unknown cache mode %q", c.Mode)
	}

	for i, lc := range c.Levels {
		if err := lc.Validate(); err != nil {
			return fmt.Errorf("%v: %w", Level(i), err)
		}
	}
	return nil
}
