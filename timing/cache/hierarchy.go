package cache

import (
	"encoding/binary"
	"fmt"
)

// AccessResult contains the result of a hierarchy access.
type AccessResult struct {
	// Hit indicates whether the first-level cache hit.
	Hit bool
	// ServedBy is the level that supplied the line.
	ServedBy Level
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the data read (for loads and fetches).
	Data []byte
}

// Hierarchy is the memory shared by all cores: one Store per level and one
// Model per cache level. Main is authoritative; cache level stores hold the
// lines their model has filled. There is no coherence between cores.
type Hierarchy struct {
	config Config
	stores [NumCacheLevels + 1]*Store
	models [NumCacheLevels]Model
}

// NewHierarchy creates a hierarchy from a validated configuration.
func NewHierarchy(config Config) (*Hierarchy, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	h := &Hierarchy{config: config}
	for i := range h.stores {
		h.stores[i] = NewStore()
	}
	for i, lc := range config.Levels {
		if config.Mode == ModeSimulated {
			h.models[i] = NewSetAssociative(lc)
		} else {
			h.models[i] = NewAssumed(lc.HitRate)
		}
	}

	return h, nil
}

// Config returns the hierarchy configuration.
func (h *Hierarchy) Config() Config {
	return h.config
}

// Read returns size bytes from one level's raw store.
func (h *Hierarchy) Read(level Level, addr uint64, size int) []byte {
	return h.stores[level].Read(addr, size)
}

// Write writes data into one level's raw store.
func (h *Hierarchy) Write(level Level, addr uint64, data []byte) {
	h.stores[level].Write(addr, data)
}

// Load reads data through L1D, L2 and L3.
func (h *Hierarchy) Load(addr uint64, size int) AccessResult {
	res := h.walk(addr, false, L1D, L2, L3)
	res.Data = h.stores[Main].Read(addr, size)
	return res
}

// Store writes data through to Main and every data-path cache level.
func (h *Hierarchy) Store(addr uint64, data []byte) AccessResult {
	h.stores[Main].Write(addr, data)
	res := h.walk(addr, true, L1D, L2, L3)
	for _, l := range []Level{L1D, L2, L3} {
		h.stores[l].Write(addr, data)
	}
	return res
}

// FetchWord reads one instruction word through L1I, L2 and L3.
func (h *Hierarchy) FetchWord(addr uint64) (uint32, AccessResult) {
	res := h.walk(addr, false, L1I, L2, L3)
	res.Data = h.stores[Main].Read(addr, 4)
	return binary.LittleEndian.Uint32(res.Data), res
}

// walk checks levels in order until one hits, filling the line into every
// level that missed.
func (h *Hierarchy) walk(addr uint64, isWrite bool, levels ...Level) AccessResult {
	res := AccessResult{ServedBy: Main}

	var missed []Level
	for i, l := range levels {
		res.Latency += h.config.Levels[l].HitLatency
		if h.models[l].Access(addr, isWrite) {
			res.ServedBy = l
			res.Hit = i == 0
			break
		}
		missed = append(missed, l)
	}
	if res.ServedBy == Main {
		res.Latency += h.config.MainLatency
	}

	for _, l := range missed {
		h.fill(l, addr)
	}

	return res
}

func (h *Hierarchy) fill(l Level, addr uint64) {
	block := uint64(h.config.Levels[l].BlockSize)
	base := addr / block * block
	h.stores[l].Write(base, h.stores[Main].Read(base, int(block)))
}

// Stats returns the statistics of one cache level.
func (h *Hierarchy) Stats(level Level) Statistics {
	return h.models[level].Stats()
}

// HitRate returns the reported hit rate of a cache level: the configured
// rate in assumed mode and the measured rate in simulated mode.
func (h *Hierarchy) HitRate(level Level) float64 {
	if h.config.Mode == ModeAssumed {
		return h.config.Levels[level].HitRate
	}
	return h.models[level].Stats().HitRate()
}

// HitRates returns the reported hit rate of every cache level by name.
func (h *Hierarchy) HitRates() map[string]float64 {
	rates := make(map[string]float64, NumCacheLevels)
	for i := 0; i < NumCacheLevels; i++ {
		rates[Level(i).String()] = h.HitRate(Level(i))
	}
	return rates
}

// ResetModels clears every cache model. Store contents are kept.
func (h *Hierarchy) ResetModels() {
	for _, m := range h.models {
		m.Reset()
	}
}
