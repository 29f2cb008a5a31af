package cache

import "encoding/binary"

// PortStats summarizes the committed accesses of one Port.
type PortStats struct {
	// Hits and Misses count first-level outcomes of fetches and data accesses.
	Hits   uint64
	Misses uint64

	// FetchLatency and DataLatency sum the hierarchy latency per path.
	FetchLatency uint64
	DataLatency  uint64
}

type accessKind uint8

const (
	accessFetch accessKind = iota
	accessLoad
	accessStore
)

type access struct {
	kind accessKind
	addr uint64
	size int
	data []byte
}

// Port is one core's view of the Hierarchy. It implements emu.Memory.
//
// An unbuffered port performs every access on the hierarchy at once. A
// buffered port serves reads from Main overlaid with its own pending writes
// and defers all hierarchy traffic until Commit, so several buffered ports
// can be driven concurrently and committed in a fixed order.
type Port struct {
	hierarchy *Hierarchy
	buffered  bool
	pending   []access
	stats     PortStats
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithBuffering makes the port defer hierarchy traffic until Commit.
func WithBuffering() PortOption {
	return func(p *Port) {
		p.buffered = true
	}
}

// NewPort creates a port on h.
func NewPort(h *Hierarchy, opts ...PortOption) *Port {
	p := &Port{hierarchy: h}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Buffered reports whether the port defers hierarchy traffic.
func (p *Port) Buffered() bool {
	return p.buffered
}

// Read loads size bytes through the data path.
func (p *Port) Read(addr uint64, size int) []byte {
	if !p.buffered {
		res := p.hierarchy.Load(addr, size)
		p.account(res, true)
		return res.Data
	}

	p.pending = append(p.pending, access{kind: accessLoad, addr: addr, size: size})
	return p.overlay(addr, size)
}

// Write stores data through the data path.
func (p *Port) Write(addr uint64, data []byte) {
	if !p.buffered {
		p.account(p.hierarchy.Store(addr, data), true)
		return
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	p.pending = append(p.pending, access{kind: accessStore, addr: addr, size: len(buf), data: buf})
}

// FetchWord reads an instruction word through the fetch path.
func (p *Port) FetchWord(addr uint64) uint32 {
	if !p.buffered {
		word, res := p.hierarchy.FetchWord(addr)
		p.account(res, false)
		return word
	}

	p.pending = append(p.pending, access{kind: accessFetch, addr: addr, size: 4})
	return binary.LittleEndian.Uint32(p.overlay(addr, 4))
}

// overlay reads Main and applies this port's pending stores in order.
func (p *Port) overlay(addr uint64, size int) []byte {
	data := p.hierarchy.Read(Main, addr, size)
	end := addr + uint64(size)

	for _, a := range p.pending {
		if a.kind != accessStore {
			continue
		}
		aEnd := a.addr + uint64(a.size)
		if aEnd <= addr || a.addr >= end {
			continue
		}
		for i := range a.data {
			at := a.addr + uint64(i)
			if at >= addr && at < end {
				data[at-addr] = a.data[i]
			}
		}
	}

	return data
}

// Pending returns the number of deferred accesses.
func (p *Port) Pending() int {
	return len(p.pending)
}

// Commit replays deferred accesses on the hierarchy in program order and
// returns the statistics gathered since the previous Commit.
func (p *Port) Commit() PortStats {
	for _, a := range p.pending {
		switch a.kind {
		case accessFetch:
			_, res := p.hierarchy.FetchWord(a.addr)
			p.account(res, false)
		case accessLoad:
			p.account(p.hierarchy.Load(a.addr, a.size), true)
		case accessStore:
			p.account(p.hierarchy.Store(a.addr, a.data), true)
		}
	}
	p.pending = p.pending[:0]

	stats := p.stats
	p.stats = PortStats{}
	return stats
}

func (p *Port) account(res AccessResult, data bool) {
	if res.Hit {
		p.stats.Hits++
	} else {
		p.stats.Misses++
	}
	if data {
		p.stats.DataLatency += res.Latency
	} else {
		p.stats.FetchLatency += res.Latency
	}
}
