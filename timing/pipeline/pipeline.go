package pipeline

import "github.com/sarchlab/ahbsim/insts"

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the number of Advance calls.
	Cycles uint64
	// Entered is the number of instructions that reached Execute.
	Entered uint64
	// Retired is the number of instructions that left Commit.
	Retired uint64
	// Squashed is the number of instructions removed by flushes.
	Squashed uint64
	// Flushes is the number of Flush calls.
	Flushes uint64
	// Stalls is the number of cycles Execute held younger slots.
	Stalls uint64
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Retired)
}

// AdvanceResult describes what moved during one Advance.
type AdvanceResult struct {
	// Entered is the instruction that just moved into Execute, if any.
	Entered *insts.Instruction
	// Retired is the instruction that just left Commit, if any.
	Retired *insts.Instruction
	// Stalled is true when a multi-cycle instruction held Execute.
	Stalled bool
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithExecuteStalls makes an instruction hold Execute for its full cycle
// cost, blocking the younger stages meanwhile.
func WithExecuteStalls() PipelineOption {
	return func(p *Pipeline) {
		p.executeStalls = true
	}
}

// Pipeline is an in-order pipeline with one slot per stage:
// Fetch -> Decode -> Rename -> Dispatch -> Issue -> Execute -> Writeback -> Commit.
// Every Advance moves each occupied slot one stage toward Commit.
type Pipeline struct {
	slots [StageCount]Slot

	executeStalls bool

	stats Statistics
}

// NewPipeline creates an empty pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExecuteStalls reports whether execute-stall mode is enabled.
func (p *Pipeline) ExecuteStalls() bool {
	return p.executeStalls
}

// Slot returns a copy of the slot in front of stage s.
func (p *Pipeline) Slot(s Stage) Slot {
	return p.slots[s]
}

// Empty reports whether stage s holds no instruction.
func (p *Pipeline) Empty(s Stage) bool {
	return !p.slots[s].Valid
}

// Occupancy returns the number of occupied slots.
func (p *Pipeline) Occupancy() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Valid {
			n++
		}
	}
	return n
}

// Insert places inst in the Fetch slot. It returns false if the slot is
// occupied.
func (p *Pipeline) Insert(inst *insts.Instruction) bool {
	if p.slots[StageFetch].Valid {
		return false
	}
	p.slots[StageFetch].Set(inst)
	return true
}

// Advance moves every occupied slot one stage toward Commit. The slot that
// leaves Commit retires.
//
// In execute-stall mode an instruction in Execute with more than one cycle
// left counts down instead; only Writeback and Commit advance that cycle.
func (p *Pipeline) Advance() AdvanceResult {
	p.stats.Cycles++

	var res AdvanceResult
	if p.slots[StageCommit].Valid {
		res.Retired = p.slots[StageCommit].Inst
		p.stats.Retired++
	}

	exec := &p.slots[StageExecute]
	if p.executeStalls && exec.Valid && exec.Inst.RemainingCycles > 1 {
		exec.Inst.RemainingCycles--
		p.slots[StageCommit] = p.slots[StageWriteback]
		p.slots[StageWriteback].Clear()
		p.stats.Stalls++
		res.Stalled = true
		return res
	}

	for s := StageCommit; s > StageFetch; s-- {
		p.slots[s] = p.slots[s-1]
	}
	p.slots[StageFetch].Clear()

	if exec.Valid {
		res.Entered = exec.Inst
		p.stats.Entered++
	}

	return res
}

// Flush squashes every instruction younger than Execute. It returns the
// number of squashed instructions.
func (p *Pipeline) Flush() int {
	n := 0
	for s := StageFetch; s < StageExecute; s++ {
		if p.slots[s].Valid {
			n++
		}
		p.slots[s].Clear()
	}

	p.stats.Squashed += uint64(n)
	p.stats.Flushes++
	return n
}

// Drain retires every instruction at or beyond Execute at once and empties
// the pipeline. Younger slots must have been flushed. It returns the number
// of retired instructions.
func (p *Pipeline) Drain() int {
	n := 0
	for s := StageExecute; s <= StageCommit; s++ {
		if p.slots[s].Valid {
			n++
		}
		p.slots[s].Clear()
	}
	p.stats.Retired += uint64(n)
	return n
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Reset empties every slot and clears statistics.
func (p *Pipeline) Reset() {
	for i := range p.slots {
		p.slots[i].Clear()
	}
	p.stats = Statistics{}
}
