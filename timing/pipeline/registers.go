package pipeline

import "github.com/sarchlab/ahbsim/insts"

// Slot is the pipeline register in front of one stage.
type Slot struct {
	// Valid indicates if this slot holds an instruction.
	Valid bool

	// Inst is the decoded instruction.
	Inst *insts.Instruction
}

// Clear resets the slot to an empty state.
func (s *Slot) Clear() {
	s.Valid = false
	s.Inst = nil
}

// Set places inst in the slot.
func (s *Slot) Set(inst *insts.Instruction) {
	s.Valid = true
	s.Inst = inst
}
