// Package latency provides the instruction cycle costs used by the timing
// model. Costs come from the opcode table unless a mnemonic is overridden.
package latency

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ahbsim/insts"
)

// ErrInvalidOverride is returned for overrides of unknown mnemonics or of
// zero cycles.
var ErrInvalidOverride = errors.New("invalid cycle override")

// Table provides instruction cycle cost lookups.
type Table struct {
	overrides map[uint8]uint32
}

// NewTable creates a table that uses the opcode table costs.
func NewTable() *Table {
	return &Table{overrides: map[uint8]uint32{}}
}

// NewTableWithOverrides creates a table whose costs are replaced for the
// given mnemonics.
func NewTableWithOverrides(overrides map[string]uint32) (*Table, error) {
	t := NewTable()
	for mnemonic, cycles := range overrides {
		desc, ok := insts.Lookup(mnemonic)
		if !ok {
			return nil, fmt.Errorf("%w: unknown mnemonic %q", ErrInvalidOverride, mnemonic)
		}
		if cycles == 0 {
			return nil, fmt.Errorf("%w: %s must cost at least one cycle", ErrInvalidOverride, desc.Mnemonic)
		}
		t.overrides[desc.Opcode] = cycles
	}
	return t, nil
}

// Cycles returns the cycle cost of inst.
func (t *Table) Cycles(inst *insts.Instruction) uint32 {
	if inst == nil {
		return 1
	}
	if c, ok := t.overrides[inst.Opcode]; ok && inst.Op != insts.OpUnknown {
		return c
	}
	return inst.BaseCycles()
}
