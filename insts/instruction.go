package insts

import (
	"fmt"
	"strings"
)

// OperandKind tells how an operand field is interpreted.
type OperandKind uint8

// Operand kinds.
const (
	OperandReg    OperandKind = iota // register number
	OperandImm                       // unsigned immediate
	OperandOffset                    // signed word offset (conditional branches)
)

func (k OperandKind) String() string {
	switch k {
	case OperandReg:
		return "reg"
	case OperandImm:
		return "imm"
	case OperandOffset:
		return "offset"
	default:
		return fmt.Sprintf("OperandKind(%d)", uint8(k))
	}
}

// Operand is one decoded operand field.
type Operand struct {
	Kind OperandKind

	// Value holds the register number, the immediate, or the two's
	// complement bits of a signed offset.
	Value uint32
}

// Reg returns a register operand.
func Reg(n uint8) Operand {
	return Operand{Kind: OperandReg, Value: uint32(n)}
}

// Imm returns an immediate operand.
func Imm(v uint32) Operand {
	return Operand{Kind: OperandImm, Value: v}
}

// Offset returns a signed word-offset operand.
func Offset(words int32) Operand {
	return Operand{Kind: OperandOffset, Value: uint32(words)}
}

// Signed interprets the operand value as a signed 32-bit integer.
func (o Operand) Signed() int32 {
	return int32(o.Value)
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return FormatRegister(uint8(o.Value))
	case OperandOffset:
		return fmt.Sprintf("%+d", o.Signed())
	default:
		return fmt.Sprintf("#%d", o.Value)
	}
}

// Instruction represents a decoded AlphaAHB instruction.
type Instruction struct {
	Address uint32 // Fetch address
	Word    uint32 // Raw instruction word
	Opcode  uint8  // Low byte of Word

	Op   Op          // Operation
	Desc *Descriptor // Opcode metadata, never nil after decoding

	Operands    [4]Operand
	NumOperands int

	// RemainingCycles counts down while the instruction occupies the
	// Execute stage in execute-stall mode.
	RemainingCycles uint32
}

// Reg returns operand i as a register number.
func (inst *Instruction) Reg(i int) uint8 {
	return uint8(inst.Operands[i].Value)
}

// ImmValue returns operand i as an unsigned immediate.
func (inst *Instruction) ImmValue(i int) uint32 {
	return inst.Operands[i].Value
}

// BaseCycles returns the opcode's fixed cycle cost.
func (inst *Instruction) BaseCycles() uint32 {
	if inst.Desc == nil {
		return 1
	}
	return inst.Desc.BaseCycles
}

// String formats the instruction as "MNEMONIC op0, op1, ...".
func (inst *Instruction) String() string {
	name := "UNKNOWN"
	if inst.Desc != nil {
		name = inst.Desc.Mnemonic
	}
	if inst.NumOperands == 0 {
		return name
	}

	parts := make([]string, inst.NumOperands)
	for i := 0; i < inst.NumOperands; i++ {
		parts[i] = inst.Operands[i].String()
	}
	return name + " " + strings.Join(parts, ", ")
}
