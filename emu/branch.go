package emu

import "github.com/sarchlab/ahbsim/insts"

// BranchUnit evaluates AlphaAHB control flow. It never writes the program
// counter itself; it returns the redirect target and the core applies it.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Cond evaluates a conditional branch op on Rs1 and Rs2 compared as signed
// 32-bit integers.
func (b *BranchUnit) Cond(op insts.Op, rs1, rs2 uint8) bool {
	x := int32(b.regFile.ReadReg32(rs1))
	y := int32(b.regFile.ReadReg32(rs2))

	switch op {
	case insts.OpBEQ:
		return x == y
	case insts.OpBNE:
		return x != y
	case insts.OpBLT:
		return x < y
	case insts.OpBGT:
		return x > y
	case insts.OpBLE:
		return x <= y
	case insts.OpBGE:
		return x >= y
	default:
		return false
	}
}

// BranchTarget returns the target of a conditional branch at addr with a
// signed word offset.
func BranchTarget(addr uint32, offset int32) uint32 {
	return addr + 4 + uint32(offset)*4
}

// JumpTarget returns the absolute target of JMP and CALL.
func JumpTarget(imm uint32) uint32 {
	return imm * 4
}

// CALL saves the return address of the instruction at addr into the link
// register and returns the call target.
func (b *BranchUnit) CALL(addr, imm uint32) uint32 {
	b.regFile.WriteReg32(insts.Link, addr+4)
	return JumpTarget(imm)
}

// RET returns the address held in the link register.
func (b *BranchUnit) RET() uint32 {
	return b.regFile.ReadReg32(insts.Link)
}
