package emu

import "math/bits"

// ALU implements AlphaAHB 32-bit integer and logic operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func (a *ALU) binary(rd, rs1, rs2 uint8, f func(x, y uint32) uint32) {
	x := a.regFile.ReadReg32(rs1)
	y := a.regFile.ReadReg32(rs2)
	a.regFile.WriteReg32(rd, f(x, y))
}

// ADD performs Rd = Rs1 + Rs2 (mod 2^32).
func (a *ALU) ADD(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x + y })
}

// SUB performs Rd = Rs1 - Rs2 (mod 2^32).
func (a *ALU) SUB(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x - y })
}

// MUL performs Rd = Rs1 * Rs2 (low 32 bits).
func (a *ALU) MUL(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x * y })
}

// DIV performs unsigned Rd = Rs1 / Rs2. Division by zero leaves Rd unchanged.
func (a *ALU) DIV(rd, rs1, rs2 uint8) {
	y := a.regFile.ReadReg32(rs2)
	if y == 0 {
		return
	}
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)/y)
}

// AND performs Rd = Rs1 & Rs2.
func (a *ALU) AND(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x & y })
}

// OR performs Rd = Rs1 | Rs2.
func (a *ALU) OR(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x | y })
}

// XOR performs Rd = Rs1 ^ Rs2.
func (a *ALU) XOR(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x ^ y })
}

// NOT performs Rd = ^Rs.
func (a *ALU) NOT(rd, rs uint8) {
	a.regFile.WriteReg32(rd, ^a.regFile.ReadReg32(rs))
}

// SHL performs Rd = Rs1 << (Rs2 & 31).
func (a *ALU) SHL(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x << (y & 31) })
}

// SHR performs the logical shift Rd = Rs1 >> (Rs2 & 31).
func (a *ALU) SHR(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 { return x >> (y & 31) })
}

// ROL rotates Rs1 left by Rs2 & 31.
func (a *ALU) ROL(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 {
		return bits.RotateLeft32(x, int(y&31))
	})
}

// ROR rotates Rs1 right by Rs2 & 31.
func (a *ALU) ROR(rd, rs1, rs2 uint8) {
	a.binary(rd, rs1, rs2, func(x, y uint32) uint32 {
		return bits.RotateLeft32(x, -int(y&31))
	})
}

// LDI loads a zero-extended immediate: Rd = imm.
func (a *ALU) LDI(rd uint8, imm uint32) {
	a.regFile.WriteReg32(rd, imm)
}
