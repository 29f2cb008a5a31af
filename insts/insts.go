// Package insts provides AlphaAHB instruction definitions, decoding and encoding.
//
// The opcode table in this package is the single source of truth shared by
// the simulator, the assembler back end and the disassembler. Every
// instruction is one little-endian 32-bit word: the low byte is the opcode
// and the remaining three bytes carry operand fields whose layout is
// selected by the descriptor's Format.
//
// Usage:
//
//	word, _ := insts.Encode("ADD", insts.Reg(0), insts.Reg(1), insts.Reg(2))
//	inst := insts.Decode(word)
//	fmt.Println(inst) // ADD R0, R1, R2
package insts
