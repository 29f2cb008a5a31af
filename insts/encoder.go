package insts

import (
	"errors"
	"fmt"
)

// Encoder errors.
var (
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrOperandCount    = errors.New("wrong operand count")
	ErrOperandKind     = errors.New("wrong operand kind")
	ErrOperandRange    = errors.New("operand out of range")
)

// Encode assembles one instruction word from a mnemonic and its operands.
func Encode(mnemonic string, operands ...Operand) (uint32, error) {
	desc, ok := Lookup(mnemonic)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}
	return encode(desc, operands)
}

// EncodeOp assembles one instruction word for op.
func EncodeOp(op Op, operands ...Operand) (uint32, error) {
	desc := DescriptorOf(op)
	if desc == nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownMnemonic, op)
	}
	return encode(desc, operands)
}

// MustEncode is like Encode but panics on error. It is meant for tests and
// hand-written programs.
func MustEncode(mnemonic string, operands ...Operand) uint32 {
	word, err := Encode(mnemonic, operands...)
	if err != nil {
		panic(err)
	}
	return word
}

func encode(desc *Descriptor, ops []Operand) (uint32, error) {
	want := desc.Format.NumOperands()
	if len(ops) != want {
		return 0, fmt.Errorf("%w: %s takes %d, got %d",
			ErrOperandCount, desc.Mnemonic, want, len(ops))
	}

	word := uint32(desc.Opcode)

	switch desc.Format {
	case FormatNone:
	case FormatImm:
		v, err := field(desc, ops, 0, OperandImm, mask24)
		if err != nil {
			return 0, err
		}
		word |= v << 8
	case FormatRegImm:
		r, err := field(desc, ops, 0, OperandReg, mask8)
		if err != nil {
			return 0, err
		}
		v, err := field(desc, ops, 1, OperandImm, mask16)
		if err != nil {
			return 0, err
		}
		word |= r<<8 | v<<16
	case FormatRegReg, FormatRegRegReg, FormatRegRegImm:
		for i := 0; i < want; i++ {
			kind := OperandReg
			if desc.Format == FormatRegRegImm && i == 2 {
				kind = OperandImm
			}

			var (
				v   uint32
				err error
			)
			if i == 0 && desc.IsBranch() {
				v, err = offsetField(desc, ops[0])
			} else {
				v, err = field(desc, ops, i, kind, mask8)
			}
			if err != nil {
				return 0, err
			}
			word |= v << (8 * uint(i+1))
		}
	case FormatRegRegRegReg:
		var packed uint32
		for i := 0; i < 4; i++ {
			v, err := quadRegField(desc, ops, i)
			if err != nil {
				return 0, err
			}
			packed |= v << (6 * uint(i))
		}
		word |= packed << 8
	}

	return word, nil
}

func field(desc *Descriptor, ops []Operand, i int, kind OperandKind, limit uint32) (uint32, error) {
	op := ops[i]
	if op.Kind != kind {
		return 0, fmt.Errorf("%w: %s operand %d must be %v, got %v",
			ErrOperandKind, desc.Mnemonic, i, kind, op.Kind)
	}
	if op.Value > limit {
		return 0, fmt.Errorf("%w: %s operand %d = %d exceeds %d",
			ErrOperandRange, desc.Mnemonic, i, op.Value, limit)
	}
	return op.Value, nil
}

// quadRegField returns the index of a four-register operand within the
// namespace its slot requires.
func quadRegField(desc *Descriptor, ops []Operand, i int) (uint32, error) {
	v, err := field(desc, ops, i, OperandReg, mask8)
	if err != nil {
		return 0, err
	}

	lo, hi := uint32(0), uint32(FirstFloatReg-1)
	if desc.QuadRegBase(i) == FirstVectorReg {
		lo, hi = FirstVectorReg, LastVectorReg
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s operand %d = %s is not in %s..%s",
			ErrOperandRange, desc.Mnemonic, i, FormatRegister(uint8(v)),
			FormatRegister(uint8(lo)), FormatRegister(uint8(hi)))
	}

	return v - lo, nil
}

func offsetField(desc *Descriptor, op Operand) (uint32, error) {
	if op.Kind != OperandOffset {
		return 0, fmt.Errorf("%w: %s operand 0 must be %v, got %v",
			ErrOperandKind, desc.Mnemonic, OperandOffset, op.Kind)
	}
	off := op.Signed()
	if off < -128 || off > 127 {
		return 0, fmt.Errorf("%w: %s offset %d outside [-128, 127]",
			ErrOperandRange, desc.Mnemonic, off)
	}
	return uint32(uint8(int8(off))), nil
}
