package insts

// Field masks for operand extraction.
const (
	mask6  = 0x3F
	mask8  = 0xFF
	mask16 = 0xFFFF
	mask24 = 0xFFFFFF
)

// Decoder decodes AlphaAHB machine words into instructions.
type Decoder struct {
	baseOnly bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithBaseISAOnly makes the decoder treat extension opcodes as unknown.
// The single-core target is built with this option.
func WithBaseISAOnly() DecoderOption {
	return func(d *Decoder) {
		d.baseOnly = true
	}
}

// NewDecoder creates a new instruction decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BaseISAOnly reports whether the decoder rejects extension opcodes.
func (d *Decoder) BaseISAOnly() bool {
	return d.baseOnly
}

var defaultDecoder = NewDecoder()

// Decode decodes a word with the full instruction set.
func Decode(word uint32) *Instruction {
	return defaultDecoder.Decode(word)
}

// Decode decodes a 32-bit instruction word. It never fails: opcodes without
// a descriptor decode as the unknown sentinel with no operands.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{}
	d.DecodeInto(word, inst)
	return inst
}

// DecodeInto decodes word into inst, overwriting every field except Address.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) {
	addr := inst.Address
	*inst = Instruction{Address: addr, Word: word}

	opcode := uint8(word & mask8)
	desc := DescriptorFor(opcode)
	if d.baseOnly && desc.Extension {
		desc = &unknown[opcode]
	}

	inst.Opcode = opcode
	inst.Op = desc.Op
	inst.Desc = desc
	inst.NumOperands = desc.Format.NumOperands()
	inst.RemainingCycles = desc.BaseCycles

	b1 := (word >> 8) & mask8
	b2 := (word >> 16) & mask8
	b3 := (word >> 24) & mask8

	switch desc.Format {
	case FormatImm:
		inst.Operands[0] = Imm((word >> 8) & mask24)
	case FormatRegImm:
		inst.Operands[0] = Reg(uint8(b1))
		inst.Operands[1] = Imm((word >> 16) & mask16)
	case FormatRegReg:
		inst.Operands[0] = Reg(uint8(b1))
		inst.Operands[1] = Reg(uint8(b2))
	case FormatRegRegReg:
		if desc.IsBranch() {
			inst.Operands[0] = Offset(int32(int8(b1)))
		} else {
			inst.Operands[0] = Reg(uint8(b1))
		}
		inst.Operands[1] = Reg(uint8(b2))
		inst.Operands[2] = Reg(uint8(b3))
	case FormatRegRegImm:
		inst.Operands[0] = Reg(uint8(b1))
		inst.Operands[1] = Reg(uint8(b2))
		inst.Operands[2] = Imm(b3)
	case FormatRegRegRegReg:
		packed := (word >> 8) & mask24
		for i := 0; i < 4; i++ {
			n := uint8((packed >> (6 * i)) & mask6)
			inst.Operands[i] = Reg(desc.QuadRegBase(i) + n)
		}
	}
}

// unknown holds the sentinel descriptor of every opcode value.
var unknown [256]Descriptor

func init() {
	for i := range unknown {
		unknown[i] = unknownDescriptor(uint8(i))
	}
}
