package insts

import (
	"fmt"
	"strings"
)

// Op represents an AlphaAHB operation. Op values are independent of the
// opcode byte that encodes them.
type Op uint16

// AlphaAHB operations.
const (
	OpUnknown Op = iota

	// Integer and logic
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpSHL
	OpSHR
	OpROL
	OpROR

	// Memory
	OpLD
	OpST
	OpLDI
	OpSTI
	OpLDF
	OpSTF

	// Control flow
	OpBEQ
	OpBNE
	OpBLT
	OpBGT
	OpBLE
	OpBGE
	OpJMP
	OpCALL
	OpRET

	// Floating point
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFABS
	OpFNEG
	OpFROUND
	OpFCEIL
	OpFFLOOR
	OpFTRUNC
	OpFMIN
	OpFMAX
	OpFCMP
	OpFCONVERT

	// Vector (512-bit)
	OpVADD
	OpVSUB
	OpVMUL
	OpVDIV
	OpVAND
	OpVOR
	OpVXOR
	OpVNOT
	OpVSHL
	OpVSHR
	OpVROL
	OpVROR
	OpVLD
	OpVST
	OpVPERMUTE
	OpVSHUFFLE
	OpVBLEND
	OpVSELECT
	OpVREDUCE
	OpVSCAN

	// AI/ML
	OpCONV2D
	OpCONV3D
	OpMAXPOOL
	OpAVGPOOL
	OpRELU
	OpSIGMOID
	OpTANH
	OpSOFTMAX
	OpLSTM
	OpGRU
	OpTRANSFORMER
	OpATTENTION
	OpMATMUL
	OpGEMM
	OpBATCHNORM
	OpLAYERNORM

	// MIMD
	OpSPAWN
	OpJOIN
	OpBARRIER
	OpREDUCE
	OpBROADCAST
	OpSCATTER
	OpGATHER
	OpALLREDUCE
	OpALLGATHER
	OpALLTOALL

	// Security
	OpAESEnc
	OpAESDec
	OpAESKeygen
	OpSHA256
	OpSHA512
	OpSHA3
	OpRSAEnc
	OpRSADec
	OpECCSign
	OpECCVerify
	OpSecureHash
	OpSecureRand

	// Scientific
	OpFFT
	OpIFFT
	OpDFT
	OpIDFT
	OpMatrixMul
	OpMatrixInv
	OpMatrixDet
	OpEIGEN
	OpSVD
	OpQR
	OpLU
	OpCHOLESKY
	OpSIN
	OpCOS
	OpTAN
	OpEXP
	OpLOG
	OpPOW

	// Real-time
	OpRTSetPriority
	OpRTSetDeadline
	OpRTWait
	OpRTSignal
	OpRTTimer
	OpRTSchedule

	// Debug and profiling
	OpProfileStart
	OpProfileStop
	OpProfileRead
	OpBREAKPOINT
	OpTraceStart
	OpTraceStop
	OpTraceRead
	OpPerfCounter

	// System
	OpSYSCALL
	OpHALT
	OpNOP
	OpINT
	OpIRET
	OpTRAP

	numOps
)

// Format represents an operand encoding format.
type Format uint8

// Operand formats.
const (
	FormatNone         Format = iota // no operands
	FormatImm                        // imm24
	FormatRegImm                     // reg8, imm16
	FormatRegReg                     // reg8, reg8
	FormatRegRegReg                  // reg8, reg8, reg8
	FormatRegRegImm                  // reg8, reg8, imm8
	FormatRegRegRegReg               // reg6, reg6, reg6, reg6
)

var formatNames = [...]string{
	FormatNone:         "None",
	FormatImm:          "Imm",
	FormatRegImm:       "RegImm",
	FormatRegReg:       "RegReg",
	FormatRegRegReg:    "RegRegReg",
	FormatRegRegImm:    "RegRegImm",
	FormatRegRegRegReg: "RegRegRegReg",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// NumOperands returns how many operand fields the format carries.
func (f Format) NumOperands() int {
	switch f {
	case FormatImm:
		return 1
	case FormatRegImm, FormatRegReg:
		return 2
	case FormatRegRegReg, FormatRegRegImm:
		return 3
	case FormatRegRegRegReg:
		return 4
	default:
		return 0
	}
}

// Class groups opcodes by functional unit.
type Class uint8

// Instruction classes.
const (
	ClassBasic Class = iota
	ClassFloatingPoint
	ClassVector
	ClassAIML
	ClassMIMD
	ClassSecurity
	ClassScientific
	ClassRealTime
	ClassDebug
	ClassSystem
)

var classNames = [...]string{
	ClassBasic:         "basic",
	ClassFloatingPoint: "floating_point",
	ClassVector:        "vector",
	ClassAIML:          "ai_ml",
	ClassMIMD:          "mimd",
	ClassSecurity:      "security",
	ClassScientific:    "scientific",
	ClassRealTime:      "real_time",
	ClassDebug:         "debug",
	ClassSystem:        "system",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Descriptor is the static metadata of one opcode value.
type Descriptor struct {
	Opcode     uint8
	Op         Op
	Mnemonic   string
	Format     Format
	Class      Class
	BaseCycles uint32

	// Extension is true for opcodes that only exist on the heterogeneous
	// multicore target.
	Extension bool
}

// IsBranch reports whether operand 0 of the descriptor is a signed word
// offset rather than a register.
func (d *Descriptor) IsBranch() bool {
	switch d.Op {
	case OpBEQ, OpBNE, OpBLT, OpBGT, OpBLE, OpBGE:
		return true
	}
	return false
}

// QuadRegBase returns the register namespace base of operand i of a
// four-register instruction. The 6-bit field holds the index within that
// namespace. Vector and AI operands live in the vector bank, except the
// scalar mask of VSELECT.
func (d *Descriptor) QuadRegBase(i int) uint8 {
	switch {
	case d.Op == OpVSELECT && i == 3:
		return 0
	case d.Class == ClassVector, d.Class == ClassAIML:
		return FirstVectorReg
	}
	return 0
}

// IsUnknown reports whether d is the sentinel for an unassigned opcode.
func (d *Descriptor) IsUnknown() bool {
	return d.Op == OpUnknown
}

type def struct {
	opcode uint8
	op     Op
	name   string
	format Format
	class  Class
	cycles uint32
	ext    bool
}

// defs lists every assigned opcode. Encodings follow the AlphaAHB V5
// assembler; cycle costs follow the simulator's published latencies.
var defs = []def{
	{0x00, OpADD, "ADD", FormatRegRegReg, ClassBasic, 1, false},
	{0x01, OpSUB, "SUB", FormatRegRegReg, ClassBasic, 1, false},
	{0x02, OpMUL, "MUL", FormatRegRegReg, ClassBasic, 3, false},
	{0x03, OpDIV, "DIV", FormatRegRegReg, ClassBasic, 10, false},
	{0x04, OpAND, "AND", FormatRegRegReg, ClassBasic, 1, false},
	{0x05, OpOR, "OR", FormatRegRegReg, ClassBasic, 1, false},
	{0x06, OpXOR, "XOR", FormatRegRegReg, ClassBasic, 1, false},
	{0x07, OpNOT, "NOT", FormatRegReg, ClassBasic, 1, false},
	{0x08, OpSHL, "SHL", FormatRegRegReg, ClassBasic, 1, false},
	{0x09, OpSHR, "SHR", FormatRegRegReg, ClassBasic, 1, false},
	{0x0A, OpROL, "ROL", FormatRegRegReg, ClassBasic, 1, false},
	{0x0B, OpROR, "ROR", FormatRegRegReg, ClassBasic, 1, false},

	{0x10, OpLD, "LD", FormatRegReg, ClassBasic, 2, false},
	{0x11, OpST, "ST", FormatRegReg, ClassBasic, 2, false},
	{0x12, OpLDI, "LDI", FormatRegImm, ClassBasic, 1, false},
	{0x13, OpSTI, "STI", FormatRegImm, ClassBasic, 1, false},
	{0x14, OpLDF, "LDF", FormatRegReg, ClassBasic, 2, false},
	{0x15, OpSTF, "STF", FormatRegReg, ClassBasic, 2, false},

	{0x20, OpBEQ, "BEQ", FormatRegRegReg, ClassBasic, 1, false},
	{0x21, OpBNE, "BNE", FormatRegRegReg, ClassBasic, 1, false},
	{0x22, OpBLT, "BLT", FormatRegRegReg, ClassBasic, 1, false},
	{0x23, OpBGT, "BGT", FormatRegRegReg, ClassBasic, 1, false},
	{0x24, OpBLE, "BLE", FormatRegRegReg, ClassBasic, 1, false},
	{0x25, OpBGE, "BGE", FormatRegRegReg, ClassBasic, 1, false},
	{0x26, OpJMP, "JMP", FormatImm, ClassBasic, 1, false},
	{0x27, OpCALL, "CALL", FormatImm, ClassBasic, 1, false},
	{0x28, OpRET, "RET", FormatNone, ClassBasic, 1, false},

	{0x30, OpFADD, "FADD", FormatRegRegReg, ClassFloatingPoint, 3, false},
	{0x31, OpFSUB, "FSUB", FormatRegRegReg, ClassFloatingPoint, 3, false},
	{0x32, OpFMUL, "FMUL", FormatRegRegReg, ClassFloatingPoint, 4, false},
	{0x33, OpFDIV, "FDIV", FormatRegRegReg, ClassFloatingPoint, 12, false},
	{0x34, OpFSQRT, "FSQRT", FormatRegReg, ClassFloatingPoint, 8, false},
	{0x35, OpFABS, "FABS", FormatRegReg, ClassFloatingPoint, 1, false},
	{0x36, OpFNEG, "FNEG", FormatRegReg, ClassFloatingPoint, 1, false},
	{0x37, OpFROUND, "FROUND", FormatRegReg, ClassFloatingPoint, 2, false},
	{0x38, OpFCEIL, "FCEIL", FormatRegReg, ClassFloatingPoint, 2, false},
	{0x39, OpFFLOOR, "FFLOOR", FormatRegReg, ClassFloatingPoint, 2, false},
	{0x3A, OpFTRUNC, "FTRUNC", FormatRegReg, ClassFloatingPoint, 2, false},
	{0x3B, OpFMIN, "FMIN", FormatRegRegReg, ClassFloatingPoint, 2, false},
	{0x3C, OpFMAX, "FMAX", FormatRegRegReg, ClassFloatingPoint, 2, false},
	{0x3D, OpFCMP, "FCMP", FormatRegRegReg, ClassFloatingPoint, 2, false},
	{0x3E, OpFCONVERT, "FCONVERT", FormatRegReg, ClassFloatingPoint, 3, false},

	{0x40, OpVADD, "VADD", FormatRegRegReg, ClassVector, 2, true},
	{0x41, OpVSUB, "VSUB", FormatRegRegReg, ClassVector, 2, true},
	{0x42, OpVMUL, "VMUL", FormatRegRegReg, ClassVector, 4, true},
	{0x43, OpVDIV, "VDIV", FormatRegRegReg, ClassVector, 8, true},
	{0x44, OpVAND, "VAND", FormatRegRegReg, ClassVector, 2, true},
	{0x45, OpVOR, "VOR", FormatRegRegReg, ClassVector, 2, true},
	{0x46, OpVXOR, "VXOR", FormatRegRegReg, ClassVector, 2, true},
	{0x47, OpVNOT, "VNOT", FormatRegReg, ClassVector, 2, true},
	{0x48, OpVSHL, "VSHL", FormatRegRegReg, ClassVector, 2, true},
	{0x49, OpVSHR, "VSHR", FormatRegRegReg, ClassVector, 2, true},
	{0x4A, OpVROL, "VROL", FormatRegRegReg, ClassVector, 2, true},
	{0x4B, OpVROR, "VROR", FormatRegRegReg, ClassVector, 2, true},
	{0x4C, OpVLD, "VLD", FormatRegReg, ClassVector, 3, true},
	{0x4D, OpVST, "VST", FormatRegReg, ClassVector, 3, true},
	{0x4E, OpVPERMUTE, "VPERMUTE", FormatRegRegReg, ClassVector, 3, true},
	{0x4F, OpVSHUFFLE, "VSHUFFLE", FormatRegRegReg, ClassVector, 3, true},
	{0x50, OpVBLEND, "VBLEND", FormatRegRegRegReg, ClassVector, 3, true},
	{0x51, OpVSELECT, "VSELECT", FormatRegRegRegReg, ClassVector, 3, true},
	{0x52, OpVREDUCE, "VREDUCE", FormatRegReg, ClassVector, 4, true},
	{0x53, OpVSCAN, "VSCAN", FormatRegReg, ClassVector, 4, true},

	{0x60, OpCONV2D, "CONV2D", FormatRegRegRegReg, ClassAIML, 16, true},
	{0x61, OpCONV3D, "CONV3D", FormatRegRegRegReg, ClassAIML, 24, true},
	{0x62, OpMAXPOOL, "MAXPOOL", FormatRegRegImm, ClassAIML, 8, true},
	{0x63, OpAVGPOOL, "AVGPOOL", FormatRegRegImm, ClassAIML, 8, true},
	{0x64, OpRELU, "RELU", FormatRegReg, ClassAIML, 2, true},
	{0x65, OpSIGMOID, "SIGMOID", FormatRegReg, ClassAIML, 6, true},
	{0x66, OpTANH, "TANH", FormatRegReg, ClassAIML, 6, true},
	{0x67, OpSOFTMAX, "SOFTMAX", FormatRegReg, ClassAIML, 8, true},
	{0x68, OpLSTM, "LSTM", FormatRegRegRegReg, ClassAIML, 32, true},
	{0x69, OpGRU, "GRU", FormatRegRegRegReg, ClassAIML, 28, true},
	{0x6A, OpTRANSFORMER, "TRANSFORMER", FormatRegRegRegReg, ClassAIML, 64, true},
	{0x6B, OpATTENTION, "ATTENTION", FormatRegRegRegReg, ClassAIML, 48, true},
	{0x6C, OpMATMUL, "MATMUL", FormatRegRegReg, ClassAIML, 12, true},
	{0x6D, OpGEMM, "GEMM", FormatRegRegRegReg, ClassAIML, 14, true},
	{0x6E, OpBATCHNORM, "BATCHNORM", FormatRegRegReg, ClassAIML, 10, true},
	{0x6F, OpLAYERNORM, "LAYERNORM", FormatRegRegReg, ClassAIML, 10, true},

	{0x70, OpSPAWN, "SPAWN", FormatRegReg, ClassMIMD, 5, true},
	{0x71, OpJOIN, "JOIN", FormatImm, ClassMIMD, 3, true},
	{0x72, OpBARRIER, "BARRIER", FormatImm, ClassMIMD, 2, true},
	{0x73, OpREDUCE, "REDUCE", FormatRegRegReg, ClassMIMD, 8, true},
	{0x74, OpBROADCAST, "BROADCAST", FormatRegReg, ClassMIMD, 4, true},
	{0x75, OpSCATTER, "SCATTER", FormatRegRegReg, ClassMIMD, 6, true},
	{0x76, OpGATHER, "GATHER", FormatRegRegReg, ClassMIMD, 6, true},
	{0x77, OpALLREDUCE, "ALLREDUCE", FormatRegReg, ClassMIMD, 10, true},
	{0x78, OpALLGATHER, "ALLGATHER", FormatRegReg, ClassMIMD, 10, true},
	{0x79, OpALLTOALL, "ALLTOALL", FormatRegReg, ClassMIMD, 12, true},

	{0x80, OpAESEnc, "AES_ENC", FormatRegRegReg, ClassSecurity, 12, true},
	{0x81, OpAESDec, "AES_DEC", FormatRegRegReg, ClassSecurity, 12, true},
	{0x82, OpAESKeygen, "AES_KEYGEN", FormatRegReg, ClassSecurity, 10, true},
	{0x83, OpSHA256, "SHA256", FormatRegReg, ClassSecurity, 16, true},
	{0x84, OpSHA512, "SHA512", FormatRegReg, ClassSecurity, 20, true},
	{0x85, OpSHA3, "SHA3", FormatRegReg, ClassSecurity, 18, true},
	{0x86, OpRSAEnc, "RSA_ENC", FormatRegRegReg, ClassSecurity, 64, true},
	{0x87, OpRSADec, "RSA_DEC", FormatRegRegReg, ClassSecurity, 64, true},
	{0x88, OpECCSign, "ECC_SIGN", FormatRegRegReg, ClassSecurity, 48, true},
	{0x89, OpECCVerify, "ECC_VERIFY", FormatRegRegReg, ClassSecurity, 48, true},
	{0x8A, OpSecureHash, "SECURE_HASH", FormatRegReg, ClassSecurity, 16, true},
	{0x8B, OpSecureRand, "SECURE_RAND", FormatRegImm, ClassSecurity, 8, true},

	{0x90, OpFFT, "FFT", FormatRegReg, ClassScientific, 20, true},
	{0x91, OpIFFT, "IFFT", FormatRegReg, ClassScientific, 20, true},
	{0x92, OpDFT, "DFT", FormatRegReg, ClassScientific, 40, true},
	{0x93, OpIDFT, "IDFT", FormatRegReg, ClassScientific, 40, true},
	{0x94, OpMatrixMul, "MATRIX_MUL", FormatRegRegReg, ClassScientific, 24, true},
	{0x95, OpMatrixInv, "MATRIX_INV", FormatRegReg, ClassScientific, 32, true},
	{0x96, OpMatrixDet, "MATRIX_DET", FormatRegReg, ClassScientific, 24, true},
	{0x97, OpEIGEN, "EIGEN", FormatRegReg, ClassScientific, 64, true},
	{0x98, OpSVD, "SVD", FormatRegReg, ClassScientific, 64, true},
	{0x99, OpQR, "QR", FormatRegReg, ClassScientific, 48, true},
	{0x9A, OpLU, "LU", FormatRegReg, ClassScientific, 40, true},
	{0x9B, OpCHOLESKY, "CHOLESKY", FormatRegReg, ClassScientific, 40, true},
	{0x9C, OpSIN, "SIN", FormatRegReg, ClassScientific, 10, true},
	{0x9D, OpCOS, "COS", FormatRegReg, ClassScientific, 10, true},
	{0x9E, OpTAN, "TAN", FormatRegReg, ClassScientific, 12, true},
	{0x9F, OpEXP, "EXP", FormatRegReg, ClassScientific, 10, true},
	{0xA0, OpLOG, "LOG", FormatRegReg, ClassScientific, 10, true},
	{0xA1, OpPOW, "POW", FormatRegRegReg, ClassScientific, 14, true},

	{0xB0, OpRTSetPriority, "RT_SET_PRIORITY", FormatRegImm, ClassRealTime, 2, true},
	{0xB1, OpRTSetDeadline, "RT_SET_DEADLINE", FormatRegImm, ClassRealTime, 2, true},
	{0xB2, OpRTWait, "RT_WAIT", FormatImm, ClassRealTime, 4, true},
	{0xB3, OpRTSignal, "RT_SIGNAL", FormatImm, ClassRealTime, 2, true},
	{0xB4, OpRTTimer, "RT_TIMER", FormatRegImm, ClassRealTime, 2, true},
	{0xB5, OpRTSchedule, "RT_SCHEDULE", FormatImm, ClassRealTime, 4, true},

	{0xC0, OpProfileStart, "PROFILE_START", FormatImm, ClassDebug, 1, true},
	{0xC1, OpProfileStop, "PROFILE_STOP", FormatImm, ClassDebug, 1, true},
	{0xC2, OpProfileRead, "PROFILE_READ", FormatRegImm, ClassDebug, 1, true},
	{0xC3, OpBREAKPOINT, "BREAKPOINT", FormatImm, ClassDebug, 1, true},
	{0xC4, OpTraceStart, "TRACE_START", FormatNone, ClassDebug, 1, true},
	{0xC5, OpTraceStop, "TRACE_STOP", FormatNone, ClassDebug, 1, true},
	{0xC6, OpTraceRead, "TRACE_READ", FormatRegImm, ClassDebug, 1, true},
	{0xC7, OpPerfCounter, "PERF_COUNTER", FormatRegImm, ClassDebug, 1, true},

	{0xF0, OpSYSCALL, "SYSCALL", FormatNone, ClassSystem, 10, false},
	{0xF1, OpHALT, "HALT", FormatNone, ClassSystem, 1, false},
	{0xF2, OpNOP, "NOP", FormatNone, ClassSystem, 1, false},
	{0xF3, OpINT, "INT", FormatImm, ClassSystem, 10, false},
	{0xF4, OpIRET, "IRET", FormatNone, ClassSystem, 4, false},
	{0xF5, OpTRAP, "TRAP", FormatImm, ClassSystem, 10, false},
}

var (
	table      [256]Descriptor
	byOp       [numOps]*Descriptor
	byMnemonic map[string]*Descriptor
)

func init() {
	for i := range table {
		table[i] = unknownDescriptor(uint8(i))
	}

	byMnemonic = make(map[string]*Descriptor, len(defs))
	for _, d := range defs {
		if !table[d.opcode].IsUnknown() {
			panic(fmt.Sprintf("insts: opcode 0x%02X assigned twice", d.opcode))
		}
		table[d.opcode] = Descriptor{
			Opcode:     d.opcode,
			Op:         d.op,
			Mnemonic:   d.name,
			Format:     d.format,
			Class:      d.class,
			BaseCycles: d.cycles,
			Extension:  d.ext,
		}
		byOp[d.op] = &table[d.opcode]
		byMnemonic[d.name] = &table[d.opcode]
	}
}

func unknownDescriptor(opcode uint8) Descriptor {
	return Descriptor{
		Opcode:     opcode,
		Op:         OpUnknown,
		Mnemonic:   fmt.Sprintf("UNKNOWN_%02X", opcode),
		Format:     FormatNone,
		Class:      ClassBasic,
		BaseCycles: 1,
	}
}

// DescriptorFor returns the descriptor of an opcode byte. Unassigned opcodes
// return the unknown sentinel. The returned descriptor must not be modified.
func DescriptorFor(opcode uint8) *Descriptor {
	return &table[opcode]
}

// Lookup finds a descriptor by mnemonic, ignoring case.
func Lookup(mnemonic string) (*Descriptor, bool) {
	d, ok := byMnemonic[strings.ToUpper(mnemonic)]
	return d, ok
}

// DescriptorOf returns the descriptor that encodes op, or nil for OpUnknown.
func DescriptorOf(op Op) *Descriptor {
	if op >= numOps {
		return nil
	}
	return byOp[op]
}

// Descriptors returns all assigned descriptors in opcode order.
func Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(defs))
	for i := range table {
		if !table[i].IsUnknown() {
			out = append(out, &table[i])
		}
	}
	return out
}

func (op Op) String() string {
	if d := DescriptorOf(op); d != nil {
		return d.Mnemonic
	}
	return "UNKNOWN"
}
