package emu

import (
	"github.com/sarchlab/ahbsim/insts"
)

// Outcome reports the control-flow effect of one executed instruction.
type Outcome struct {
	// Redirect is true when the next fetch must come from Target.
	Redirect bool
	Target   uint32

	// Halt is true when the instruction stops the core.
	Halt bool

	// Branch is true for conditional branches; Taken tells the direction.
	Branch bool
	Taken  bool
}

// Emulator executes decoded AlphaAHB instructions against one core's
// register file and memory.
type Emulator struct {
	regFile  *RegFile
	memory   Memory
	counters PerfCounters

	// Execution units
	alu        *ALU
	fpu        *FPU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	vector     *VectorUnit
	ai         *AIUnit
	system     *SystemUnit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithPerfCounters sets the counters PROFILE_*, RT_TIMER and PERF_COUNTER
// read. Without it every counter reads as zero.
func WithPerfCounters(counters PerfCounters) EmulatorOption {
	return func(e *Emulator) {
		e.counters = counters
	}
}

// NewEmulator creates an emulator bound to a register file and memory.
func NewEmulator(regFile *RegFile, memory Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:  regFile,
		memory:   memory,
		counters: zeroCounters{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(regFile)
	e.fpu = NewFPU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)
	e.branchUnit = NewBranchUnit(regFile)
	e.vector = NewVectorUnit(regFile)
	e.ai = NewAIUnit(regFile)
	e.system = NewSystemUnit(regFile, e.counters)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() Memory {
	return e.memory
}

// Execute applies the semantics of inst. Unknown opcodes and operations
// without architectural effect change nothing.
func (e *Emulator) Execute(inst *insts.Instruction) Outcome {
	r := inst.Reg

	switch inst.Op {
	case insts.OpADD:
		e.alu.ADD(r(0), r(1), r(2))
	case insts.OpSUB:
		e.alu.SUB(r(0), r(1), r(2))
	case insts.OpMUL:
		e.alu.MUL(r(0), r(1), r(2))
	case insts.OpDIV:
		e.alu.DIV(r(0), r(1), r(2))
	case insts.OpAND:
		e.alu.AND(r(0), r(1), r(2))
	case insts.OpOR:
		e.alu.OR(r(0), r(1), r(2))
	case insts.OpXOR:
		e.alu.XOR(r(0), r(1), r(2))
	case insts.OpNOT:
		e.alu.NOT(r(0), r(1))
	case insts.OpSHL:
		e.alu.SHL(r(0), r(1), r(2))
	case insts.OpSHR:
		e.alu.SHR(r(0), r(1), r(2))
	case insts.OpROL:
		e.alu.ROL(r(0), r(1), r(2))
	case insts.OpROR:
		e.alu.ROR(r(0), r(1), r(2))

	case insts.OpLD:
		e.lsu.LD(r(0), r(1))
	case insts.OpST:
		e.lsu.ST(r(0), r(1))
	case insts.OpLDI:
		e.alu.LDI(r(0), inst.ImmValue(1))
	case insts.OpSTI:
		e.lsu.STI(r(0), inst.ImmValue(1))
	case insts.OpLDF:
		e.lsu.LDF(r(0), r(1))
	case insts.OpSTF:
		e.lsu.STF(r(0), r(1))

	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGT, insts.OpBLE, insts.OpBGE:
		return e.executeCondBranch(inst)
	case insts.OpJMP:
		return Outcome{Redirect: true, Target: JumpTarget(inst.ImmValue(0))}
	case insts.OpCALL:
		return Outcome{Redirect: true, Target: e.branchUnit.CALL(inst.Address, inst.ImmValue(0))}
	case insts.OpRET:
		return Outcome{Redirect: true, Target: e.branchUnit.RET()}

	case insts.OpHALT:
		return Outcome{Halt: true}

	default:
		e.executeExtended(inst)
	}

	return Outcome{}
}

func (e *Emulator) executeCondBranch(inst *insts.Instruction) Outcome {
	taken := e.branchUnit.Cond(inst.Op, inst.Reg(1), inst.Reg(2))
	out := Outcome{Branch: true, Taken: taken}
	if taken {
		out.Redirect = true
		out.Target = BranchTarget(inst.Address, inst.Operands[0].Signed())
	}
	return out
}

//nolint:gocyclo // one case per opcode
func (e *Emulator) executeExtended(inst *insts.Instruction) {
	r := inst.Reg

	switch inst.Op {
	case insts.OpFADD:
		e.fpu.FADD(r(0), r(1), r(2))
	case insts.OpFSUB:
		e.fpu.FSUB(r(0), r(1), r(2))
	case insts.OpFMUL:
		e.fpu.FMUL(r(0), r(1), r(2))
	case insts.OpFDIV:
		e.fpu.FDIV(r(0), r(1), r(2))
	case insts.OpFSQRT:
		e.fpu.FSQRT(r(0), r(1))
	case insts.OpFABS:
		e.fpu.FABS(r(0), r(1))
	case insts.OpFNEG:
		e.fpu.FNEG(r(0), r(1))
	case insts.OpFROUND:
		e.fpu.FROUND(r(0), r(1))
	case insts.OpFCEIL:
		e.fpu.FCEIL(r(0), r(1))
	case insts.OpFFLOOR:
		e.fpu.FFLOOR(r(0), r(1))
	case insts.OpFTRUNC:
		e.fpu.FTRUNC(r(0), r(1))
	case insts.OpFMIN:
		e.fpu.FMIN(r(0), r(1), r(2))
	case insts.OpFMAX:
		e.fpu.FMAX(r(0), r(1), r(2))
	case insts.OpFCMP:
		e.fpu.FCMP(r(0), r(1), r(2))
	case insts.OpFCONVERT:
		e.fpu.FCONVERT(r(0), r(1))

	case insts.OpVADD:
		e.vector.VADD(r(0), r(1), r(2))
	case insts.OpVSUB:
		e.vector.VSUB(r(0), r(1), r(2))
	case insts.OpVMUL:
		e.vector.VMUL(r(0), r(1), r(2))
	case insts.OpVDIV:
		e.vector.VDIV(r(0), r(1), r(2))
	case insts.OpVAND:
		e.vector.VAND(r(0), r(1), r(2))
	case insts.OpVOR:
		e.vector.VOR(r(0), r(1), r(2))
	case insts.OpVXOR:
		e.vector.VXOR(r(0), r(1), r(2))
	case insts.OpVNOT:
		e.vector.VNOT(r(0), r(1))
	case insts.OpVSHL:
		e.vector.VSHL(r(0), r(1), r(2))
	case insts.OpVSHR:
		e.vector.VSHR(r(0), r(1), r(2))
	case insts.OpVROL:
		e.vector.VROL(r(0), r(1), r(2))
	case insts.OpVROR:
		e.vector.VROR(r(0), r(1), r(2))
	case insts.OpVLD:
		e.lsu.VLD(r(0), r(1))
	case insts.OpVST:
		e.lsu.VST(r(0), r(1))
	case insts.OpVPERMUTE:
		e.vector.VPERMUTE(r(0), r(1), r(2))
	case insts.OpVSHUFFLE:
		e.vector.VSHUFFLE(r(0), r(1), r(2))
	case insts.OpVBLEND:
		e.vector.VBLEND(r(0), r(1), r(2), r(3))
	case insts.OpVSELECT:
		e.vector.VSELECT(r(0), r(1), r(2), r(3))
	case insts.OpVREDUCE:
		e.vector.VREDUCE(r(0), r(1))
	case insts.OpVSCAN:
		e.vector.VSCAN(r(0), r(1))

	case insts.OpRELU:
		e.ai.RELU(r(0), r(1))
	case insts.OpSIGMOID:
		e.ai.SIGMOID(r(0), r(1))
	case insts.OpTANH:
		e.ai.TANH(r(0), r(1))
	case insts.OpSOFTMAX:
		e.ai.SOFTMAX(r(0), r(1))
	case insts.OpMATMUL:
		e.ai.MATMUL(r(0), r(1), r(2))
	case insts.OpGEMM:
		e.ai.GEMM(r(0), r(1), r(2), r(3))
	case insts.OpMAXPOOL:
		e.ai.MAXPOOL(r(0), r(1), inst.ImmValue(2))
	case insts.OpAVGPOOL:
		e.ai.AVGPOOL(r(0), r(1), inst.ImmValue(2))
	case insts.OpLAYERNORM, insts.OpBATCHNORM:
		e.ai.Normalize(r(0), r(1))

	case insts.OpSIN:
		e.fpu.SIN(r(0), r(1))
	case insts.OpCOS:
		e.fpu.COS(r(0), r(1))
	case insts.OpTAN:
		e.fpu.TAN(r(0), r(1))
	case insts.OpEXP:
		e.fpu.EXP(r(0), r(1))
	case insts.OpLOG:
		e.fpu.LOG(r(0), r(1))
	case insts.OpPOW:
		e.fpu.POW(r(0), r(1), r(2))

	case insts.OpRTSetPriority:
		e.system.SetPriority(r(0), inst.ImmValue(1))
	case insts.OpRTSetDeadline:
		e.system.SetDeadline(r(0), inst.ImmValue(1))
	case insts.OpRTTimer:
		e.system.Timer(r(0), inst.ImmValue(1))

	case insts.OpProfileStart:
		e.system.ProfileStart(inst.ImmValue(0))
	case insts.OpProfileStop:
		e.system.ProfileStop(inst.ImmValue(0))
	case insts.OpProfileRead:
		e.system.ProfileRead(r(0), inst.ImmValue(1))
	case insts.OpPerfCounter:
		e.system.PerfCounter(r(0), inst.ImmValue(1))

	case insts.OpSecureRand:
		e.system.SecureRand(r(0))

	default:
		if inst.Desc != nil && inst.Desc.Class == insts.ClassMIMD {
			e.system.CountMIMD()
		}
	}
}
