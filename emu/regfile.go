// Package emu provides functional AlphaAHB instruction semantics.
package emu

import "fmt"

// CoreType identifies a heterogeneous core flavour. The type decides which
// register banks a core owns.
type CoreType uint8

// AlphaAHB core types, in the order a heterogeneous system lays them out.
const (
	GeneralPurpose CoreType = iota
	VectorProcessing
	NeuralProcessing
	AIProcessing
	MemoryProcessing
	IOProcessing
	Graphics
	MemoryController

	NumCoreTypes int = iota
)

var coreTypeNames = [...]string{
	GeneralPurpose:   "GPC",
	VectorProcessing: "VPC",
	NeuralProcessing: "NPC",
	AIProcessing:     "APC",
	MemoryProcessing: "MPC",
	IOProcessing:     "IOC",
	Graphics:         "GRC",
	MemoryController: "HMC",
}

func (t CoreType) String() string {
	if int(t) < len(coreTypeNames) {
		return coreTypeNames[t]
	}
	return fmt.Sprintf("CoreType(%d)", uint8(t))
}

// ParseCoreType returns the core type with the given short name.
func ParseCoreType(name string) (CoreType, error) {
	for i, n := range coreTypeNames {
		if n == name {
			return CoreType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown core type %q", name)
}

// VReg is one 512-bit vector register.
type VReg [8]uint64

// VectorLanes is the number of 32-bit lanes in a VReg.
const VectorLanes = 16

// Lane returns 32-bit lane i.
func (v *VReg) Lane(i int) uint32 {
	return uint32(v[i/2] >> (32 * uint(i%2)))
}

// SetLane writes 32-bit lane i.
func (v *VReg) SetLane(i int, x uint32) {
	shift := 32 * uint(i%2)
	v[i/2] = v[i/2]&^(0xFFFFFFFF<<shift) | uint64(x)<<shift
}

// RegFile holds the architectural registers of one core. Banks that the
// core type does not own are nil and stay nil for the core's lifetime.
type RegFile struct {
	// R holds the general-purpose registers R0-R31. Integer results are
	// 32-bit and stored zero-extended.
	R [32]uint64

	// F holds the IEEE double floating-point registers F0-F31.
	F [32]float64

	// DPR holds the debug and profiling registers.
	DPR [16]uint64

	// V holds the 512-bit vector registers (vector, neural and AI cores).
	V *[32]VReg

	// A holds the AI accumulators (neural and AI cores).
	A *[32]uint64

	// SEC holds the security registers (neural and AI cores).
	SEC *[16]uint64

	// SCR holds the scientific computing registers (vector and neural cores).
	SCR *[16]uint64

	// M holds the MIMD control registers (general-purpose cores).
	M *[16]uint64

	// RTR holds the real-time registers (general-purpose cores).
	RTR *[8]uint64
}

// NewRegFile creates a zeroed register file with the banks of coreType.
func NewRegFile(coreType CoreType) *RegFile {
	r := &RegFile{}

	switch coreType {
	case VectorProcessing, NeuralProcessing, AIProcessing:
		r.V = new([32]VReg)
	}

	switch coreType {
	case NeuralProcessing, AIProcessing:
		r.A = new([32]uint64)
		r.SEC = new([16]uint64)
	}

	switch coreType {
	case VectorProcessing, NeuralProcessing:
		r.SCR = new([16]uint64)
	}

	if coreType == GeneralPurpose {
		r.M = new([16]uint64)
		r.RTR = new([8]uint64)
	}

	return r
}

// ReadReg32 reads the low 32 bits of general-purpose register n&31.
func (r *RegFile) ReadReg32(n uint8) uint32 {
	return uint32(r.R[n&31])
}

// WriteReg32 writes a 32-bit value zero-extended into register n&31.
func (r *RegFile) WriteReg32(n uint8, v uint32) {
	r.R[n&31] = uint64(v)
}

// ReadFloat reads floating-point register n&31.
func (r *RegFile) ReadFloat(n uint8) float64 {
	return r.F[n&31]
}

// WriteFloat writes floating-point register n&31.
func (r *RegFile) WriteFloat(n uint8, v float64) {
	r.F[n&31] = v
}

// Vector returns vector register n&31, or nil when the core has no vector
// bank.
func (r *RegFile) Vector(n uint8) *VReg {
	if r.V == nil {
		return nil
	}
	return &r.V[n&31]
}

// HasVector reports whether the core owns a vector bank.
func (r *RegFile) HasVector() bool {
	return r.V != nil
}

// Banks lists the names of the banks present in the register file.
func (r *RegFile) Banks() []string {
	banks := []string{"R", "F"}
	if r.V != nil {
		banks = append(banks, "V")
	}
	if r.A != nil {
		banks = append(banks, "A")
	}
	if r.M != nil {
		banks = append(banks, "M")
	}
	if r.SEC != nil {
		banks = append(banks, "SEC")
	}
	if r.SCR != nil {
		banks = append(banks, "SCR")
	}
	if r.RTR != nil {
		banks = append(banks, "RTR")
	}
	return append(banks, "DPR")
}

// Reset zeroes every register without changing the bank layout.
func (r *RegFile) Reset() {
	r.R = [32]uint64{}
	r.F = [32]float64{}
	r.DPR = [16]uint64{}
	if r.V != nil {
		*r.V = [32]VReg{}
	}
	if r.A != nil {
		*r.A = [32]uint64{}
	}
	if r.SEC != nil {
		*r.SEC = [16]uint64{}
	}
	if r.SCR != nil {
		*r.SCR = [16]uint64{}
	}
	if r.M != nil {
		*r.M = [16]uint64{}
	}
	if r.RTR != nil {
		*r.RTR = [8]uint64{}
	}
}
