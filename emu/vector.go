package emu

import "math/bits"

// VectorUnit implements the 512-bit integer vector operations. Lanes are
// sixteen 32-bit unsigned integers. Every operation is a no-op on cores
// without a vector bank.
type VectorUnit struct {
	regFile *RegFile
}

// NewVectorUnit creates a new VectorUnit connected to the given register file.
func NewVectorUnit(regFile *RegFile) *VectorUnit {
	return &VectorUnit{regFile: regFile}
}

func (u *VectorUnit) lanewise(vd, va, vb uint8, f func(x, y, old uint32) uint32) {
	if !u.regFile.HasVector() {
		return
	}
	a, b, d := u.regFile.Vector(va), u.regFile.Vector(vb), u.regFile.Vector(vd)

	var out VReg
	for i := 0; i < VectorLanes; i++ {
		out.SetLane(i, f(a.Lane(i), b.Lane(i), d.Lane(i)))
	}
	*d = out
}

// VADD adds lanes.
func (u *VectorUnit) VADD(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x + y })
}

// VSUB subtracts lanes.
func (u *VectorUnit) VSUB(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x - y })
}

// VMUL multiplies lanes.
func (u *VectorUnit) VMUL(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x * y })
}

// VDIV divides lanes. A lane divided by zero keeps its old value.
func (u *VectorUnit) VDIV(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, old uint32) uint32 {
		if y == 0 {
			return old
		}
		return x / y
	})
}

// VAND performs a lanewise AND.
func (u *VectorUnit) VAND(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x & y })
}

// VOR performs a lanewise OR.
func (u *VectorUnit) VOR(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x | y })
}

// VXOR performs a lanewise XOR.
func (u *VectorUnit) VXOR(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x ^ y })
}

// VNOT inverts every bit of Vs.
func (u *VectorUnit) VNOT(vd, vs uint8) {
	u.lanewise(vd, vs, vs, func(x, _, _ uint32) uint32 { return ^x })
}

// VSHL shifts each lane of Va left by the matching lane of Vb & 31.
func (u *VectorUnit) VSHL(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x << (y & 31) })
}

// VSHR shifts each lane of Va right by the matching lane of Vb & 31.
func (u *VectorUnit) VSHR(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 { return x >> (y & 31) })
}

// VROL rotates each lane of Va left.
func (u *VectorUnit) VROL(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 {
		return bits.RotateLeft32(x, int(y&31))
	})
}

// VROR rotates each lane of Va right.
func (u *VectorUnit) VROR(vd, va, vb uint8) {
	u.lanewise(vd, va, vb, func(x, y, _ uint32) uint32 {
		return bits.RotateLeft32(x, -int(y&31))
	})
}

// VPERMUTE gathers lanes of Va: lane i = Va[Vb[i] & 15].
func (u *VectorUnit) VPERMUTE(vd, va, vb uint8) {
	if !u.regFile.HasVector() {
		return
	}
	a, b := u.regFile.Vector(va), u.regFile.Vector(vb)

	var out VReg
	for i := 0; i < VectorLanes; i++ {
		out.SetLane(i, a.Lane(int(b.Lane(i)&15)))
	}
	*u.regFile.Vector(vd) = out
}

// VSHUFFLE interleaves the low halves of Va and Vb.
func (u *VectorUnit) VSHUFFLE(vd, va, vb uint8) {
	if !u.regFile.HasVector() {
		return
	}
	a, b := u.regFile.Vector(va), u.regFile.Vector(vb)

	var out VReg
	for i := 0; i < VectorLanes/2; i++ {
		out.SetLane(2*i, a.Lane(i))
		out.SetLane(2*i+1, b.Lane(i))
	}
	*u.regFile.Vector(vd) = out
}

// VBLEND picks Vb where the mask lane in Vm is non-zero and Va elsewhere.
func (u *VectorUnit) VBLEND(vd, va, vb, vm uint8) {
	if !u.regFile.HasVector() {
		return
	}
	a, b, m := u.regFile.Vector(va), u.regFile.Vector(vb), u.regFile.Vector(vm)

	var out VReg
	for i := 0; i < VectorLanes; i++ {
		if m.Lane(i) != 0 {
			out.SetLane(i, b.Lane(i))
		} else {
			out.SetLane(i, a.Lane(i))
		}
	}
	*u.regFile.Vector(vd) = out
}

// VSELECT picks Vb for lanes whose bit is set in general-purpose Rm.
func (u *VectorUnit) VSELECT(vd, va, vb, rm uint8) {
	if !u.regFile.HasVector() {
		return
	}
	a, b := u.regFile.Vector(va), u.regFile.Vector(vb)
	mask := u.regFile.ReadReg32(rm)

	var out VReg
	for i := 0; i < VectorLanes; i++ {
		if mask&(1<<uint(i)) != 0 {
			out.SetLane(i, b.Lane(i))
		} else {
			out.SetLane(i, a.Lane(i))
		}
	}
	*u.regFile.Vector(vd) = out
}

// VREDUCE writes the wrapped 32-bit sum of the lanes of Vs into Rd.
func (u *VectorUnit) VREDUCE(rd, vs uint8) {
	if !u.regFile.HasVector() {
		return
	}
	v := u.regFile.Vector(vs)

	var sum uint32
	for i := 0; i < VectorLanes; i++ {
		sum += v.Lane(i)
	}
	u.regFile.WriteReg32(rd, sum)
}

// VSCAN writes the inclusive prefix sum of Vs into Vd.
func (u *VectorUnit) VSCAN(vd, vs uint8) {
	if !u.regFile.HasVector() {
		return
	}
	v := u.regFile.Vector(vs)

	var (
		out VReg
		acc uint32
	)
	for i := 0; i < VectorLanes; i++ {
		acc += v.Lane(i)
		out.SetLane(i, acc)
	}
	*u.regFile.Vector(vd) = out
}
