package emu

import "math"

// FPU implements AlphaAHB IEEE double operations on the F bank, plus the
// scalar scientific functions that share it.
type FPU struct {
	regFile *RegFile
}

// NewFPU creates a new FPU connected to the given register file.
func NewFPU(regFile *RegFile) *FPU {
	return &FPU{regFile: regFile}
}

func (f *FPU) binary(fd, fa, fb uint8, op func(x, y float64) float64) {
	x := f.regFile.ReadFloat(fa)
	y := f.regFile.ReadFloat(fb)
	f.regFile.WriteFloat(fd, op(x, y))
}

func (f *FPU) unary(fd, fs uint8, op func(x float64) float64) {
	f.regFile.WriteFloat(fd, op(f.regFile.ReadFloat(fs)))
}

// FADD performs Fd = Fa + Fb.
func (f *FPU) FADD(fd, fa, fb uint8) {
	f.binary(fd, fa, fb, func(x, y float64) float64 { return x + y })
}

// FSUB performs Fd = Fa - Fb.
func (f *FPU) FSUB(fd, fa, fb uint8) {
	f.binary(fd, fa, fb, func(x, y float64) float64 { return x - y })
}

// FMUL performs Fd = Fa * Fb.
func (f *FPU) FMUL(fd, fa, fb uint8) {
	f.binary(fd, fa, fb, func(x, y float64) float64 { return x * y })
}

// FDIV performs Fd = Fa / Fb. Division by zero leaves Fd unchanged.
func (f *FPU) FDIV(fd, fa, fb uint8) {
	y := f.regFile.ReadFloat(fb)
	if y == 0 {
		return
	}
	f.regFile.WriteFloat(fd, f.regFile.ReadFloat(fa)/y)
}

// FSQRT performs Fd = sqrt(Fs). A negative operand leaves Fd unchanged.
func (f *FPU) FSQRT(fd, fs uint8) {
	x := f.regFile.ReadFloat(fs)
	if x < 0 {
		return
	}
	f.regFile.WriteFloat(fd, math.Sqrt(x))
}

// FABS performs Fd = |Fs|.
func (f *FPU) FABS(fd, fs uint8) { f.unary(fd, fs, math.Abs) }

// FNEG performs Fd = -Fs.
func (f *FPU) FNEG(fd, fs uint8) {
	f.unary(fd, fs, func(x float64) float64 { return -x })
}

// FROUND rounds half to even.
func (f *FPU) FROUND(fd, fs uint8) { f.unary(fd, fs, math.RoundToEven) }

// FCEIL performs Fd = ceil(Fs).
func (f *FPU) FCEIL(fd, fs uint8) { f.unary(fd, fs, math.Ceil) }

// FFLOOR performs Fd = floor(Fs).
func (f *FPU) FFLOOR(fd, fs uint8) { f.unary(fd, fs, math.Floor) }

// FTRUNC performs Fd = trunc(Fs).
func (f *FPU) FTRUNC(fd, fs uint8) { f.unary(fd, fs, math.Trunc) }

// FMIN performs Fd = min(Fa, Fb).
func (f *FPU) FMIN(fd, fa, fb uint8) { f.binary(fd, fa, fb, math.Min) }

// FMAX performs Fd = max(Fa, Fb).
func (f *FPU) FMAX(fd, fa, fb uint8) { f.binary(fd, fa, fb, math.Max) }

// FCMP writes -1, 0 or 1 into general-purpose Rd as Fa is less than, equal
// to or greater than Fb. Unordered operands compare as 0.
func (f *FPU) FCMP(rd, fa, fb uint8) {
	x := f.regFile.ReadFloat(fa)
	y := f.regFile.ReadFloat(fb)

	var result int32
	switch {
	case x < y:
		result = -1
	case x > y:
		result = 1
	}
	f.regFile.WriteReg32(rd, uint32(result))
}

// FCONVERT converts the signed 32-bit integer in Rs to a double in Fd.
func (f *FPU) FCONVERT(fd, rs uint8) {
	f.regFile.WriteFloat(fd, float64(int32(f.regFile.ReadReg32(rs))))
}

// SIN performs Fd = sin(Fs).
func (f *FPU) SIN(fd, fs uint8) { f.unary(fd, fs, math.Sin) }

// COS performs Fd = cos(Fs).
func (f *FPU) COS(fd, fs uint8) { f.unary(fd, fs, math.Cos) }

// TAN performs Fd = tan(Fs).
func (f *FPU) TAN(fd, fs uint8) { f.unary(fd, fs, math.Tan) }

// EXP performs Fd = e^Fs.
func (f *FPU) EXP(fd, fs uint8) { f.unary(fd, fs, math.Exp) }

// LOG performs Fd = ln(Fs). A non-positive operand leaves Fd unchanged.
func (f *FPU) LOG(fd, fs uint8) {
	x := f.regFile.ReadFloat(fs)
	if x <= 0 {
		return
	}
	f.regFile.WriteFloat(fd, math.Log(x))
}

// POW performs Fd = Fa^Fb.
func (f *FPU) POW(fd, fa, fb uint8) { f.binary(fd, fa, fb, math.Pow) }
