package emu

import "math"

// normEpsilon is added to the variance before normalizing.
const normEpsilon = 1e-5

// AIUnit implements the neural-network vector operations. Lanes hold IEEE
// float32 bit patterns. Operations are no-ops on cores without a vector bank.
type AIUnit struct {
	regFile *RegFile
}

// NewAIUnit creates a new AIUnit connected to the given register file.
func NewAIUnit(regFile *RegFile) *AIUnit {
	return &AIUnit{regFile: regFile}
}

func floatLanes(v *VReg) [VectorLanes]float32 {
	var out [VectorLanes]float32
	for i := range out {
		out[i] = math.Float32frombits(v.Lane(i))
	}
	return out
}

func (u *AIUnit) store(vd uint8, lanes [VectorLanes]float32) {
	d := u.regFile.Vector(vd)
	for i, x := range lanes {
		d.SetLane(i, math.Float32bits(x))
	}
}

func (u *AIUnit) activation(vd, vs uint8, f func(float64) float64) {
	if !u.regFile.HasVector() {
		return
	}
	lanes := floatLanes(u.regFile.Vector(vs))
	for i, x := range lanes {
		lanes[i] = float32(f(float64(x)))
	}
	u.store(vd, lanes)
}

// RELU clamps negative lanes to zero.
func (u *AIUnit) RELU(vd, vs uint8) {
	u.activation(vd, vs, func(x float64) float64 { return math.Max(0, x) })
}

// SIGMOID applies the logistic function to each lane.
func (u *AIUnit) SIGMOID(vd, vs uint8) {
	u.activation(vd, vs, func(x float64) float64 { return 1 / (1 + math.Exp(-x)) })
}

// TANH applies tanh to each lane.
func (u *AIUnit) TANH(vd, vs uint8) {
	u.activation(vd, vs, math.Tanh)
}

// SOFTMAX normalizes the lanes of Vs into a probability distribution.
func (u *AIUnit) SOFTMAX(vd, vs uint8) {
	if !u.regFile.HasVector() {
		return
	}
	lanes := floatLanes(u.regFile.Vector(vs))

	peak := math.Inf(-1)
	for _, x := range lanes {
		peak = math.Max(peak, float64(x))
	}

	var (
		exps [VectorLanes]float64
		sum  float64
	)
	for i, x := range lanes {
		exps[i] = math.Exp(float64(x) - peak)
		sum += exps[i]
	}
	for i := range lanes {
		lanes[i] = float32(exps[i] / sum)
	}
	u.store(vd, lanes)
}

// matmul4 multiplies two row-major 4x4 matrices.
func matmul4(a, b [VectorLanes]float32) [VectorLanes]float32 {
	var out [VectorLanes]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var acc float32
			for k := 0; k < 4; k++ {
				acc += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = acc
		}
	}
	return out
}

// accumulateTrace adds the trace of m into accumulator A[vd] on cores that
// own an accumulator bank. The accumulator holds float64 bits.
func (u *AIUnit) accumulateTrace(vd uint8, m [VectorLanes]float32) {
	if u.regFile.A == nil {
		return
	}
	var trace float64
	for i := 0; i < 4; i++ {
		trace += float64(m[i*4+i])
	}
	acc := &u.regFile.A[vd&31]
	*acc = math.Float64bits(math.Float64frombits(*acc) + trace)
}

// MATMUL treats Va and Vb as 4x4 float32 matrices: Vd = Va x Vb.
func (u *AIUnit) MATMUL(vd, va, vb uint8) {
	if !u.regFile.HasVector() {
		return
	}
	out := matmul4(floatLanes(u.regFile.Vector(va)), floatLanes(u.regFile.Vector(vb)))
	u.store(vd, out)
	u.accumulateTrace(vd, out)
}

// GEMM computes Vd = Va x Vb + Vc on 4x4 float32 matrices.
func (u *AIUnit) GEMM(vd, va, vb, vc uint8) {
	if !u.regFile.HasVector() {
		return
	}
	out := matmul4(floatLanes(u.regFile.Vector(va)), floatLanes(u.regFile.Vector(vb)))
	c := floatLanes(u.regFile.Vector(vc))
	for i := range out {
		out[i] += c[i]
	}
	u.store(vd, out)
	u.accumulateTrace(vd, out)
}

func (u *AIUnit) pool(vd, vs uint8, window uint32, reduce func(xs []float32) float32) {
	if !u.regFile.HasVector() {
		return
	}
	w := int(window)
	if w < 2 || w > VectorLanes {
		w = 2
	}
	lanes := floatLanes(u.regFile.Vector(vs))

	var out [VectorLanes]float32
	for i := 0; i < VectorLanes/w; i++ {
		out[i] = reduce(lanes[i*w : i*w+w])
	}
	u.store(vd, out)
}

// MAXPOOL reduces each window of Vs to its maximum in the low lanes of Vd.
// Windows outside 2..16 fall back to 2.
func (u *AIUnit) MAXPOOL(vd, vs uint8, window uint32) {
	u.pool(vd, vs, window, func(xs []float32) float32 {
		m := xs[0]
		for _, x := range xs[1:] {
			if x > m {
				m = x
			}
		}
		return m
	})
}

// AVGPOOL reduces each window of Vs to its mean in the low lanes of Vd.
func (u *AIUnit) AVGPOOL(vd, vs uint8, window uint32) {
	u.pool(vd, vs, window, func(xs []float32) float32 {
		var sum float32
		for _, x := range xs {
			sum += x
		}
		return sum / float32(len(xs))
	})
}

// Normalize rescales the lanes of Vs to zero mean and unit variance.
// LAYERNORM and BATCHNORM share it.
func (u *AIUnit) Normalize(vd, vs uint8) {
	if !u.regFile.HasVector() {
		return
	}
	lanes := floatLanes(u.regFile.Vector(vs))

	var mean float64
	for _, x := range lanes {
		mean += float64(x)
	}
	mean /= VectorLanes

	var variance float64
	for _, x := range lanes {
		d := float64(x) - mean
		variance += d * d
	}
	variance /= VectorLanes

	scale := 1 / math.Sqrt(variance+normEpsilon)
	for i, x := range lanes {
		lanes[i] = float32((float64(x) - mean) * scale)
	}
	u.store(vd, lanes)
}
