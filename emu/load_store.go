package emu

import (
	"encoding/binary"
	"math"
)

// Memory is the data memory an executing core sees. Accesses never fail and
// unwritten bytes read as zero.
type Memory interface {
	Read(addr uint64, size int) []byte
	Write(addr uint64, data []byte)
}

// LoadStoreUnit implements AlphaAHB scalar loads and stores. Addresses are
// the low 32 bits of the base register.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

func (lsu *LoadStoreUnit) addr(rs uint8) uint64 {
	return uint64(lsu.regFile.ReadReg32(rs))
}

// LD performs Rd = mem32[Rs].
func (lsu *LoadStoreUnit) LD(rd, rs uint8) {
	data := lsu.memory.Read(lsu.addr(rs), 4)
	lsu.regFile.WriteReg32(rd, binary.LittleEndian.Uint32(data))
}

// ST performs mem32[Rs] = Rv.
func (lsu *LoadStoreUnit) ST(rs, rv uint8) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], lsu.regFile.ReadReg32(rv))
	lsu.memory.Write(lsu.addr(rs), buf[:])
}

// STI performs mem32[Rs] = imm.
func (lsu *LoadStoreUnit) STI(rs uint8, imm uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], imm)
	lsu.memory.Write(lsu.addr(rs), buf[:])
}

// LDF loads the IEEE double at [Rs] into Fd.
func (lsu *LoadStoreUnit) LDF(fd, rs uint8) {
	data := lsu.memory.Read(lsu.addr(rs), 8)
	lsu.regFile.WriteFloat(fd, math.Float64frombits(binary.LittleEndian.Uint64(data)))
}

// STF stores Fs as an IEEE double at [Rs].
func (lsu *LoadStoreUnit) STF(rs, fs uint8) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(lsu.regFile.ReadFloat(fs)))
	lsu.memory.Write(lsu.addr(rs), buf[:])
}

// VLD loads 64 bytes at [Rs] into Vd. It is a no-op without a vector bank.
func (lsu *LoadStoreUnit) VLD(vd, rs uint8) {
	v := lsu.regFile.Vector(vd)
	if v == nil {
		return
	}
	data := lsu.memory.Read(lsu.addr(rs), 64)
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
}

// VST stores Vs as 64 bytes at [Rs]. It is a no-op without a vector bank.
func (lsu *LoadStoreUnit) VST(rs, vs uint8) {
	v := lsu.regFile.Vector(vs)
	if v == nil {
		return
	}
	var buf [64]byte
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], x)
	}
	lsu.memory.Write(lsu.addr(rs), buf[:])
}
