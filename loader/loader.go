// Package loader provides loading of AlphaAHB flat binary images.
//
// An image is a sequence of little-endian 32-bit instruction words loaded
// at address 0. Trailing bytes that do not form a whole word are kept as
// data but are never fetched.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/ahbsim/insts"
)

// MaxImageSize is the largest image that fits the 32-bit address space.
const MaxImageSize = 1 << 32

// ErrImageTooLarge is returned for images beyond MaxImageSize.
var ErrImageTooLarge = errors.New("image too large")

// Program represents a loaded binary image.
type Program struct {
	// Path is the file the image was read from, if any.
	Path string
	// Data holds the raw image bytes.
	Data []byte
}

// Load reads a flat binary image from a file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open binary: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := LoadReader(f)
	if err != nil {
		return nil, err
	}
	prog.Path = path

	return prog, nil
}

// LoadReader reads a flat binary image from r.
func LoadReader(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read binary: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, int64(MaxImageSize))
	}

	return &Program{Data: data}, nil
}

// NumWords returns the number of whole instruction words.
func (p *Program) NumWords() int {
	return len(p.Data) / 4
}

// TrailingBytes returns the number of bytes after the last whole word.
func (p *Program) TrailingBytes() int {
	return len(p.Data) % 4
}

// Word returns instruction word i.
func (p *Program) Word(i int) uint32 {
	return binary.LittleEndian.Uint32(p.Data[4*i:])
}

// Instructions decodes every whole word of the image.
func (p *Program) Instructions(decoder *insts.Decoder) []*insts.Instruction {
	out := make([]*insts.Instruction, 0, p.NumWords())
	for i := 0; i < p.NumWords(); i++ {
		inst := &insts.Instruction{Address: uint32(4 * i)}
		decoder.DecodeInto(p.Word(i), inst)
		out = append(out, inst)
	}
	return out
}

// Disassemble writes one line per word: address, raw word and the decoded
// instruction.
func (p *Program) Disassemble(w io.Writer, decoder *insts.Decoder) error {
	for _, inst := range p.Instructions(decoder) {
		if _, err := fmt.Fprintf(w, "%08x:  %08x  %s\n", inst.Address, inst.Word, inst); err != nil {
			return fmt.Errorf("failed to write disassembly: %w", err)
		}
	}
	return nil
}
