package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Register field ranges. A raw register field selects a bank by range when
// printed; executors only look at the low five bits.
const (
	FirstFloatReg  = 32
	FirstVectorReg = 64
	LastVectorReg  = 79
)

// Link is the general-purpose register CALL writes its return address to.
const Link = 31

// FormatRegister returns the assembly name of a raw register field.
func FormatRegister(n uint8) string {
	switch {
	case n < FirstFloatReg:
		return fmt.Sprintf("R%d", n)
	case n < FirstVectorReg:
		return fmt.Sprintf("F%d", n-FirstFloatReg)
	case n <= LastVectorReg:
		return fmt.Sprintf("V%d", n-FirstVectorReg)
	default:
		return fmt.Sprintf("REG%d", n)
	}
}

// ParseRegister parses a register name produced by FormatRegister.
func ParseRegister(s string) (uint8, error) {
	name := strings.ToUpper(strings.TrimSpace(s))

	var (
		prefix string
		base   int
		limit  int
	)
	switch {
	case strings.HasPrefix(name, "REG"):
		prefix, base, limit = "REG", 0, 255
	case strings.HasPrefix(name, "R"):
		prefix, base, limit = "R", 0, FirstFloatReg-1
	case strings.HasPrefix(name, "F"):
		prefix, base, limit = "F", FirstFloatReg, FirstVectorReg-FirstFloatReg-1
	case strings.HasPrefix(name, "V"):
		prefix, base, limit = "V", FirstVectorReg, LastVectorReg-FirstVectorReg
	default:
		return 0, fmt.Errorf("invalid register %q", s)
	}

	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil {
		return 0, fmt.Errorf("invalid register %q: %w", s, err)
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("register %q out of range", s)
	}

	return uint8(base + n), nil
}
