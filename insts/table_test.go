package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ahbsim/insts"
)

var _ = Describe("Opcode table", func() {
	It("should map every opcode value to a descriptor", func() {
		for i := 0; i < 256; i++ {
			d := insts.DescriptorFor(uint8(i))
			Expect(d).NotTo(BeNil())
			Expect(d.Opcode).To(Equal(uint8(i)))
			Expect(d.BaseCycles).To(BeNumerically(">=", 1))
		}
	})

	It("should use the UNKNOWN_xx sentinel for unassigned values", func() {
		d := insts.DescriptorFor(0x0C)

		Expect(d.IsUnknown()).To(BeTrue())
		Expect(d.Mnemonic).To(Equal("UNKNOWN_0C"))
		Expect(d.Format).To(Equal(insts.FormatNone))
		Expect(d.BaseCycles).To(Equal(uint32(1)))
	})

	DescribeTable("published encodings and costs",
		func(mnemonic string, opcode uint8, format insts.Format, cycles uint32, ext bool) {
			d, ok := insts.Lookup(mnemonic)

			Expect(ok).To(BeTrue())
			Expect(d.Opcode).To(Equal(opcode))
			Expect(d.Format).To(Equal(format))
			Expect(d.BaseCycles).To(Equal(cycles))
			Expect(d.Extension).To(Equal(ext))
		},
		Entry("ADD", "ADD", uint8(0x00), insts.FormatRegRegReg, uint32(1), false),
		Entry("DIV", "DIV", uint8(0x03), insts.FormatRegRegReg, uint32(10), false),
		Entry("LDI", "LDI", uint8(0x12), insts.FormatRegImm, uint32(1), false),
		Entry("BEQ", "BEQ", uint8(0x20), insts.FormatRegRegReg, uint32(1), false),
		Entry("JMP", "JMP", uint8(0x26), insts.FormatImm, uint32(1), false),
		Entry("FDIV", "FDIV", uint8(0x33), insts.FormatRegRegReg, uint32(12), false),
		Entry("VLD", "VLD", uint8(0x4C), insts.FormatRegReg, uint32(3), true),
		Entry("CONV2D", "CONV2D", uint8(0x60), insts.FormatRegRegRegReg, uint32(16), true),
		Entry("REDUCE", "REDUCE", uint8(0x73), insts.FormatRegRegReg, uint32(8), true),
		Entry("AES_ENC", "aes_enc", uint8(0x80), insts.FormatRegRegReg, uint32(12), true),
		Entry("HALT", "HALT", uint8(0xF1), insts.FormatNone, uint32(1), false),
		Entry("TRAP", "trap", uint8(0xF5), insts.FormatImm, uint32(10), false),
	)

	It("should find descriptors by op", func() {
		for _, d := range insts.Descriptors() {
			Expect(insts.DescriptorOf(d.Op)).To(BeIdenticalTo(d))
			Expect(d.Op.String()).To(Equal(d.Mnemonic))
		}
	})

	It("should reject unknown mnemonics", func() {
		_, ok := insts.Lookup("FROB")
		Expect(ok).To(BeFalse())
		Expect(insts.DescriptorOf(insts.OpUnknown)).To(BeNil())
	})

	It("should keep the system and basic groups in the base ISA", func() {
		for _, d := range insts.Descriptors() {
			switch d.Class {
			case insts.ClassBasic, insts.ClassFloatingPoint, insts.ClassSystem:
				Expect(d.Extension).To(BeFalse(), d.Mnemonic)
			default:
				Expect(d.Extension).To(BeTrue(), d.Mnemonic)
			}
		}
	})
})
