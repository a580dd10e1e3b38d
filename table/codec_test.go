package table_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gmeasure"

	"github.com/sarchlab/tablevertex/table"
)

var _ = Describe("Entry Codec", func() {
	It("should unpack words big-endian", func() {
		b, err := table.DecodeEntry([]uint32{0x48656C6C, 0x6F000000}, 8)

		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal([]byte{'H', 'e', 'l', 'l', 'o', 0, 0, 0}))
		Expect(string(table.TrimEntry(b))).To(Equal("Hello"))
	})

	It("should place word i at byte offset 4*i", func() {
		b, err := table.DecodeEntry(
			[]uint32{0x01020304, 0x05060708, 0x090A0B0C, 0x0D0E0F10}, 16)

		Expect(err).NotTo(HaveOccurred())
		for i := range b {
			Expect(b[i]).To(Equal(byte(i + 1)))
		}
	})

	It("should only use width/4 words", func() {
		b, err := table.DecodeEntry([]uint32{0x41424344, 0xFFFFFFFF}, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal([]byte("ABCD")))
	})

	It("should reject a width that is not a multiple of 4", func() {
		_, err := table.DecodeEntry([]uint32{0, 0}, 6)

		var malformed *table.MalformedHeaderError
		Expect(err).To(BeAssignableToTypeOf(malformed))
	})

	It("should reject too few words", func() {
		_, err := table.DecodeEntry([]uint32{0}, 8)
		Expect(err).To(HaveOccurred())
	})

	It("should pack bytes into words", func() {
		words, err := table.EncodeEntry([]byte("Hello\x00\x00\x00"))

		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal([]uint32{0x48656C6C, 0x6F000000}))
	})

	It("should reject packing a length that is not a multiple of 4", func() {
		_, err := table.EncodeEntry([]byte("abc"))
		Expect(err).To(HaveOccurred())
	})

	It("should round trip random entries", func() {
		for n := 0; n < 100; n++ {
			b := make([]byte, 4*rand.Intn(16)+4)
			rand.Read(b)

			words, err := table.EncodeEntry(b)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := table.DecodeEntry(words, uint32(len(b)))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(b))
		}
	})

	It("should decode into a caller buffer", func() {
		dst := make([]byte, 4)
		Expect(table.DecodeEntryInto(dst, []uint32{0x61626364})).To(Succeed())
		Expect(dst).To(Equal([]byte("abcd")))
	})

	It("measure decoding speed", func() {
		experiment := gmeasure.NewExperiment("Entry Decoding Speed")
		AddReportEntry(experiment.Name, experiment)

		words := make([]uint32, 64)
		dst := make([]byte, 256)
		experiment.MeasureDuration("decode", func() {
			for i := 0; i < 10000; i++ {
				_ = table.DecodeEntryInto(dst, words)
			}
		})
	})
})
