package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tablevertex/memory"
)

var _ = Describe("Storage", func() {
	It("should read and write in single unit", func() {
		storage := memory.NewStorage(4 * memory.KB)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res := make([]byte, 2)
		Expect(storage.Read(0, res)).To(Succeed())
		Expect(res).To(Equal([]byte{1, 2}))

		Expect(storage.Read(1, res)).To(Succeed())
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across units", func() {
		storage := memory.NewStorage(8 * memory.KB)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res := make([]byte, 4)
		Expect(storage.Read(4094, res)).To(Succeed())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read untouched memory as zeros", func() {
		storage := memory.NewStorage(8 * memory.KB)

		res := []byte{9, 9, 9}
		Expect(storage.Read(5000, res)).To(Succeed())
		Expect(res).To(Equal([]byte{0, 0, 0}))
	})

	It("should return error if accessing over the capacity", func() {
		storage := memory.NewStorage(4 * memory.KB)

		err := storage.Write(4095, []byte{1, 2})
		var accessErr *memory.AccessError
		Expect(err).To(BeAssignableToTypeOf(accessErr))

		err = storage.Read(4097, make([]byte, 1))
		Expect(err).To(HaveOccurred())
	})

	It("should store words little-endian", func() {
		storage := memory.NewStorage(4 * memory.KB)
		Expect(storage.WriteWords(8, []uint32{0x04030201})).To(Succeed())

		res := make([]byte, 4)
		Expect(storage.Read(8, res)).To(Succeed())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))

		w, err := storage.ReadWord(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(uint32(0x04030201)))
	})
})
