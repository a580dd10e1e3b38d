package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	var saved IDGenerator

	BeforeEach(func() {
		saved = idGenerator
		idGenerator = nil
	})

	AfterEach(func() {
		idGenerator = saved
	})

	It("should count up by default", func() {
		g := GetIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should give unique ids with xid", func() {
		UseParallelIDGenerator()
		g := GetIDGenerator()

		a, b := g.Generate(), g.Generate()
		Expect(a).To(HaveLen(20))
		Expect(a).NotTo(Equal(b))
	})

	It("should not change the generator once selected", func() {
		UseSequentialIDGenerator()

		Expect(func() { UseParallelIDGenerator() }).To(Panic())
	})
})
