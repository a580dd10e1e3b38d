package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		var f = 1 * GHz
		Expect(f.Period()).To(BeNumerically("==", 1e-9))
	})

	It("should convert a timer period in microseconds", func() {
		f := FreqFromPeriodMicros(1000)
		Expect(f).To(BeNumerically("~", 1*KHz, 1e-9))
		Expect(f.Period()).To(BeNumerically("~", 0.001, 1e-12))
	})

	It("should panic on a zero timer period", func() {
		Expect(func() { FreqFromPeriodMicros(0) }).To(Panic())
	})

	It("should get this tick", func() {
		var f = 1 * Hz
		Expect(f.ThisTick(1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should get the next tick", func() {
		var f = 1 * KHz
		Expect(f.NextTick(0.002)).To(BeNumerically("~", 0.003, 1e-12))
	})

	It("should get the next tick, if currTime is not on a tick", func() {
		var f = 1 * GHz
		Expect(f.NextTick(102.0000000011)).
			To(BeNumerically("~", 102.000000002, 1e-12))
	})

	It("should count cycles", func() {
		var f = 1 * KHz
		Expect(f.Cycle(0.25)).To(Equal(uint64(250)))
	})
})
