package recording

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Recorder", func() {
	var (
		mockCtrl *gomock.Controller
		sink     *MockSink
		logBuf   *bytes.Buffer
		recorder *Recorder
		flushed  []Record
	)

	keep := func(records []Record) error {
		for _, r := range records {
			r.Data = append([]byte(nil), r.Data...)
			flushed = append(flushed, r)
		}
		return nil
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sink = NewMockSink(mockCtrl)
		logBuf = new(bytes.Buffer)
		recorder = NewRecorder(sink, log.New(logBuf, "", 0))
		flushed = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should enable the channels that have a buffer", func() {
		flags, err := recorder.Initialize(wordSlice{3, 16, 0, 8})

		Expect(err).NotTo(HaveOccurred())
		Expect(flags).To(Equal(uint32(0b101)))
		Expect(recorder.Flags()).To(Equal(flags))
	})

	It("should fail on a truncated region", func() {
		_, err := recorder.Initialize(wordSlice{3, 16})
		Expect(err).To(MatchError(errShortRegion))
	})

	It("should reject too many channels", func() {
		_, err := recorder.Initialize(wordSlice{MaxChannels + 1})
		Expect(err).To(MatchError(ErrTooManyChannels))
	})

	It("should reject buffers larger than the node memory", func() {
		region := wordSlice{MaxChannels}
		for i := 0; i < MaxChannels; i++ {
			region = append(region, 0xFFFFFFFF)
		}

		flags, err := recorder.Initialize(region)

		Expect(err).To(MatchError(ErrBuffersTooLarge))
		Expect(flags).To(BeZero())
		Expect(recorder.Flags()).To(BeZero())
	})

	It("should accept buffers that add up to the limit", func() {
		flags, err := recorder.Initialize(
			wordSlice{2, MaxBufferBytes / 2, MaxBufferBytes / 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(flags).To(Equal(uint32(0b11)))
	})

	It("should refuse records on disabled or unknown channels", func() {
		_, err := recorder.Initialize(wordSlice{2, 0, 8})
		Expect(err).NotTo(HaveOccurred())

		Expect(recorder.Record(0, []byte{1})).To(BeFalse())
		Expect(recorder.Record(2, []byte{1})).To(BeFalse())
		Expect(recorder.Record(-1, []byte{1})).To(BeFalse())
		Expect(recorder.Record(1, []byte{1})).To(BeTrue())
	})

	It("should refuse records that do not fit", func() {
		_, err := recorder.Initialize(wordSlice{1, 8})
		Expect(err).NotTo(HaveOccurred())

		Expect(recorder.Record(0, []byte("Hello"))).To(BeTrue())
		Expect(recorder.Record(0, []byte("Hello"))).To(BeFalse())
		Expect(recorder.Pending(0)).To(Equal(5))
	})

	It("should flush channels more than half full on timestep updates", func() {
		_, err := recorder.Initialize(wordSlice{1, 16})
		Expect(err).NotTo(HaveOccurred())

		recorder.DoTimestepUpdate(1)
		Expect(recorder.Record(0, []byte("Hello000"))).To(BeTrue())
		recorder.DoTimestepUpdate(2)
		Expect(flushed).To(BeEmpty())

		sink.EXPECT().Flush(gomock.Any()).DoAndReturn(keep)
		Expect(recorder.Record(0, []byte{1})).To(BeTrue())
		recorder.DoTimestepUpdate(3)

		Expect(flushed).To(HaveLen(2))
		Expect(flushed[0].Time).To(Equal(uint32(1)))
		Expect(flushed[0].Data).To(Equal([]byte("Hello000")))
		Expect(flushed[1].Time).To(Equal(uint32(2)))
		Expect(recorder.Pending(0)).To(Equal(0))
	})

	It("should flush everything on finalise, once", func() {
		_, err := recorder.Initialize(wordSlice{2, 64, 64})
		Expect(err).NotTo(HaveOccurred())

		Expect(recorder.Record(0, []byte("a"))).To(BeTrue())
		Expect(recorder.Record(1, []byte("b"))).To(BeTrue())

		sink.EXPECT().Flush(gomock.Any()).DoAndReturn(keep).Times(2)
		recorder.Finalise()
		recorder.Finalise()

		Expect(flushed).To(HaveLen(2))
		Expect(flushed[0].Channel).To(Equal(0))
		Expect(flushed[1].Channel).To(Equal(1))
		Expect(recorder.Finalised()).To(BeTrue())
		Expect(recorder.Record(0, []byte("a"))).To(BeFalse())
	})

	It("should do nothing when finalising without channels", func() {
		_, err := recorder.Initialize(wordSlice{0})
		Expect(err).NotTo(HaveOccurred())

		recorder.Finalise()
		Expect(recorder.Finalised()).To(BeFalse())
	})

	It("should accept records again after a reset", func() {
		_, err := recorder.Initialize(wordSlice{1, 8})
		Expect(err).NotTo(HaveOccurred())

		recorder.Finalise()
		recorder.Reset()

		Expect(recorder.Record(0, []byte("abc"))).To(BeTrue())
	})

	It("should log sink failures and drop the data", func() {
		_, err := recorder.Initialize(wordSlice{1, 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Record(0, []byte("abc"))).To(BeTrue())

		sink.EXPECT().Flush(gomock.Any()).Return(errors.New("disk full"))
		recorder.DoTimestepUpdate(1)

		Expect(logBuf.String()).To(ContainSubstring("disk full"))
		Expect(recorder.Pending(0)).To(Equal(0))
	})
})
