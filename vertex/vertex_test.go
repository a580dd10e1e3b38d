package vertex

import (
	"bytes"
	"errors"
	"log"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tablevertex/table"
)

var _ = ginkgo.Describe("Vertex", func() {
	var (
		mockCtrl  *gomock.Controller
		lifecycle *MockLifecycle
		recorder  *MockRecorder
		input     *MockWordReader
		logBuf    *bytes.Buffer
		fatalErr  error
		limit     uint32
		flags     uint32
		cfg       Config
		v         *Vertex
	)

	header := []uint32{2, 5, 8, 0b01}
	hello := []uint32{0x48656C6C, 0x6F000000}

	expectHeader := func(words []uint32) *gomock.Call {
		return input.EXPECT().
			ReadWords(uint32(0), gomock.Len(table.HeaderWords)).
			DoAndReturn(func(_ uint32, dst []uint32) error {
				copy(dst, words)
				return nil
			})
	}

	expectRow := func(offset uint32, words []uint32) *gomock.Call {
		return input.EXPECT().
			ReadWords(offset, gomock.Len(len(words))).
			DoAndReturn(func(_ uint32, dst []uint32) error {
				copy(dst, words)
				return nil
			})
	}

	build := func() {
		lifecycle.EXPECT().Infinite().Return(false).AnyTimes()
		lifecycle.EXPECT().Ticks().DoAndReturn(func() uint32 {
			return limit
		}).AnyTimes()

		v = MakeBuilder().
			WithConfig(cfg).
			WithLifecycle(lifecycle).
			WithRecorder(recorder, flags).
			WithInput(input).
			WithLogger(log.New(logBuf, "", 0)).
			WithFatalHandler(func(err error) { fatalErr = err }).
			Build("Vertex")
		v.Start()
	}

	tick := func(n int) Status {
		var status Status
		for i := 0; i < n; i++ {
			status = v.Update()
		}
		return status
	}

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		lifecycle = NewMockLifecycle(mockCtrl)
		recorder = NewMockRecorder(mockCtrl)
		input = NewMockWordReader(mockCtrl)
		logBuf = new(bytes.Buffer)
		fatalErr = nil
		limit = 200
		flags = 1
		cfg = DefaultConfig()
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should not tick before it starts", func() {
		v = MakeBuilder().
			WithLifecycle(lifecycle).
			WithRecorder(recorder, flags).
			WithInput(input).
			Build("Vertex")

		Expect(v.State()).To(Equal(StateUninitialized))
		Expect(v.Update()).To(Equal(StatusSuspended))
		Expect(v.Context().Time).To(Equal(uint32(ClockSentinel)))
	})

	ginkgo.It("should start the clock at zero", func() {
		build()
		recorder.EXPECT().DoTimestepUpdate(uint32(0))

		Expect(v.Update()).To(Equal(StatusRunning))
		Expect(v.Context().Time).To(Equal(uint32(0)))
		Expect(v.State()).To(Equal(StateRunning))
	})

	ginkgo.It("should decode, fetch, and record the demo row on the header tick", func() {
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(2)
		expectHeader(header).Times(1)
		expectRow(4, hello).Times(1)
		recorder.EXPECT().
			Record(0, []byte("Hello\x00\x00\x00")).
			Return(true).
			Times(1)

		Expect(tick(2)).To(Equal(StatusRunning))

		Expect(v.Context().HeaderLoaded()).To(BeTrue())
		Expect(v.Context().Header).To(Equal(table.Header{
			NumCols: 2, NumRows: 5, EntryByteWidth: 8, TypeFlags: 0b01,
		}))
		Expect(logBuf.String()).To(ContainSubstring(`row 0: "Hello"`))
		Expect(logBuf.String()).To(ContainSubstring("recorded 8 bytes"))
	})

	ginkgo.It("should fetch the configured row", func() {
		cfg.DemoRow = 4
		cfg.RecordingChannel = 2
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).AnyTimes()
		expectHeader(header)
		expectRow(table.HeaderWords+4*2, hello)
		recorder.EXPECT().Record(2, gomock.Any()).Return(true)

		tick(2)
	})

	ginkgo.It("should keep going when recording fails", func() {
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(3)
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(false)

		Expect(tick(3)).To(Equal(StatusRunning))
		Expect(logBuf.String()).To(ContainSubstring("failed to record"))
	})

	ginkgo.It("should finalise and pause when the run is over", func() {
		limit = 3
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(3)
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(true)

		Expect(tick(3)).To(Equal(StatusRunning))

		gomock.InOrder(
			recorder.EXPECT().Finalise(),
			lifecycle.EXPECT().HandlePauseResume(gomock.Any()),
		)
		Expect(v.Update()).To(Equal(StatusSuspended))
		Expect(v.Context().Time).To(Equal(uint32(3)))
		Expect(v.State()).To(Equal(StatePaused))
		Expect(logBuf.String()).NotTo(ContainSubstring("raw input"))
	})

	ginkgo.It("should ignore ticks while paused", func() {
		limit = 0
		build()
		recorder.EXPECT().Finalise()
		lifecycle.EXPECT().HandlePauseResume(gomock.Any())

		Expect(v.Update()).To(Equal(StatusSuspended))
		Expect(v.Update()).To(Equal(StatusSuspended))
		Expect(v.Context().Time).To(Equal(uint32(0)))
	})

	ginkgo.It("should stop before the diagnostic tick if the run ends on it", func() {
		limit = 100
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(100)
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(true)
		recorder.EXPECT().Finalise()
		lifecycle.EXPECT().HandlePauseResume(gomock.Any())

		Expect(tick(101)).To(Equal(StatusSuspended))
		Expect(logBuf.String()).NotTo(ContainSubstring("raw input"))
	})

	ginkgo.It("should log the raw input on the diagnostic tick", func() {
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(101)
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(true)
		expectRow(0, []uint32{0x6C6C6548})
		expectRow(1, []uint32{0x0000006F})

		Expect(tick(101)).To(Equal(StatusRunning))
		Expect(logBuf.String()).To(ContainSubstring(`raw input: "Hello"`))
	})

	ginkgo.It("should not touch the recorder when recording is disabled", func() {
		flags = 0
		limit = 3
		build()
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(false)
		lifecycle.EXPECT().HandlePauseResume(gomock.Any())

		Expect(tick(4)).To(Equal(StatusSuspended))
	})

	ginkgo.It("should restart the clock and reuse the header on resume", func() {
		limit = 3
		build()

		var resume func()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(6)
		expectHeader(header).Times(1)
		expectRow(4, hello).Times(2)
		recorder.EXPECT().Record(0, gomock.Any()).Return(true).Times(2)
		recorder.EXPECT().Finalise().Times(2)
		recorder.EXPECT().Reset()
		lifecycle.EXPECT().HandlePauseResume(gomock.Any()).
			Do(func(f func()) { resume = f }).
			Times(2)

		Expect(tick(4)).To(Equal(StatusSuspended))

		resume()
		Expect(v.State()).To(Equal(StateRunning))
		Expect(v.Context().Time).To(Equal(uint32(ClockSentinel)))

		Expect(tick(4)).To(Equal(StatusSuspended))
	})

	ginkgo.It("should report rows out of range", func() {
		cfg.DemoRow = 5
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).AnyTimes()
		expectHeader(header)

		tick(2)

		var rangeErr *table.OutOfRangeError
		Expect(errors.As(fatalErr, &rangeErr)).To(BeTrue())
		Expect(rangeErr.Row).To(Equal(uint32(5)))
		Expect(logBuf.String()).To(ContainSubstring("[ERROR]"))
	})

	ginkgo.It("should report malformed headers", func() {
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).AnyTimes()
		expectHeader([]uint32{2, 5, 6, 0})

		tick(2)

		var headerErr *table.MalformedHeaderError
		Expect(errors.As(fatalErr, &headerErr)).To(BeTrue())
		Expect(v.Context().HeaderLoaded()).To(BeFalse())
	})

	ginkgo.It("should keep running past the limit when infinite", func() {
		lifecycle.EXPECT().Infinite().Return(true).AnyTimes()
		limit = 1
		build()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).AnyTimes()
		expectHeader(header)
		expectRow(4, hello)
		recorder.EXPECT().Record(0, gomock.Any()).Return(true)

		Expect(tick(5)).To(Equal(StatusRunning))
	})

	ginkgo.It("should count packets", func() {
		build()

		v.ReceiveData(1, 2)
		v.ReceiveData(3, 4)

		Expect(v.Packets()).To(Equal(uint64(2)))
	})

	ginkgo.It("should use a header already loaded in a shared context", func() {
		expectHeader(header).Times(1)
		ctx := NewContext()
		_, err := ctx.LoadHeader(input)
		Expect(err).NotTo(HaveOccurred())

		lifecycle.EXPECT().Infinite().Return(false).AnyTimes()
		lifecycle.EXPECT().Ticks().Return(limit).AnyTimes()
		recorder.EXPECT().DoTimestepUpdate(gomock.Any()).Times(2)
		expectRow(4, hello).Times(1)
		recorder.EXPECT().
			Record(0, []byte("Hello\x00\x00\x00")).
			Return(true).
			Times(1)

		v = MakeBuilder().
			WithContext(ctx).
			WithLifecycle(lifecycle).
			WithRecorder(recorder, 0b101).
			WithInput(input).
			Build("Vertex")
		v.Start()

		Expect(v.Context()).To(BeIdenticalTo(ctx))
		Expect(v.RecordingFlags()).To(Equal(uint32(0b101)))
		Expect(tick(2)).To(Equal(StatusRunning))
	})
})

var _ = ginkgo.Describe("Context", func() {
	ginkgo.It("should decode the header once", func() {
		mockCtrl := gomock.NewController(ginkgo.GinkgoT())
		defer mockCtrl.Finish()

		input := NewMockWordReader(mockCtrl)
		input.EXPECT().ReadWords(uint32(0), gomock.Any()).
			DoAndReturn(func(_ uint32, dst []uint32) error {
				copy(dst, []uint32{1, 1, 4, 0})
				return nil
			}).
			Times(1)

		ctx := NewContext()
		h1, err := ctx.LoadHeader(input)
		Expect(err).NotTo(HaveOccurred())
		h2, err := ctx.LoadHeader(input)
		Expect(err).NotTo(HaveOccurred())

		Expect(h1).To(Equal(h2))
		Expect(ctx.Time).To(Equal(uint32(ClockSentinel)))
	})
})
