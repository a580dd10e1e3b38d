package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/sarchlab/tablevertex/datarecording"
)

const sampleCSV = "name,count\nHello,1\nWorld,22\n"

var _ = Describe("Pack", func() {
	var opts packOptions

	BeforeEach(func() {
		opts = packOptions{
			ticks:       3,
			timerPeriod: 1000,
			channels:    []uint32{256},
			skipHeader:  true,
		}
	})

	It("should derive the layout from the table", func() {
		img, err := imageFromCSV(strings.NewReader(sampleCSV), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(img.NumCols).To(Equal(uint32(2)))
		Expect(img.TypeFlags).To(Equal(uint32(0b10)))
		Expect(img.EntryWidth).To(Equal(uint32(8)))
		Expect(img.Entries).To(Equal([][]byte{
			[]byte("Hello,1"),
			[]byte("World,22"),
		}))
	})

	It("should keep the header row when asked", func() {
		opts.skipHeader = false

		img, err := imageFromCSV(strings.NewReader(sampleCSV), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(img.Entries).To(HaveLen(3))
		Expect(img.TypeFlags).To(Equal(uint32(0)))
		Expect(img.EntryWidth).To(Equal(uint32(12)))
	})

	It("should use the given width", func() {
		opts.width = 4

		img, err := imageFromCSV(strings.NewReader(sampleCSV), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(img.EntryWidth).To(Equal(uint32(4)))
	})

	It("should refuse widths that are not whole words", func() {
		opts.width = 6

		img, err := imageFromCSV(strings.NewReader(sampleCSV), opts)
		Expect(err).NotTo(HaveOccurred())

		_, err = encodeImage(img)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Run and dump", func() {
	It("should run an image and list what it recorded", func() {
		img, err := imageFromCSV(strings.NewReader(sampleCSV), packOptions{
			ticks:       3,
			timerPeriod: 1000,
			channels:    []uint32{256},
			skipHeader:  true,
		})
		Expect(err).NotTo(HaveOccurred())

		data, err := encodeImage(img)
		Expect(err).NotTo(HaveOccurred())

		db := filepath.Join(GinkgoT().TempDir(), "rec")
		out := new(bytes.Buffer)
		err = runImage("sample.img", data, runOptions{
			resumes: 1,
			db:      db,
		}, out)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring(`row 0: "Hello,1"`))
		Expect(out.String()).To(ContainSubstring("Recorded 2 entries"))

		reader := datarecording.NewReader(db + ".sqlite3")
		defer reader.Close()

		out.Reset()
		Expect(dump(context.Background(), reader, 0, 0, out)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Image:"))
		Expect(out.String()).To(ContainSubstring(`"Hello,1"`))
		Expect(out.String()).To(ContainSubstring("2 of 2 entries"))
	})
})

var _ = Describe("Environment defaults", func() {
	It("should fill the flags that are not set", func() {
		GinkgoT().Setenv(envTicks, "42")
		GinkgoT().Setenv(envDB, "from-env")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Uint32("ticks", 0, "")
		flags.String("db", "", "")
		Expect(flags.Parse([]string{"--db", "from-flag"})).To(Succeed())

		Expect(applyEnvDefaults(flags)).To(Succeed())

		ticks, _ := flags.GetUint32("ticks")
		db, _ := flags.GetString("db")
		Expect(ticks).To(Equal(uint32(42)))
		Expect(db).To(Equal("from-flag"))
	})

	It("should report invalid values", func() {
		GinkgoT().Setenv(envTicks, "many")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Uint32("ticks", 0, "")

		Expect(applyEnvDefaults(flags)).NotTo(Succeed())
	})
})
