package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHandler struct {
	*ComponentBase
}

func (namedHandler) Handle(Event) error {
	return nil
}

var _ = Describe("EventLogger", func() {
	It("should log the events before they are handled", func() {
		buf := new(bytes.Buffer)
		engine := NewSerialEngine()
		engine.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		evt := NewEventBase(0.5, namedHandler{NewComponentBase("Core")})
		evt.SetPriority(2)
		engine.Schedule(evt)

		Expect(engine.Run()).To(Succeed())
		Expect(buf.String()).To(Equal(
			"0.5000000000, *sim.EventBase (p2) -> Core\n"))
	})
})
