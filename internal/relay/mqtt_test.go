package relay

import (
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type doneToken struct {
	mqtt.Token
	err error
}

func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

type sentMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// recordingClient answers every publish at once and remembers it.
type recordingClient struct {
	mqtt.Client
	sent []sentMessage
	err  error
}

func (c *recordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, sentMessage{topic, qos, retained, string(payload.([]byte))})
	return doneToken{err: c.err}
}

func (c *recordingClient) Disconnect(uint) {}

var _ = Describe("MQTTMirror", func() {
	It("normalizes broker and topic", func() {
		m := NewMQTTMirror("localhost:1883", "gridscan/")
		Expect(m.broker).To(Equal("tcp://localhost:1883"))
		Expect(m.topic).To(Equal("gridscan"))
		Expect(NewMQTTMirror("ssl://broker:8883", "q").broker).To(Equal("ssl://broker:8883"))
	})

	It("refuses to publish before connecting and counts the error", func() {
		m := NewMQTTMirror("localhost:1883", "gridscan")
		Expect(m.Publish(EventRefreshData, []byte("{}"))).To(MatchError(errMQTTNotConnected))
		Expect(m.Publish(EventProjectLive, []byte("{}"))).To(MatchError(errMQTTNotConnected))

		stats := m.Stats()
		Expect(stats.Connected).To(BeFalse())
		Expect(stats.Errors).To(BeEquivalentTo(2))
		Expect(stats.Published).To(BeEmpty())
		m.Close()
	})

	It("publishes per event topic and retains only the lists", func() {
		client := &recordingClient{}
		m := NewMQTTMirror("localhost:1883", "gridscan")
		m.client = client
		m.setConnected(true)

		Expect(m.Publish(EventRefreshData, []byte(`{"a":1}`))).To(Succeed())
		Expect(m.Publish(EventProjectLive, []byte(`{"b":2}`))).To(Succeed())

		Expect(client.sent).To(Equal([]sentMessage{
			{"gridscan/" + EventRefreshData, 1, true, `{"a":1}`},
			{"gridscan/" + EventProjectLive, 1, false, `{"b":2}`},
		}))
		stats := m.Stats()
		Expect(stats.Published).To(HaveKeyWithValue("gridscan/"+EventRefreshData, BeEquivalentTo(1)))
		Expect(stats.Errors).To(BeZero())

		m.Close()
		Expect(m.Stats().Connected).To(BeFalse())
	})

	It("counts broker-side failures", func() {
		m := NewMQTTMirror("localhost:1883", "gridscan")
		m.client = &recordingClient{err: errors.New("not authorized")}
		m.setConnected(true)

		Expect(m.Publish(EventRefreshData, nil)).To(MatchError(ContainSubstring("not authorized")))
		Expect(m.Stats().Errors).To(BeEquivalentTo(1))
	})
})
