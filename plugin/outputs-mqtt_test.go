package plugin_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	Pp "github.com/maroda/pulsemon/plugin"
	Pt "github.com/maroda/pulsemon/types"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

type mqttInbox struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (in *mqttInbox) add(topic string, payload []byte) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.msgs[topic] = append(in.msgs[topic], append([]byte(nil), payload...))
}

func (in *mqttInbox) count(topic string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.msgs[topic])
}

func (in *mqttInbox) waitFor(topic string, n int) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if in.count(topic) >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// startBroker runs an in-process broker that allows every client
func startBroker(t *testing.T) (string, *mqttInbox) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	assertError(t, err, nil)
	addr := l.Addr().String()
	l.Close()

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assertError(t, server.AddHook(new(auth.AllowHook), nil), nil)
	assertError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "pulsemon-test",
		Address: addr,
	})), nil)
	assertError(t, server.Serve(), nil)
	t.Cleanup(func() { server.Close() })

	inbox := &mqttInbox{msgs: map[string][][]byte{}}
	err = server.Subscribe("pulsemon/#", 1, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		inbox.add(pk.TopicName, pk.Payload)
	})
	assertError(t, err, nil)

	return addr, inbox
}

func TestMQTTOutput(t *testing.T) {
	addr, inbox := startBroker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mo, err := Pp.NewMQTTOutput(ctx, addr, "pulsemon/readings", "pulsemon-test-client")
	if err != nil {
		t.Fatalf("NewMQTTOutput() = %v", err)
	}

	t.Run("Publishes readings as JSON", func(t *testing.T) {
		assertError(t, mo.WriteReading(&Pt.Reading{Seq: 1, Value: 74}), nil)
		if !inbox.waitFor("pulsemon/readings", 1) {
			t.Fatalf("broker did not receive the reading")
		}

		inbox.mu.Lock()
		got, err := Pp.DecodeJSON(inbox.msgs["pulsemon/readings"][0])
		inbox.mu.Unlock()
		assertError(t, err, nil)
		assertInt(t, int(got.Value), 74)
	})

	t.Run("Status is published only when it changes", func(t *testing.T) {
		rs := []*Pt.Reading{
			{Seq: 2, Value: 205, Classified: true, State: Pt.RateHigh},
			{Seq: 3, Value: 206, Classified: true, State: Pt.RateHigh},
			{Seq: 4, Value: 80, Classified: true, State: Pt.Normal},
		}
		assertError(t, mo.WriteBatch(rs), nil)

		if !inbox.waitFor("pulsemon/readings", 4) {
			t.Fatalf("broker did not receive the batch")
		}
		if !inbox.waitFor("pulsemon/readings/status", 2) {
			t.Fatalf("broker did not receive status changes")
		}
		time.Sleep(50 * time.Millisecond)
		assertInt(t, inbox.count("pulsemon/readings/status"), 2)

		inbox.mu.Lock()
		assertString(t, string(inbox.msgs["pulsemon/readings/status"][0]), "HIGH")
		inbox.mu.Unlock()
	})

	t.Run("Streams only", func(t *testing.T) {
		_, err := mo.QueryRange(testNow, testNow)
		assertError(t, err, Pp.ErrNoHistory)
		assertError(t, mo.Flush(), nil)
		assertString(t, mo.Type(), "MQTT")
	})

	assertError(t, mo.Close(), nil)
}

func TestMQTTOutput_NoBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Pp.NewMQTTOutput(ctx, "127.0.0.1:1", "x", "nobody")
	assertGotError(t, err)
}
