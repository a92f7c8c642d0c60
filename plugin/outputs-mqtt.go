package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
	Pt "github.com/maroda/pulsemon/types"
)

// MQTTOutput publishes readings as JSON telemetry.
// Status changes are retained so late subscribers see the current alert.
type MQTTOutput struct {
	MU      sync.Mutex
	Client  *paho.Client
	Topic   string
	Timeout time.Duration
	last    Pt.DetectionState
	sent    bool
}

// NewMQTTOutput connects to broker (host:port) with a fresh session
func NewMQTTOutput(ctx context.Context, broker, topic, clientID string) (*MQTTOutput, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", broker)
	if err != nil {
		slog.Error("MQTTOutput failed to dial", slog.String("broker", broker), slog.Any("error", err))
		return nil, fmt.Errorf("mqtt dial: %w", err)
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: clientID,
	})

	ca, err := client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  30,
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	if ca.ReasonCode != 0 {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect refused: reason %d", ca.ReasonCode)
	}

	slog.Info("MQTTOutput connected",
		slog.String("broker", broker),
		slog.String("topic", topic),
		slog.String("clientID", clientID))

	return &MQTTOutput{
		Client:  client,
		Topic:   topic,
		Timeout: 5 * time.Second,
	}, nil
}

func (mo *MQTTOutput) publish(topic string, payload []byte, retain bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), mo.Timeout)
	defer cancel()

	_, err := mo.Client.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     0,
		Retain:  retain,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (mo *MQTTOutput) WriteReading(r *Pt.Reading) error {
	payload, err := EncodeJSON(r)
	if err != nil {
		return fmt.Errorf("encode reading %d: %w", r.Seq, err)
	}
	if err := mo.publish(mo.Topic, payload, false); err != nil {
		return err
	}

	mo.MU.Lock()
	changed := r.Classified && (!mo.sent || r.State != mo.last)
	if changed {
		mo.last, mo.sent = r.State, true
	}
	mo.MU.Unlock()

	if changed {
		return mo.publish(mo.Topic+"/status", []byte(r.State.String()), true)
	}
	return nil
}

func (mo *MQTTOutput) WriteBatch(rs []*Pt.Reading) error {
	for _, r := range rs {
		if err := mo.WriteReading(r); err != nil {
			return err
		}
	}
	return nil
}

func (mo *MQTTOutput) QueryRange(_, _ time.Time) ([]*Pt.Reading, error) {
	return nil, ErrNoHistory
}

// Flush is a no-op, QoS 0 publishes are not queued
func (mo *MQTTOutput) Flush() error { return nil }

func (mo *MQTTOutput) Close() error {
	return mo.Client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

func (mo *MQTTOutput) Type() string { return "MQTT" }
