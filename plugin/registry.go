package plugin

import (
	"context"
	"fmt"
	"time"
)

// Settings configures every output, each factory reads what it needs
type Settings struct {
	Enabled      []string `json:"enabled"`
	BadgerPath   string   `json:"badger_path"`
	BadgerBatch  int      `json:"badger_batch"`
	NATSURL      string   `json:"nats_url"`
	NATSSubject  string   `json:"nats_subject"`
	MQTTBroker   string   `json:"mqtt_broker"` // host:port
	MQTTTopic    string   `json:"mqtt_topic"`
	MQTTClientID string   `json:"mqtt_client_id"`
	MIDIPort     int      `json:"midi_port"`
	MIDIRoot     uint8    `json:"midi_root"`
	SerialDevice string   `json:"serial_device"` // "-" is stdout
}

// Outputs is a global map of OutputAdapter factories
var Outputs = map[string]func(s Settings) (OutputAdapter, error){
	"badger": func(s Settings) (OutputAdapter, error) {
		return NewBadgerOutput(s.BadgerPath, s.BadgerBatch)
	},
	"midi": func(s Settings) (OutputAdapter, error) {
		return NewMIDIOutput(s.MIDIPort, s.MIDIRoot)
	},
	"nats": func(s Settings) (OutputAdapter, error) {
		return NewNATSOutput(s.NATSURL, s.NATSSubject)
	},
	"mqtt": func(s Settings) (OutputAdapter, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return NewMQTTOutput(ctx, s.MQTTBroker, s.MQTTTopic, s.MQTTClientID)
	},
	"serial": func(s Settings) (OutputAdapter, error) {
		return OpenSerialOutput(s.SerialDevice)
	},
}

func OutputLookup(name string, s Settings) (OutputAdapter, error) {
	factory, ok := Outputs[name]
	if !ok {
		return nil, fmt.Errorf("unknown output: %s", name)
	}
	return factory(s)
}
