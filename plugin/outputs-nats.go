package plugin

import (
	"fmt"
	"log/slog"
	"time"

	Pt "github.com/maroda/pulsemon/types"
	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the output needs
type Publisher interface {
	Publish(subj string, data []byte) error
	Flush() error
	Drain() error
}

// NATSOutput publishes every reading as JSON on Subject
type NATSOutput struct {
	Conn    Publisher
	Subject string
}

// ConnectNATS dials the server and keeps reconnecting forever
func ConnectNATS(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
}

func NewNATSOutput(url, subject string) (*NATSOutput, error) {
	nc, err := ConnectNATS(url, "pulsemon")
	if err != nil {
		slog.Error("NATSOutput failed to connect", slog.String("url", url), slog.Any("error", err))
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	slog.Info("NATSOutput connected", slog.String("url", url), slog.String("subject", subject))
	return &NATSOutput{Conn: nc, Subject: subject}, nil
}

// SubjectFor puts mode switches on their own subject
func (no *NATSOutput) SubjectFor(r *Pt.Reading) string {
	if r.ModeChanged {
		return no.Subject + ".mode"
	}
	return no.Subject
}

func (no *NATSOutput) WriteReading(r *Pt.Reading) error {
	data, err := EncodeJSON(r)
	if err != nil {
		return fmt.Errorf("encode reading %d: %w", r.Seq, err)
	}
	if err := no.Conn.Publish(no.SubjectFor(r), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (no *NATSOutput) WriteBatch(rs []*Pt.Reading) error {
	for _, r := range rs {
		if err := no.WriteReading(r); err != nil {
			return err
		}
	}
	return no.Flush()
}

func (no *NATSOutput) QueryRange(_, _ time.Time) ([]*Pt.Reading, error) {
	return nil, ErrNoHistory
}

func (no *NATSOutput) Flush() error {
	return no.Conn.Flush()
}

// Close drains pending messages before closing the connection
func (no *NATSOutput) Close() error {
	return no.Conn.Drain()
}

func (no *NATSOutput) Type() string { return "NATS" }
