package plugin

/*
	JSON payload

	The wire format used by the streaming outputs (NATS, MQTT).
	Carries the status character and its text so consumers
	do not need to know the DetectionState enum.
*/

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	Pt "github.com/maroda/pulsemon/types"
)

type ReadingJSON struct {
	Session     string    `json:"session"`
	Seq         uint64    `json:"seq"`
	BPM         uint8     `json:"bpm"`
	Mode        int       `json:"mode"`
	ModeName    string    `json:"mode_name"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	Classified  bool      `json:"classified"`
	ModeChanged bool      `json:"mode_changed"`
	Timestamp   time.Time `json:"ts"`
}

// ToJSON is the wire view of a Reading
func ToJSON(r *Pt.Reading) ReadingJSON {
	return ReadingJSON{
		Session:     r.Session,
		Seq:         r.Seq,
		BPM:         r.Value,
		Mode:        int(r.Mode),
		ModeName:    r.Mode.String(),
		Code:        string(r.State.Char()),
		Status:      r.State.String(),
		Classified:  r.Classified,
		ModeChanged: r.ModeChanged,
		Timestamp:   r.Timestamp,
	}
}

// EncodeJSON marshals a Reading into its wire format
func EncodeJSON(r *Pt.Reading) ([]byte, error) {
	return json.Marshal(ToJSON(r))
}

// DecodeJSON reverses EncodeJSON
func DecodeJSON(data []byte) (*Pt.Reading, error) {
	var rj ReadingJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		slog.Error("Error unmarshalling json",
			slog.String("json", string(data)),
			slog.Any("error", err))
		return nil, fmt.Errorf("error unmarshalling reading: %w", err)
	}

	if len(rj.Code) != 1 {
		return nil, fmt.Errorf("bad status code %q", rj.Code)
	}
	st, ok := Pt.StateFromChar(rj.Code[0])
	if !ok {
		return nil, fmt.Errorf("unknown status code %q", rj.Code)
	}

	return &Pt.Reading{
		Session:     rj.Session,
		Seq:         rj.Seq,
		Value:       rj.BPM,
		Mode:        Pt.MonitoringMode(rj.Mode),
		State:       st,
		Classified:  rj.Classified,
		ModeChanged: rj.ModeChanged,
		Timestamp:   rj.Timestamp,
	}, nil
}
