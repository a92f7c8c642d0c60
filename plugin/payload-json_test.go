package plugin_test

import (
	"encoding/json"
	"testing"
	"time"

	Pp "github.com/maroda/pulsemon/plugin"
	Pt "github.com/maroda/pulsemon/types"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEncodeJSON(t *testing.T) {
	r := &Pt.Reading{
		Session: "abc", Seq: 3, Value: 45, Mode: Pt.Detect,
		State: Pt.RateLow, Classified: true, Timestamp: testNow,
	}
	data, err := Pp.EncodeJSON(r)
	assertError(t, err, nil)

	var raw map[string]any
	assertError(t, json.Unmarshal(data, &raw), nil)
	assertString(t, raw["code"].(string), "L")
	assertString(t, raw["status"].(string), "LOW")
	assertString(t, raw["mode_name"].(string), "detect")
	assertInt(t, int(raw["bpm"].(float64)), 45)

	got, err := Pp.DecodeJSON(data)
	assertError(t, err, nil)
	if got.State != Pt.RateLow || got.Mode != Pt.Detect || !got.Timestamp.Equal(testNow) {
		t.Errorf("DecodeJSON() = %+v", got)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `BEAT 72`},
		{"empty code", `{"bpm": 72, "code": ""}`},
		{"unknown code", `{"bpm": 72, "code": "Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pp.DecodeJSON([]byte(tt.data))
			assertGotError(t, err)
		})
	}
}
