// ABOUTME: Tests for dashboard protocol messages and schema validation
// ABOUTME: Checks envelopes, payload decoding and rejected client messages
package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(TypeClientAnalyze, ClientAnalyze{
		RequestID:  "r1",
		Name:       "capture.csv",
		LocalClock: "Sys",
		Data:       "usElapsedStd\n1\n",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != TypeClientAnalyze {
		t.Errorf("type = %q", env.Type)
	}

	var req ClientAnalyze
	if err := env.DecodePayload(&req); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if req.RequestID != "r1" || req.LocalClock != "Sys" || req.RemoteClock != "" {
		t.Errorf("unexpected payload: %+v", req)
	}
}

func TestServerReportKeepsRawReport(t *testing.T) {
	report := json.RawMessage(`{"id":"abc","rows":3}`)
	data, err := Encode(TypeServerReport, ServerReport{Origin: "upload", Report: report})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"report":{"id":"abc","rows":3}`) {
		t.Errorf("report not embedded verbatim: %s", data)
	}
}

func TestValidateClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"hello", `{"type":"client/hello","payload":{"client_id":"c1","name":"cli","version":1}}`, false},
		{"hello with device", `{"type":"client/hello","payload":{"client_id":"c1","name":"cli","version":1,"device_info":{"product_name":"x"}}}`, false},
		{"analyze", `{"type":"client/analyze","payload":{"name":"a.csv","data":"x","local_clock":"Std","remote_clock":"Sys"}}`, false},
		{"analyze default clocks", `{"type":"client/analyze","payload":{"name":"a.csv","data":"x"}}`, false},
		{"not json", `{"type":`, true},
		{"unknown type", `{"type":"server/report","payload":{}}`, true},
		{"missing payload", `{"type":"client/hello"}`, true},
		{"hello without id", `{"type":"client/hello","payload":{"name":"cli","version":1}}`, true},
		{"hello version zero", `{"type":"client/hello","payload":{"client_id":"c1","name":"cli","version":0}}`, true},
		{"analyze bad clock", `{"type":"client/analyze","payload":{"name":"a.csv","data":"x","local_clock":"utc"}}`, true},
		{"analyze empty data", `{"type":"client/analyze","payload":{"name":"a.csv","data":""}}`, true},
		{"analyze without name", `{"type":"client/analyze","payload":{"data":"x"}}`, true},
	}

	for _, tt := range tests {
		err := ValidateClientMessage([]byte(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
