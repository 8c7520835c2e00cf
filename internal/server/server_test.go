// ABOUTME: Tests for the dashboard HTTP API and WebSocket feed
// ABOUTME: Runs the router under httptest with real multipart uploads
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/metrics"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	m := metrics.New()
	s := New(Config{Name: "test-dashboard", MaxReports: 10}, analysis.New(drift.DefaultConfig(), m), m)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func logCSV(n int) string {
	var b strings.Builder
	b.WriteString("usElapsedStd,usElapsedSys,usAckAckTimestampStd,usAckAckTimestampSys,usRTTStd,usRTTSys,usSmoothedRTTStd,usSmoothedRTTSys\n")
	for k := 0; k < n; k++ {
		fmt.Fprintf(&b, "%d,%d,%d,%d,20000,20000,20000,20000\n", 1000+k*1000+k, 2000+k*1000, k*1000, k*1000)
	}
	return b.String()
}

func upload(t *testing.T, url string, fields map[string]string, files map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	resp, err := http.Post(url+"/api/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return resp
}

func TestHealthAndIndex(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health healthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, health)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	var page bytes.Buffer
	page.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(page.String(), "test-dashboard") || !strings.Contains(page.String(), `name="files"`) {
		t.Error("index page missing name or upload form")
	}
}

func TestAnalyzeUpload(t *testing.T) {
	s, ts := newTestServer(t)

	resp := upload(t, ts.URL,
		map[string]string{"local_clock": "Sys", "remote_clock": "Std"},
		map[string]string{"a.csv": logCSV(50), "b.csv": logCSV(120)})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var reports []analysis.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	for _, r := range reports {
		if r.Error != "" {
			t.Errorf("%s failed: %s", r.Name, r.Error)
		}
		if r.LocalClock != drift.System || r.RemoteClock != drift.Steady {
			t.Errorf("%s clocks = %v/%v", r.Name, r.LocalClock, r.RemoteClock)
		}
		if len(r.Figures) != 3 {
			t.Errorf("%s figures = %d, want 3", r.Name, len(r.Figures))
		}
	}
	if s.Reports().Len() != 2 {
		t.Errorf("stored reports = %d, want 2", s.Reports().Len())
	}

	// Stored reports are listed and retrievable
	listResp, err := http.Get(ts.URL + "/api/reports")
	if err != nil {
		t.Fatal(err)
	}
	var list []reportSummary
	json.NewDecoder(listResp.Body).Decode(&list)
	listResp.Body.Close()
	if len(list) != 2 {
		t.Fatalf("listed = %d, want 2", len(list))
	}

	getResp, err := http.Get(ts.URL + "/api/reports/" + list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Errorf("get report status = %d", getResp.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/api/reports/nope")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing report status = %d, want 404", missing.StatusCode)
	}
}

func TestAnalyzeUploadErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
		status int
	}{
		{"no files", nil, nil, http.StatusBadRequest},
		{"bad clock", map[string]string{"local_clock": "utc"}, map[string]string{"a.csv": logCSV(5)}, http.StatusBadRequest},
		{"only broken logs", nil, map[string]string{"bad.csv": "usElapsedStd\n1\n"}, http.StatusBadRequest},
		{"one broken log", nil, map[string]string{"bad.csv": "x\n1\n", "good.csv": logCSV(5)}, http.StatusOK},
	}

	for _, tt := range tests {
		resp := upload(t, ts.URL, tt.fields, tt.files)
		resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, resp.StatusCode, tt.status)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts.URL, nil, map[string]string{"a.csv": logCSV(20)})
	resp.Body.Close()

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	body.ReadFrom(mresp.Body)
	mresp.Body.Close()

	for _, want := range []string{
		`drift_tracer_analyses_total{result="ok"} 1`,
		`drift_tracer_http_requests_total{code="2xx",route="/api/analyze"} 1`,
	} {
		if !strings.Contains(body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNewSharesAnalyzerMetrics(t *testing.T) {
	m := metrics.New()
	s := New(Config{Name: "shared"}, analysis.New(drift.DefaultConfig(), m), nil)
	if s.metrics != m {
		t.Fatal("expected server to reuse the analyzer's metrics")
	}

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	resp := upload(t, ts.URL, nil, map[string]string{"a.csv": logCSV(20)})
	resp.Body.Close()

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	body.ReadFrom(mresp.Body)
	mresp.Body.Close()
	if want := `drift_tracer_analyses_total{result="ok"} 1`; !strings.Contains(body.String(), want) {
		t.Errorf("metrics missing %q", want)
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func hello(t *testing.T, conn *websocket.Conn, id string) {
	t.Helper()
	send(t, conn, protocol.TypeClientHello, protocol.ClientHello{ClientID: id, Name: id, Version: protocol.Version})
	if env := receive(t, conn); env.Type != protocol.TypeServerHello {
		t.Fatalf("expected server/hello, got %s", env.Type)
	}
}

func TestWebSocketAnalyzeBroadcast(t *testing.T) {
	_, ts := newTestServer(t)

	requester := dial(t, ts)
	hello(t, requester, "cli")
	watcher := dial(t, ts)
	hello(t, watcher, "browser")

	send(t, requester, protocol.TypeClientAnalyze, protocol.ClientAnalyze{
		RequestID: "req-1",
		Name:      "feed.csv",
		Data:      logCSV(30),
	})

	for _, conn := range []*websocket.Conn{requester, watcher} {
		env := receive(t, conn)
		if env.Type != protocol.TypeServerReport {
			t.Fatalf("expected server/report, got %s", env.Type)
		}
		var msg protocol.ServerReport
		if err := env.DecodePayload(&msg); err != nil {
			t.Fatal(err)
		}
		var report analysis.Report
		if err := json.Unmarshal(msg.Report, &report); err != nil {
			t.Fatal(err)
		}
		if msg.RequestID != "req-1" || msg.Origin != "cli" || report.Name != "feed.csv" || report.Rows != 30 {
			t.Errorf("unexpected report message: %+v / %+v", msg, report)
		}
	}
}

func TestWebSocketErrors(t *testing.T) {
	_, ts := newTestServer(t)

	conn := dial(t, ts)
	hello(t, conn, "cli")

	// Schema-valid request whose log misses the remote Sys column
	send(t, conn, protocol.TypeClientAnalyze, protocol.ClientAnalyze{
		RequestID:   "req-2",
		Name:        "std-only.csv",
		RemoteClock: "Sys",
		Data:        "usElapsedStd,usAckAckTimestampStd,usRTTStd\n1,1,1\n",
	})
	env := receive(t, conn)
	var serverErr protocol.ServerError
	env.DecodePayload(&serverErr)
	if env.Type != protocol.TypeServerError || serverErr.Kind != protocol.ErrorKindConfiguration || serverErr.RequestID != "req-2" {
		t.Errorf("unexpected error message: %s %+v", env.Type, serverErr)
	}

	// Schema violation
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"client/analyze","payload":{"name":"x.csv"}}`))
	env = receive(t, conn)
	env.DecodePayload(&serverErr)
	if serverErr.Kind != protocol.ErrorKindProtocol {
		t.Errorf("kind = %s, want protocol", serverErr.Kind)
	}

	// Duplicate client IDs are rejected
	dup := dial(t, ts)
	send(t, dup, protocol.TypeClientHello, protocol.ClientHello{ClientID: "cli", Name: "again", Version: protocol.Version})
	if env := receive(t, dup); env.Type != protocol.TypeServerError {
		t.Errorf("duplicate hello got %s, want server/error", env.Type)
	}
}

func TestUploadStatus(t *testing.T) {
	ok, _ := analysis.New(drift.DefaultConfig(), nil).Analyze(t.Context(), analysis.Request{Name: "a", Data: []byte(logCSV(3))})
	bad, _ := analysis.New(drift.DefaultConfig(), nil).Analyze(t.Context(), analysis.Request{Name: "b", Data: []byte("x\n1\n")})

	if got := uploadStatus([]*analysis.Report{bad, ok}); got != http.StatusOK {
		t.Errorf("mixed = %d, want 200", got)
	}
	if got := uploadStatus([]*analysis.Report{bad}); got != http.StatusBadRequest {
		t.Errorf("input errors = %d, want 400", got)
	}
}
