package verify

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"brio/devkit/internal/bridge"
	"brio/devkit/internal/bridge/model"
	"brio/devkit/internal/config"
	"brio/devkit/internal/errors"
	"brio/devkit/internal/logging"
	"brio/devkit/internal/mockkernel"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMock(t *testing.T, mode config.Mode) string {
	t.Helper()

	cfg := config.Default()
	cfg.Mock.Mode = mode
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mockkernel.New(cfg, logging.Discard()).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return "ws://" + ln.Addr().String() + cfg.Endpoint.Path
}

func testOptions(url string, out *bytes.Buffer) Options {
	opts := OptionsFromConfig(config.Default())
	opts.URL = url
	opts.Timeout = 2 * time.Second
	opts.Out = out
	return opts
}

// Frames from the legacy mock are log lines, never status responses.
func TestRunAgainstLegacyMockReportsBothChecksFailed(t *testing.T) {
	url := startMock(t, config.ModeLegacy)
	var out bytes.Buffer

	report, err := Run(context.Background(), bridge.New(time.Second), testOptions(url, &out))

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 0, failed.Passed)
	assert.Equal(t, 2, failed.Total)

	require.Len(t, report.Steps, 2)
	for _, s := range report.Steps {
		assert.False(t, s.Passed, s.Name)
		assert.Equal(t, errors.UnexpectedShape, s.Kind, s.Name)
	}
	assert.False(t, report.Passed())

	text := out.String()
	assert.Contains(t, text, "✅ Connected to Brio Kernel.")
	assert.Contains(t, text, "Mock Kernel Initialized. Welcome to Brio TUI.")
	assert.Contains(t, text, "❌ Task Handling Failed.")
	assert.Contains(t, text, "❌ Query Handling Failed.")
	assert.Contains(t, text, "0/2 checks passed")
	assert.NotContains(t, text, "100% Functional")
}

func TestRunAgainstKernelModePasses(t *testing.T) {
	url := startMock(t, config.ModeKernel)
	var out bytes.Buffer

	report, err := Run(context.Background(), bridge.New(time.Second), testOptions(url, &out))
	require.NoError(t, err)
	assert.True(t, report.Passed())

	task, ok := report.Step(StepTask)
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"success","data":{"task_id":"1","content":"Verify protocol integrity via script","status":"pending"}}`,
		string(task.Response))

	text := out.String()
	assert.Contains(t, text, `Sending Task: {"type":"task","content":"Verify protocol integrity via script"}`)
	assert.Contains(t, text, "✅ Task Handled Successfully.")
	assert.Contains(t, text, "✅ Query Handled Successfully.")
	assert.Contains(t, text, "Data: []")
	assert.Contains(t, text, "🎉 Protocol Verification Complete: 100% Functional.")
}

func TestRunReportsErrorStatus(t *testing.T) {
	url := startMock(t, config.ModeKernel)
	var out bytes.Buffer
	opts := testOptions(url, &out)
	opts.TaskContent = "   "
	opts.QuerySQL = "DELETE FROM tasks"
	opts.Verbose = true

	report, err := Run(context.Background(), bridge.New(time.Second), opts)
	require.Error(t, err)

	task, _ := report.Step(StepTask)
	assert.False(t, task.Passed)
	assert.Equal(t, errors.Kind(""), task.Kind)
	assert.Equal(t, `status "error": Task content cannot be empty`, task.Detail)

	query, _ := report.Step(StepQuery)
	assert.Contains(t, query.Detail, "Only SELECT queries are allowed via WebSocket")
	assert.Contains(t, out.String(), "reason: ")
}

func TestRunTimesOutAndSkipsRemainingSteps(t *testing.T) {
	var frames atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			typ, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if typ == websocket.TextMessage {
				frames.Add(1)
			}
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	opts := testOptions("ws"+strings.TrimPrefix(srv.URL, "http"), &out)
	opts.Timeout = 200 * time.Millisecond

	started := time.Now()
	report, err := Run(context.Background(), bridge.New(time.Second), opts)
	require.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)

	require.Len(t, report.Steps, 2)
	assert.Equal(t, errors.ResponseTimeout, report.Steps[0].Kind)
	assert.Equal(t, errors.ResponseTimeout, report.Steps[1].Kind)
	assert.Contains(t, report.Steps[1].Detail, "not sent")
	assert.Equal(t, int32(1), frames.Load())
	assert.Contains(t, out.String(), "No Task response within 200ms")
}

func TestRunContinuesAfterInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("definitely not json")); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	report, err := Run(context.Background(), bridge.New(time.Second),
		testOptions("ws"+strings.TrimPrefix(srv.URL, "http"), &out))
	require.Error(t, err)

	require.Len(t, report.Steps, 2)
	for _, s := range report.Steps {
		assert.Equal(t, errors.DecodeFailed, s.Kind, s.Name)
		assert.Nil(t, s.Response)
	}
	assert.Equal(t, 2, strings.Count(out.String(), "❌ Invalid JSON Response."))
}

func TestRunConnectFailureIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	var out bytes.Buffer
	report, err := Run(context.Background(), bridge.New(time.Second), testOptions("ws://"+addr+"/ws", &out))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.ConnectFailed), "err = %v", err)
	assert.Empty(t, report.Steps)

	text := out.String()
	assert.Contains(t, text, "❌ Connection Failed: ")
	assert.Contains(t, text, "Ensure the Kernel is running (cargo run -p kernel) before running this script.")
	assert.NotContains(t, text, "Protocol Verification Complete")
}

func TestRunWithHealthStep(t *testing.T) {
	url := startMock(t, config.ModeKernel)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	hs := mockkernel.NewHealthServer()
	go func() { _ = hs.Serve(ln) }()
	defer hs.Stop()

	var out bytes.Buffer
	opts := testOptions(url, &out)
	opts.HealthAddr = ln.Addr().String()

	awaits := 0
	opts.OnAwait = func(string) func() {
		awaits++
		return func() {}
	}

	report, err := Run(context.Background(), bridge.New(time.Second), opts)
	require.NoError(t, err)
	require.Len(t, report.Steps, 3)
	assert.Equal(t, StepHealth, report.Steps[0].Name)
	assert.True(t, report.Steps[0].Passed)
	assert.Equal(t, 3, awaits)
	assert.Contains(t, out.String(), "✅ Kernel Health: SERVING.")
}

func TestCheckHealthUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = CheckHealth(context.Background(), addr, 2*time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.HealthFailed))
}

// fakeBridge scripts transport results without a socket.
type fakeBridge struct {
	sendErr error
	frames  [][]byte
	sent    []model.ClientMessage
	closed  bool
}

func (f *fakeBridge) Connect(context.Context, string) error { return nil }

func (f *fakeBridge) Send(_ context.Context, msg model.ClientMessage) error {
	f.sent = append(f.sent, msg)
	return f.sendErr
}

func (f *fakeBridge) Receive(context.Context, time.Duration) ([]byte, error) {
	if len(f.frames) == 0 {
		return nil, errors.New(errors.PeerClosed, "no more frames")
	}
	frame := f.frames[0]
	f.frames = f.frames[1:]
	return frame, nil
}

func (f *fakeBridge) Close() error {
	f.closed = true
	return nil
}

func TestRunSendFailureSkipsLaterSteps(t *testing.T) {
	fb := &fakeBridge{sendErr: errors.New(errors.PeerClosed, "write frame")}
	var out bytes.Buffer

	report, err := Run(context.Background(), fb, testOptions("ws://kernel/ws", &out))
	require.Error(t, err)
	assert.Len(t, fb.sent, 1)
	assert.True(t, fb.closed)
	assert.Equal(t, errors.PeerClosed, report.Steps[0].Kind)
	assert.Equal(t, errors.PeerClosed, report.Steps[1].Kind)
	assert.Contains(t, out.String(), "Query skipped")
}

func TestRunPrettyPrintsQueryData(t *testing.T) {
	fb := &fakeBridge{frames: [][]byte{
		[]byte(`{"status":"success","data":{"task_id":"7"}}`),
		[]byte(`{"status":"success","data":[{"id":1,"content":"Verify"}]}`),
	}}
	var out bytes.Buffer

	report, err := Run(context.Background(), fb, testOptions("ws://kernel/ws", &out))
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Contains(t, out.String(), "Data: [\n  {\n    \"id\": 1,\n    \"content\": \"Verify\"\n  }\n]")
}

func TestReport(t *testing.T) {
	var empty Report
	assert.False(t, empty.Passed())

	r := Report{Steps: []StepResult{{Name: StepTask, Passed: true}, {Name: StepQuery}}}
	passed, total := r.Count()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 2, total)
	assert.Equal(t, "⚠️  Protocol Verification Complete: 1/2 checks passed.", r.Banner())

	r.Steps[1].Passed = true
	assert.Equal(t, "🎉 Protocol Verification Complete: 100% Functional.", r.Banner())
}
