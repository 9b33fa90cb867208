package voice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/audio"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/logger"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/pricing"
)

type fakeStream struct {
	sent chan any
	in   chan *ServerMessage

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		sent: make(chan any, 64),
		in:   make(chan *ServerMessage, 64),
	}
}

func (f *fakeStream) Send(v any) error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}
	f.sent <- v
	return nil
}

func (f *fakeStream) Recv() (*ServerMessage, error) {
	msg, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
	return nil
}

func (f *fakeStream) push(msg *ServerMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.in <- msg
	}
}

func startTestSession(t *testing.T, sink Sink) (*Manager, *Session, *fakeStream, *calcstate.State) {
	t.Helper()

	stream := newFakeStream()
	state := calcstate.New()
	dial := func(ctx context.Context, setup SetupMessage) (Stream, error) {
		if setup.Setup.Model == "" || len(setup.Setup.Tools) == 0 {
			t.Error("setup frame missing model or tool declarations")
		}
		return stream, nil
	}

	m := NewManager(logger.New(), state, dial, "models/test-live")
	sess, err := m.Start(context.Background(), NewChannelCapture(4), sink)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Fatal("expected an active session")
	}
	t.Cleanup(sess.Stop)
	return m, sess, stream, state
}

func waitSent(t *testing.T, stream *fakeStream) any {
	t.Helper()
	select {
	case v := <-stream.sent:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound frame")
		return nil
	}
}

func toolCall(id, name, args string) *ServerMessage {
	return &ServerMessage{ToolCall: &ToolCallPayload{FunctionCalls: []FunctionCall{
		{ID: id, Name: name, Args: json.RawMessage(args)},
	}}}
}

func TestToolCallUpdateAmount(t *testing.T) {
	_, _, stream, state := startTestSession(t, Sink{})

	stream.push(toolCall("c1", "updateAmount", `{"amount":250}`))

	resp, ok := waitSent(t, stream).(ToolResponseMessage)
	if !ok {
		t.Fatal("expected tool response frame")
	}
	fr := resp.ToolResponse.FunctionResponses
	if len(fr) != 1 || fr[0].ID != "c1" || fr[0].Response["result"] != "ok" {
		t.Fatalf("unexpected response: %+v", fr)
	}

	v := state.View()
	if v.AmountText != "250" {
		t.Fatalf("amount text = %q, want 250", v.AmountText)
	}
	if v.Snapshot == nil {
		t.Fatal("expected snapshot after tool call")
	}
	want := pricing.ComputeSnapshot(250, pricing.ModeOriginal)
	if math.Abs(v.Snapshot.Quote18.NewMRP-want.Quote18.NewMRP) > 1e-9 {
		t.Errorf("18%% new MRP = %v, want %v", v.Snapshot.Quote18.NewMRP, want.Quote18.NewMRP)
	}
}

func TestToolCallSwitchModeKeepsAmount(t *testing.T) {
	_, _, stream, state := startTestSession(t, Sink{})

	stream.push(toolCall("c1", "updateAmount", `{"amount":250}`))
	waitSent(t, stream)

	stream.push(toolCall("c2", "switchMode", `{"mode":"new"}`))
	resp := waitSent(t, stream).(ToolResponseMessage)
	if resp.ToolResponse.FunctionResponses[0].Response["result"] != "ok" {
		t.Fatal("switchMode not acknowledged as ok")
	}

	v := state.View()
	if v.AmountText != "250" {
		t.Errorf("mode switch altered amount text to %q", v.AmountText)
	}
	if v.Mode != pricing.ModeNew {
		t.Errorf("mode = %v, want new", v.Mode)
	}
}

func TestMalformedToolCallsAcknowledgedWithoutMutation(t *testing.T) {
	_, _, stream, state := startTestSession(t, Sink{})

	cases := []*ServerMessage{
		toolCall("m1", "updateAmount", `{"amount":"lots"}`),
		toolCall("m2", "updateAmount", `{}`),
		toolCall("m3", "switchMode", `{"mode":"sideways"}`),
		toolCall("m4", "formatDisk", `{}`),
	}
	for _, msg := range cases {
		stream.push(msg)
		resp, ok := waitSent(t, stream).(ToolResponseMessage)
		if !ok {
			t.Fatal("malformed call left unacknowledged")
		}
		if resp.ToolResponse.FunctionResponses[0].Response["result"] != "ignored" {
			t.Errorf("call %s: result = %v, want ignored",
				resp.ToolResponse.FunctionResponses[0].ID,
				resp.ToolResponse.FunctionResponses[0].Response["result"])
		}
	}

	if v := state.View(); v.AmountText != "" || v.Mode != pricing.ModeOriginal {
		t.Errorf("malformed calls mutated state: %+v", v)
	}
}

func TestCaptureChunksAreEncodedAndTransmitted(t *testing.T) {
	capture := NewChannelCapture(4)
	stream := newFakeStream()
	state := calcstate.New()
	dial := func(ctx context.Context, setup SetupMessage) (Stream, error) { return stream, nil }

	m := NewManager(logger.New(), state, dial, "models/test-live")
	sess, err := m.Start(context.Background(), capture, Sink{})
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Stop()

	pcm := audio.EncodePCM16([]float32{0.25, -0.25, 0.5})
	capture.Push(pcm)

	msg, ok := waitSent(t, stream).(RealtimeInputMessage)
	if !ok {
		t.Fatal("expected realtime input frame")
	}
	chunks := msg.RealtimeInput.MediaChunks
	if len(chunks) != 1 || chunks[0].MimeType != captureMimeType {
		t.Fatalf("unexpected media chunks: %+v", chunks)
	}
	decoded, err := audio.DecodeTransport(chunks[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != string(pcm) {
		t.Error("transport encoding did not round-trip the capture chunk")
	}
}

func TestServerAudioIsScheduledForPlayback(t *testing.T) {
	played := make(chan []byte, 4)
	sink := Sink{PlayAudio: func(pcm []byte, rate int) {
		if rate != PlaybackSampleRate {
			panic("wrong playback rate")
		}
		played <- pcm
	}}
	_, _, stream, _ := startTestSession(t, sink)

	pcm := audio.EncodePCM16(make([]float32, 240))
	stream.push(&ServerMessage{ServerContent: &ServerContent{ModelTurn: &Content{Parts: []Part{
		{InlineData: &Blob{MimeType: "audio/pcm;rate=24000", Data: audio.EncodeTransport(pcm)}},
	}}}})

	select {
	case got := <-played:
		if string(got) != string(pcm) {
			t.Error("playback bytes differ from decoded server audio")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audio never reached the playback sink")
	}
}

func TestStreamErrorTearsDown(t *testing.T) {
	closed := make(chan error, 1)
	_, sess, stream, _ := startTestSession(t, Sink{Closed: func(err error) { closed <- err }})

	_ = stream.Close() // remote close: Recv starts failing

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session never closed after stream error")
	}
	if sess.Speaking() {
		t.Error("speaking after teardown")
	}
}

func TestTeardownIdempotent(t *testing.T) {
	closedCount := 0
	var mu sync.Mutex
	m, sess, _, _ := startTestSession(t, Sink{Closed: func(error) {
		mu.Lock()
		closedCount++
		mu.Unlock()
	}})

	sess.Stop()
	sess.Stop()
	m.StopActive() // already idle: no-op

	mu.Lock()
	defer mu.Unlock()
	if closedCount != 1 {
		t.Errorf("Closed fired %d times, want 1", closedCount)
	}
	if m.Active() != nil {
		t.Error("manager still reports an active session")
	}
}

func TestStartFailureLeavesManagerIdle(t *testing.T) {
	dial := func(ctx context.Context, setup SetupMessage) (Stream, error) {
		return nil, errors.New("dial refused")
	}
	m := NewManager(logger.New(), calcstate.New(), dial, "models/test-live")

	if _, err := m.Start(context.Background(), NewChannelCapture(1), Sink{}); err == nil {
		t.Fatal("expected dial error")
	}
	if m.Active() != nil {
		t.Error("failed start left an active session")
	}
	m.StopActive() // stopping a session that never started is a no-op
}

func TestStartWhileActiveTogglesOff(t *testing.T) {
	closed := make(chan error, 1)
	m, sess, _, _ := startTestSession(t, Sink{Closed: func(err error) { closed <- err }})

	again, err := m.Start(context.Background(), NewChannelCapture(1), Sink{})
	if err != nil {
		t.Fatal(err)
	}
	if again != nil {
		t.Fatal("second start opened a session, want toggle-off")
	}

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("first session not stopped by toggle")
	}
	_ = sess
	if m.Active() != nil {
		t.Error("manager still active after toggle")
	}
}
