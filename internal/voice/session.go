package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/audio"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
)

const (
	// CaptureSampleRate is the rate the browser leg captures microphone audio at.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the rate the live agent speaks at, mono.
	PlaybackSampleRate = 24000

	captureMimeType = "audio/pcm;rate=16000"
)

var (
	ErrSetupFailed   = errors.New("voice: live setup was not confirmed")
	ErrAlreadyActive = errors.New("voice: a session is already starting")
)

// Capture delivers raw PCM16 chunks from the user's microphone leg.
type Capture interface {
	Chunks() <-chan []byte
	Stop()
}

// Sink receives session output. Callbacks may be nil and must not block.
type Sink struct {
	// PlayAudio is invoked at each buffer's scheduled start time.
	PlayAudio func(pcm []byte, sampleRate int)
	// StateChanged fires after a tool call mutated the calculator.
	StateChanged func(calcstate.View)
	// Speaking fires on agent speaking indicator transitions.
	Speaking func(bool)
	// Closed fires exactly once when the session has fully torn down.
	Closed func(err error)
}

// ChannelCapture is the production Capture: the websocket handler pushes
// decoded chunks, the session drains them. Pushes after Stop are dropped.
type ChannelCapture struct {
	ch     chan []byte
	mu     sync.Mutex
	closed bool
}

func NewChannelCapture(depth int) *ChannelCapture {
	if depth <= 0 {
		depth = 32
	}
	return &ChannelCapture{ch: make(chan []byte, depth)}
}

// Push hands one chunk to the session. A full queue drops the chunk rather
// than blocking the reader; the transport has no backpressure signal.
func (c *ChannelCapture) Push(chunk []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.ch <- chunk:
		return true
	default:
		return false
	}
}

func (c *ChannelCapture) Chunks() <-chan []byte { return c.ch }

func (c *ChannelCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

// Session owns one live conversation: capture -> encode -> transmit,
// receive -> decode -> schedule playback, receive -> tool call -> state.
type Session struct {
	id        string
	log       *logrus.Entry
	state     *calcstate.State
	stream    Stream
	capture   Capture
	scheduler *audio.Scheduler
	sink      Sink

	done     chan struct{}
	stopOnce sync.Once
	onStop   func()
}

func (s *Session) ID() string { return s.id }

// Speaking reports whether scheduled agent audio is still playing.
func (s *Session) Speaking() bool { return s.scheduler.Speaking() }

// Stop tears the session down: capture first, then the playback clock, then
// the stream handle. Idempotent; late chunks and messages are ignored.
func (s *Session) Stop() {
	s.stop(nil)
}

func (s *Session) stop(cause error) {
	s.stopOnce.Do(func() {
		close(s.done)
		s.capture.Stop()
		s.scheduler.Stop()
		_ = s.stream.Close()
		if s.onStop != nil {
			s.onStop()
		}
		if cause != nil {
			s.log.WithError(cause).Warn("voice session ended with error")
		} else {
			s.log.Info("voice session ended")
		}
		if s.sink.Closed != nil {
			s.sink.Closed(cause)
		}
	})
}

func (s *Session) captureLoop() {
	for {
		select {
		case <-s.done:
			return
		case chunk, ok := <-s.capture.Chunks():
			if !ok {
				return
			}
			msg := RealtimeInputMessage{RealtimeInput: RealtimeInput{
				MediaChunks: []Blob{{MimeType: captureMimeType, Data: audio.EncodeTransport(chunk)}},
			}}
			if err := s.stream.Send(msg); err != nil {
				s.stop(err)
				return
			}
		}
	}
}

func (s *Session) recvLoop() {
	for {
		msg, err := s.stream.Recv()
		if err != nil {
			select {
			case <-s.done:
				// Expected read failure during teardown.
			default:
				s.stop(err)
			}
			return
		}

		select {
		case <-s.done:
			return
		default:
		}

		switch {
		case msg.ToolCall != nil:
			s.handleToolCall(msg.ToolCall)
		case msg.ServerContent != nil:
			s.handleServerContent(msg.ServerContent)
		case msg.GoAway != nil:
			s.stop(nil)
			return
		}
	}
}

func (s *Session) handleToolCall(tc *ToolCallPayload) {
	if len(tc.FunctionCalls) == 0 {
		return
	}

	responses := make([]FunctionResponse, 0, len(tc.FunctionCalls))
	mutated := false
	for _, call := range tc.FunctionCalls {
		resp := dispatchToolCall(s.state, call)
		if resp.Response["result"] == "ok" {
			mutated = true
		}
		s.log.WithFields(logrus.Fields{
			"call":   call.Name,
			"result": resp.Response["result"],
		}).Debug("tool call")
		responses = append(responses, resp)
	}

	if err := s.stream.Send(ToolResponseMessage{ToolResponse: ToolResponsePayload{FunctionResponses: responses}}); err != nil {
		s.stop(err)
		return
	}
	if mutated && s.sink.StateChanged != nil {
		s.sink.StateChanged(s.state.View())
	}
}

func (s *Session) handleServerContent(sc *ServerContent) {
	if sc.Interrupted {
		s.scheduler.Flush()
		return
	}
	if sc.ModelTurn == nil {
		return
	}
	for _, p := range sc.ModelTurn.Parts {
		if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "audio/pcm") {
			continue
		}
		pcm, err := audio.DecodeTransport(p.InlineData.Data)
		if err != nil {
			s.log.WithError(err).Warn("dropping undecodable audio part")
			continue
		}
		s.scheduler.Schedule(audio.Buffer{Data: pcm, SampleRate: PlaybackSampleRate, Channels: 1})
	}
}

// Manager enforces the single-session policy. A start request while a session
// is active stops that session instead of opening a second one.
type Manager struct {
	log   *logrus.Entry
	state *calcstate.State
	dial  DialFunc
	clock audio.Clock
	model string

	mu       sync.Mutex
	starting bool
	active   *Session
}

func NewManager(log *logrus.Logger, state *calcstate.State, dial DialFunc, model string) *Manager {
	return &Manager{
		log:   log.WithField("component", "voice"),
		state: state,
		dial:  dial,
		clock: audio.SystemClock(),
		model: model,
	}
}

// SetClock swaps the playback clock, used by tests.
func (m *Manager) SetClock(c audio.Clock) { m.clock = c }

// Active returns the running session, if any.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Start opens a live session. Toggle semantics: if a session is already
// active it is stopped and (nil, nil) is returned. A concurrent start that is
// still dialing is rejected with ErrAlreadyActive.
func (m *Manager) Start(ctx context.Context, capture Capture, sink Sink) (*Session, error) {
	m.mu.Lock()
	if m.active != nil {
		prev := m.active
		m.mu.Unlock()
		capture.Stop()
		prev.Stop()
		return nil, nil
	}
	if m.starting {
		m.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	m.starting = true
	m.mu.Unlock()

	setup := SetupMessage{Setup: SetupPayload{
		Model:             m.model,
		GenerationConfig:  &GenerationConfig{ResponseModalities: []string{"AUDIO"}},
		SystemInstruction: &Content{Parts: []Part{{Text: systemInstruction}}},
		Tools:             toolDeclarations(),
	}}

	stream, err := m.dial(ctx, setup)
	if err != nil {
		capture.Stop()
		m.mu.Lock()
		m.starting = false
		m.mu.Unlock()
		return nil, err
	}

	sess := &Session{
		id:      uuid.NewString(),
		state:   m.state,
		stream:  stream,
		capture: capture,
		sink:    sink,
		done:    make(chan struct{}),
	}
	sess.log = m.log.WithField("session_id", sess.id)
	sess.scheduler = audio.NewScheduler(m.clock, func(b audio.Buffer) {
		if sink.PlayAudio != nil {
			sink.PlayAudio(b.Data, b.SampleRate)
		}
	})
	if sink.Speaking != nil {
		sess.scheduler.OnSpeaking(sink.Speaking)
	}
	sess.onStop = func() {
		m.mu.Lock()
		if m.active == sess {
			m.active = nil
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.starting = false
	m.active = sess
	m.mu.Unlock()

	sess.scheduler.Begin()
	go sess.captureLoop()
	go sess.recvLoop()

	sess.log.Info("voice session active")
	return sess, nil
}

// StopActive tears down the running session, if any. No-op when idle.
func (m *Manager) StopActive() {
	m.mu.Lock()
	sess := m.active
	m.mu.Unlock()
	if sess != nil {
		sess.Stop()
	}
}
