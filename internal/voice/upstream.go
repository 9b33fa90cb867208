package voice

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Stream is the bidirectional live transport. The production implementation
// dials the Gemini Live websocket; tests substitute a fake.
type Stream interface {
	Send(v any) error
	Recv() (*ServerMessage, error)
	Close() error
}

// DialFunc opens a Stream and completes the setup handshake.
type DialFunc func(ctx context.Context, setup SetupMessage) (Stream, error)

type liveStream struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// DialLive connects to the Gemini Live endpoint, sends the setup frame, and
// waits for setupComplete before returning.
func DialLive(apiKey string) DialFunc {
	return func(ctx context.Context, setup SetupMessage) (Stream, error) {
		u, err := url.Parse(liveEndpoint)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}

		s := &liveStream{conn: conn}
		if err := s.Send(setup); err != nil {
			_ = s.Close()
			return nil, err
		}

		// The server's first frame must confirm setup.
		_ = conn.SetReadDeadline(time.Now().Add(15 * time.Second))
		msg, err := s.Recv()
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		_ = conn.SetReadDeadline(time.Time{})
		if msg.SetupComplete == nil {
			_ = s.Close()
			return nil, ErrSetupFailed
		}
		return s, nil
	}
}

func (s *liveStream) Send(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(v)
}

func (s *liveStream) Recv() (*ServerMessage, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *liveStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
