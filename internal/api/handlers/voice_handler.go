package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/audio"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/utils"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/voice"
)

// VoiceHandler is the browser leg of the voice bridge: it receives microphone
// chunks over a websocket, feeds them to the live session, and pushes the
// agent's scheduled audio and state updates back.
type VoiceHandler struct {
	manager  *voice.Manager
	enabled  bool
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func NewVoiceHandler(manager *voice.Manager, enabled bool, log *logrus.Entry) *VoiceHandler {
	return &VoiceHandler{
		manager: manager,
		enabled: enabled,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type voiceClientMsg struct {
	Type        string `json:"type"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

func (h *VoiceHandler) SessionWS(c *gin.Context) {
	if !h.enabled {
		writeError(c, utils.E(utils.CodeUnavailable, "VoiceHandler.SessionWS",
			"voice control is disabled: no GEMINI_API_KEY configured", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote a response in most cases
		return
	}
	wc := &wsConn{c: conn}
	defer conn.Close()

	capture := voice.NewChannelCapture(64)
	sink := voice.Sink{
		PlayAudio: func(pcm []byte, sampleRate int) {
			_ = wc.writeJSON(gin.H{
				"type":        "audio",
				"data":        audio.EncodeTransport(pcm),
				"sample_rate": sampleRate,
			})
		},
		StateChanged: func(v calcstate.View) {
			_ = wc.writeJSON(gin.H{"type": "state", "state": v})
		},
		Speaking: func(on bool) {
			_ = wc.writeJSON(gin.H{"type": "speaking", "value": on})
		},
		Closed: func(err error) {
			if err != nil {
				_ = wc.writeJSON(gin.H{"type": "error", "message": "voice session ended unexpectedly"})
			}
			_ = wc.writeJSON(gin.H{"type": "closed"})
		},
	}

	sess, err := h.manager.Start(c.Request.Context(), capture, sink)
	if err != nil {
		h.log.WithError(err).Warn("voice session start failed")
		_ = wc.writeJSON(gin.H{"type": "error", "message": "could not start voice session"})
		return
	}
	if sess == nil {
		// Toggle semantics: this start request stopped the running session.
		_ = wc.writeJSON(gin.H{"type": "toggled_off"})
		return
	}
	defer sess.Stop()

	_ = wc.writeJSON(gin.H{"type": "ready", "session_id": sess.ID(), "capture_rate": voice.CaptureSampleRate})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg voiceClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "message": "invalid json"})
			continue
		}

		switch msg.Type {
		case "audio_chunk":
			pcm, err := audio.DecodeTransport(msg.AudioBase64)
			if err != nil {
				_ = wc.writeJSON(gin.H{"type": "error", "message": "invalid audio_base64"})
				continue
			}
			capture.Push(pcm)

		case "stop":
			return

		default:
			_ = wc.writeJSON(gin.H{"type": "error", "message": "unknown message type"})
		}
	}
}
