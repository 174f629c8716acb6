package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/services"
)

const (
	voiceFrameLimit = 1 << 20
	maxVoiceAudio   = 25 << 20
	voiceAudioMIME  = "audio/webm"

	closeMissingToken websocket.StatusCode = 4001
	closeInvalidToken websocket.StatusCode = 4002
)

// TokenParser resolves a session token to a user id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// ChatSender continues a user's stored conversation.
type ChatSender interface {
	Send(ctx context.Context, userID, text string) (*services.ChatTurn, error)
}

// VoiceHandler serves the voice chat socket. Binary frames carry recorded
// audio; a {"event":"end"} text frame closes the utterance, which is
// transcribed and answered by the agent.
type VoiceHandler struct {
	tokens TokenParser
	stt    core.Transcriber
	chat   ChatSender
	accept *websocket.AcceptOptions
	logger *slog.Logger
}

// NewVoiceHandler builds the handler. origins are the allowed CORS origins;
// "*" disables the origin check.
func NewVoiceHandler(tokens TokenParser, stt core.Transcriber, chat ChatSender, origins []string, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{
		tokens: tokens,
		stt:    stt,
		chat:   chat,
		accept: acceptOptions(origins),
		logger: orDefault(logger),
	}
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		} else {
			opts.OriginPatterns = append(opts.OriginPatterns, o)
		}
	}
	return opts
}

type voiceControl struct {
	Event    string `json:"event"`
	MimeType string `json:"mime_type,omitempty"`
}

type voiceEvent struct {
	Type          string `json:"type"`
	Text          string `json:"text,omitempty"`
	Error         string `json:"error,omitempty"`
	LimitExceeded bool   `json:"limit_exceeded,omitempty"`
}

func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.logger.Warn("voice socket accept failed", "error", err)
		return
	}
	defer ws.CloseNow()

	// Browsers cannot set headers on a socket, so the token rides in the query.
	token := r.URL.Query().Get("token")
	if token == "" {
		_ = ws.Close(closeMissingToken, "missing token")
		return
	}
	userID, err := h.tokens.Parse(token)
	if err != nil {
		_ = ws.Close(closeInvalidToken, "invalid token")
		return
	}

	ws.SetReadLimit(voiceFrameLimit)
	ctx := r.Context()
	h.logger.Info("voice session started", "user_id", userID)

	var audio bytes.Buffer
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				h.logger.Warn("voice socket read failed", "user_id", userID, "error", err)
			}
			h.logger.Info("voice session ended", "user_id", userID)
			return
		}

		if typ == websocket.MessageBinary {
			if audio.Len()+len(data) > maxVoiceAudio {
				audio.Reset()
				if h.send(ctx, ws, voiceEvent{Type: "error", Error: "Recording too large"}) != nil {
					return
				}
				continue
			}
			audio.Write(data)
			continue
		}

		var ctl voiceControl
		if json.Unmarshal(data, &ctl) != nil {
			continue
		}
		switch ctl.Event {
		case "reset":
			audio.Reset()
		case "end":
			if audio.Len() == 0 {
				if h.send(ctx, ws, voiceEvent{Type: "error", Error: "No audio received"}) != nil {
					return
				}
				continue
			}
			clip := bytes.Clone(audio.Bytes())
			audio.Reset()

			mimeType := voiceAudioMIME
			if strings.HasPrefix(ctl.MimeType, "audio/") {
				mimeType = ctl.MimeType
			}
			if err := h.reply(ctx, ws, userID, clip, mimeType); err != nil {
				return
			}
		}
	}
}

// reply transcribes one utterance and answers it. The returned error is only
// set when the socket can no longer be written.
func (h *VoiceHandler) reply(ctx context.Context, ws *websocket.Conn, userID string, clip []byte, mimeType string) error {
	transcript, err := h.stt.Transcribe(ctx, clip, mimeType)
	if err != nil {
		h.logger.Error("transcription failed", "user_id", userID, "bytes", len(clip), "error", err)
		return h.send(ctx, ws, voiceEvent{Type: "error", Error: "Transcription failed"})
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return h.send(ctx, ws, voiceEvent{Type: "error", Error: "No speech detected"})
	}
	if err := h.send(ctx, ws, voiceEvent{Type: "transcript", Text: transcript}); err != nil {
		return err
	}

	turn, err := h.chat.Send(ctx, userID, transcript)
	if err != nil {
		h.logger.Error("voice turn failed", "user_id", userID, "error", err)
		return h.send(ctx, ws, voiceEvent{Type: "error", Error: "The assistant could not answer"})
	}
	return h.send(ctx, ws, voiceEvent{
		Type:          "assistant_text",
		Text:          turn.Reply,
		LimitExceeded: turn.LimitExceeded,
	})
}

func (h *VoiceHandler) send(ctx context.Context, ws *websocket.Conn, ev voiceEvent) error {
	if err := wsjson.Write(ctx, ws, ev); err != nil {
		h.logger.Debug("voice socket write failed", "type", ev.Type, "error", err)
		return err
	}
	return nil
}
