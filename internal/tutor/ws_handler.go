package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth/jwt"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/speech"
	httperrors "github.com/spotlight2/coach/pkg/http/errors"
	ws "github.com/spotlight2/coach/pkg/http/ws"
)

// TokenValidator checks the socket's access token.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// HandleWebSocket upgrades GET /ws/tutor?token= and serves the learner's
// socket until it closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, claims.LearnerID)
}

// HandleConnection runs the read loop for an upgraded socket. Any capture
// left open when the socket closes is released.
func (h *Handler) HandleConnection(conn *websocket.Conn, learner uuid.UUID) {
	logger := h.logger.With().Str("learner_id", learner.String()).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(learner, wsConn)

	go wsConn.WritePump()

	s := &socketSession{h: h, learner: learner, conn: wsConn, logger: logger}
	s.pushTranscript()

	wsConn.ReadPump(s.handle)

	s.close()
	h.hub.UnregisterConnection(learner, wsConn)
}

// socketSession is the per-socket state: at most one open capture.
type socketSession struct {
	h       *Handler
	learner uuid.UUID
	conn    *ws.Connection
	logger  zerolog.Logger

	mu      sync.Mutex
	capture *speech.Capture
}

func (s *socketSession) handle(msg ws.Message) error {
	switch msg.Type {
	case ws.TypeSendText:
		return s.handleSendText(msg)
	case ws.TypeClear:
		return s.handleClear()
	case ws.TypeVoiceStart:
		return s.handleVoiceStart(msg)
	case ws.TypeVoiceChunk:
		return s.handleVoiceChunk(msg)
	case ws.TypeVoiceStop:
		return s.handleVoiceStop(msg)
	case ws.TypeVoiceCancel:
		s.releaseCapture()
		return s.send(ws.TypeVoiceAck, ws.VoiceAckPayload{Status: "cancelled"}, msg.RequestID)
	case ws.TypeVoiceDenied:
		return s.handleVoiceDenied(msg)
	case ws.TypePing:
		return s.send(ws.TypePong, nil, msg.RequestID)
	default:
		return s.sendError(httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type), msg.RequestID)
	}
}

func (s *socketSession) conversation() (*Conversation, preferences.Language) {
	lang := s.h.prefs.For(context.Background(), s.learner).Language()
	return s.h.convs.Conversation(s.learner, lang), lang
}

func (s *socketSession) handleSendText(msg ws.Message) error {
	var req ws.SendTextPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid send_text payload", msg.RequestID)
	}
	conv, lang := s.conversation()

	// The read loop stays free so a clear can interrupt this request.
	go func() {
		outcome, err := s.h.pipeline.SendText(context.Background(), conv, req.Text, lang)
		s.reportSend(outcome, err, msg.RequestID)
	}()
	return nil
}

func (s *socketSession) handleClear() error {
	if s.h.speech != nil {
		s.h.speech.Stop(s.learner)
	}
	conv, lang := s.conversation()
	s.h.pipeline.Clear(conv, lang)
	return nil
}

func (s *socketSession) handleVoiceStart(msg ws.Message) error {
	var req ws.VoiceStartPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid voice_start payload", msg.RequestID)
		}
	}
	if req.Encoding == "" {
		req.Encoding = "WEBM_OPUS"
	}

	capture, err := s.h.recorder.Acquire(s.learner, req.Encoding, req.SampleRateHertz)
	if errors.Is(err, speech.ErrCaptureBusy) {
		return s.sendError(httperrors.ErrCodeCaptureBusy, "A recording is already in progress", msg.RequestID)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.capture = capture
	s.mu.Unlock()

	return s.send(ws.TypeVoiceAck, ws.VoiceAckPayload{Status: "recording"}, msg.RequestID)
}

func (s *socketSession) handleVoiceChunk(msg ws.Message) error {
	var req ws.VoiceChunkPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Invalid voice_chunk payload", msg.RequestID)
	}

	s.mu.Lock()
	capture := s.capture
	s.mu.Unlock()
	if capture == nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "No recording in progress", msg.RequestID)
	}

	if _, err := capture.Write(req.Data); err != nil {
		s.releaseCapture()
		if errors.Is(err, speech.ErrClipTooLarge) {
			return s.sendError(httperrors.ErrCodeClipTooLarge, "Recording is too long", msg.RequestID)
		}
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Recording was interrupted", msg.RequestID)
	}
	return nil
}

func (s *socketSession) handleVoiceStop(msg ws.Message) error {
	s.mu.Lock()
	capture := s.capture
	s.capture = nil
	s.mu.Unlock()
	if capture == nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "No recording in progress", msg.RequestID)
	}

	clip, err := capture.Stop()
	capture.Release()
	if err != nil {
		return s.sendError(httperrors.ErrCodeInvalidPayload, "Recording was interrupted", msg.RequestID)
	}

	conv, lang := s.conversation()
	go func() {
		outcome, err := s.h.pipeline.SendVoice(context.Background(), conv, clip, lang)
		s.reportSend(outcome, err, msg.RequestID)
	}()
	return nil
}

func (s *socketSession) handleVoiceDenied(msg ws.Message) error {
	var req ws.VoiceDeniedPayload
	if len(msg.Payload) > 0 {
		_ = json.Unmarshal(msg.Payload, &req)
	}
	s.releaseCapture()

	conv, lang := s.conversation()
	_ = s.h.pipeline.ReportPermissionDenied(conv, lang, req.Reason)
	return nil
}

// reportSend answers only what the transcript push cannot show.
func (s *socketSession) reportSend(outcome Outcome, err error, requestID string) {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrEmptyClip):
		_ = s.sendError(httperrors.ErrCodeEmptyMessage, err.Error(), requestID)
	case !outcome.Accepted && err == nil:
		_ = s.sendError(httperrors.ErrCodeTutorBusy, "The tutor is still answering", requestID)
	}
}

func (s *socketSession) pushTranscript() {
	conv, _ := s.conversation()
	_ = s.send(ws.TypeTranscriptUpdate, conv.Snapshot(), "")
}

func (s *socketSession) releaseCapture() {
	s.mu.Lock()
	capture := s.capture
	s.capture = nil
	s.mu.Unlock()
	if capture != nil {
		capture.Release()
	}
}

func (s *socketSession) close() {
	s.releaseCapture()
	if s.h.speech != nil {
		s.h.speech.Stop(s.learner)
	}
	s.h.prefs.Forget(s.learner)
}

func (s *socketSession) send(msgType string, payload interface{}, requestID string) error {
	msg, err := ws.NewMessage(msgType, payload, requestID)
	if err != nil {
		return err
	}
	return s.conn.Send(msg)
}

func (s *socketSession) sendError(code, message, requestID string) error {
	return s.send(ws.TypeError, ws.ErrorPayload{Code: code, Message: message}, requestID)
}
