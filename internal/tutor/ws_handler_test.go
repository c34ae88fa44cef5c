package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spotlight2/coach/internal/auth/jwt"
	"github.com/spotlight2/coach/internal/preferences"
	"github.com/spotlight2/coach/internal/speech"
	ws "github.com/spotlight2/coach/pkg/http/ws"
)

type staticTokens map[string]uuid.UUID

func (s staticTokens) ValidateToken(token string) (*jwt.Claims, error) {
	id, ok := s[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &jwt.Claims{LearnerID: id}, nil
}

type socketFixture struct {
	url      string
	learner  uuid.UUID
	recorder *speech.Recorder
	stops    *stopRecorder
	store    *memPrefs
	prefs    *preferences.Registry
}

func newSocketFixture(t *testing.T, responder Responder, transcriber Transcriber) socketFixture {
	t.Helper()
	learner := uuid.New()
	hub := ws.NewHub(zerolog.Nop())
	rec := speech.NewRecorder(0)
	stops := &stopRecorder{}
	store := &memPrefs{langs: map[uuid.UUID]preferences.Language{}}
	prefs := preferences.NewRegistry(store, zerolog.Nop())

	h := NewHandler(HandlerDeps{
		Pipeline: newTestPipeline(responder, transcriber, nil, NewPusher(hub, zerolog.Nop())),
		Manager:  NewManager(),
		Prefs:    prefs,
		Recorder: rec,
		Speech:   stops,
		Hub:      hub,
		Tokens:   staticTokens{"good": learner},
	}, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	return socketFixture{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		learner:  learner,
		recorder: rec,
		stops:    stops,
		store:    store,
		prefs:    prefs,
	}
}

func (f socketFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url+"?token=good", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	msg, err := ws.NewMessage(msgType, payload, "")
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// next reads until a message of msgType arrives.
func next(t *testing.T, conn *websocket.Conn, msgType string) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func transcriptOf(t *testing.T, msg ws.Message) Transcript {
	t.Helper()
	var tr Transcript
	require.NoError(t, json.Unmarshal(msg.Payload, &tr))
	return tr
}

func TestWebSocket_RejectsBadToken(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_SendTextPushesTranscript(t *testing.T) {
	responder := new(mockResponder)
	responder.On("Generate", mock.Anything, mock.Anything).Return("Some is for positive sentences.", nil)
	f := newSocketFixture(t, responder, nil)
	conn := f.dial(t)

	first := transcriptOf(t, next(t, conn, ws.TypeTranscriptUpdate))
	require.Len(t, first.Messages, 1)
	assert.Equal(t, Welcome(preferences.English), first.Messages[0].Text)

	send(t, conn, ws.TypeSendText, ws.SendTextPayload{Text: "some vs any?"})

	var settled Transcript
	for settled.State != StateResolved {
		settled = transcriptOf(t, next(t, conn, ws.TypeTranscriptUpdate))
	}
	require.Len(t, settled.Messages, 3)
	assert.Equal(t, "Some is for positive sentences.", settled.Messages[2].Text)
}

func TestWebSocket_ClearStopsSpeech(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)

	send(t, conn, ws.TypeClear, nil)

	tr := transcriptOf(t, next(t, conn, ws.TypeTranscriptUpdate))
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, Greeting(preferences.English), tr.Messages[0].Text)
	f.stops.mu.Lock()
	assert.Contains(t, f.stops.stopped, f.learner)
	f.stops.mu.Unlock()
}

func TestWebSocket_VoiceRoundTrip(t *testing.T) {
	transcriber := new(mockTranscriber)
	transcriber.On("Transcribe", mock.Anything, mock.MatchedBy(func(c speech.Clip) bool {
		return string(c.Data) == "abcdef" && c.Encoding == "WEBM_OPUS"
	}), "en-US").Return("quiz me", nil)
	responder := new(mockResponder)
	responder.On("Generate", mock.Anything, mock.Anything).Return("Question 1 ...", nil)
	f := newSocketFixture(t, responder, transcriber)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)

	send(t, conn, ws.TypeVoiceStart, ws.VoiceStartPayload{})
	next(t, conn, ws.TypeVoiceAck)
	assert.Equal(t, 1, f.recorder.Open())

	send(t, conn, ws.TypeVoiceChunk, ws.VoiceChunkPayload{Data: []byte("abc")})
	send(t, conn, ws.TypeVoiceChunk, ws.VoiceChunkPayload{Data: []byte("def")})
	send(t, conn, ws.TypeVoiceStop, nil)

	var settled Transcript
	for settled.State != StateResolved {
		settled = transcriptOf(t, next(t, conn, ws.TypeTranscriptUpdate))
	}
	assert.Equal(t, VoicePrefix+"quiz me", settled.Messages[1].Text)
	assert.Equal(t, 0, f.recorder.Open())
}

func TestWebSocket_DisconnectReleasesCapture(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)

	send(t, conn, ws.TypeVoiceStart, ws.VoiceStartPayload{Encoding: "LINEAR16", SampleRateHertz: 16000})
	next(t, conn, ws.TypeVoiceAck)
	send(t, conn, ws.TypeVoiceChunk, ws.VoiceChunkPayload{Data: []byte("abc")})
	require.Equal(t, 1, f.recorder.Open())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return f.recorder.Open() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_VoiceDenied(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)

	send(t, conn, ws.TypeVoiceDenied, ws.VoiceDeniedPayload{Reason: "NotAllowedError"})

	tr := transcriptOf(t, next(t, conn, ws.TypeTranscriptUpdate))
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, PermissionNotice(preferences.English), tr.Messages[1].Text)
}

func TestWebSocket_Errors(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)

	send(t, conn, "dance", nil)
	var payload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(next(t, conn, ws.TypeError).Payload, &payload))
	assert.Equal(t, "unknown_message_type", payload.Code)

	send(t, conn, ws.TypeVoiceStop, nil)
	require.NoError(t, json.Unmarshal(next(t, conn, ws.TypeError).Payload, &payload))
	assert.Equal(t, "invalid_payload", payload.Code)

	send(t, conn, ws.TypeSendText, ws.SendTextPayload{Text: "  "})
	require.NoError(t, json.Unmarshal(next(t, conn, ws.TypeError).Payload, &payload))
	assert.Equal(t, "empty_message", payload.Code)
}

func TestWebSocket_DisconnectForgetsPreferences(t *testing.T) {
	f := newSocketFixture(t, new(mockResponder), nil)
	conn := f.dial(t)
	next(t, conn, ws.TypeTranscriptUpdate)
	require.Equal(t, preferences.English, f.prefs.For(context.Background(), f.learner).Language())

	require.NoError(t, f.store.Save(context.Background(), f.learner, preferences.French))
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return f.prefs.For(context.Background(), f.learner).Language() == preferences.French
	}, 2*time.Second, 10*time.Millisecond)
}
