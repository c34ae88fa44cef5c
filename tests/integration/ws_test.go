//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/spotlight2/coach/pkg/http/ws"
)

func TestWebSocketTutor(t *testing.T) {
	baseHTTP := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/tutor")

	guest := createGuest(t, baseHTTP, "Socket")
	conn := dialTutorWS(t, baseWS, guest.AccessToken)
	defer conn.Close()

	initial := waitForTranscript(t, conn, 5*time.Second, func(tr transcriptView) bool { return true })
	if len(initial.Messages) != 1 {
		t.Fatalf("expected only the welcome message, got %d", len(initial.Messages))
	}

	sendWS(t, conn, wsmsg.TypePing, nil)
	waitForType(t, conn, wsmsg.TypePong, 5*time.Second)

	sendWS(t, conn, wsmsg.TypeSendText, wsmsg.SendTextPayload{Text: "Give me one quiz question"})
	settled := waitForTranscript(t, conn, 60*time.Second, func(tr transcriptView) bool {
		return tr.State != "pending" && len(tr.Messages) == 3
	})
	if settled.Messages[2].Sender != "assistant" {
		t.Fatalf("last message is not a reply: %+v", settled.Messages[2])
	}

	sendWS(t, conn, wsmsg.TypeClear, nil)
	cleared := waitForTranscript(t, conn, 5*time.Second, func(tr transcriptView) bool { return len(tr.Messages) == 1 })
	if cleared.State != "idle" {
		t.Fatalf("unexpected state after clear: %s", cleared.State)
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/tutor")

	_, resp, err := websocket.DefaultDialer.Dial(baseWS, nil)
	if err == nil {
		t.Fatal("dial without token succeeded")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func dialTutorWS(t *testing.T, wsBase, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	msg, err := wsmsg.NewMessage(msgType, payload, "")
	if err != nil {
		t.Fatalf("build %s message: %v", msgType, err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s message: %v", msgType, err)
	}
}

func waitForType(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

func waitForTranscript(t *testing.T, conn *websocket.Conn, timeout time.Duration, done func(transcriptView) bool) transcriptView {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		msg := waitForType(t, conn, wsmsg.TypeTranscriptUpdate, time.Until(deadline))
		var tr transcriptView
		if err := json.Unmarshal(msg.Payload, &tr); err != nil {
			t.Fatalf("decode transcript: %v", err)
		}
		if done(tr) {
			return tr
		}
	}
}
