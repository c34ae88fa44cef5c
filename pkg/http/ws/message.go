package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeSendText    = "send_text"
	TypeClear       = "clear"
	TypeVoiceStart  = "voice_start"
	TypeVoiceChunk  = "voice_chunk"
	TypeVoiceStop   = "voice_stop"
	TypeVoiceCancel = "voice_cancel"
	TypeVoiceDenied = "voice_denied"
	TypePing        = "ping"

	// Server -> Client
	TypeTranscriptUpdate = "transcript_update"
	TypeSpeechReady      = "speech_ready"
	TypeVoiceAck         = "voice_ack"
	TypeError            = "error"
	TypePong             = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into an envelope.
func NewMessage(msgType string, payload interface{}, requestID string) (Message, error) {
	msg := Message{Type: msgType, RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type SendTextPayload struct {
	Text string `json:"text"`
}

type VoiceStartPayload struct {
	// Speech-to-Text encoding name, e.g. WEBM_OPUS or LINEAR16.
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sample_rate_hertz,omitempty"`
}

type VoiceChunkPayload struct {
	Data []byte `json:"data"` // base64 in JSON
}

type VoiceDeniedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// Server Messages (outgoing)

type VoiceAckPayload struct {
	Status string `json:"status"` // recording, cancelled
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
