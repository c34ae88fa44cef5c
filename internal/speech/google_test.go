package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req synthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello", req.Input.Text)
		assert.Equal(t, "en-US", req.Voice.LanguageCode)
		assert.Equal(t, "FEMALE", req.Voice.SSMLGender)
		assert.Equal(t, "MP3", req.AudioConfig.AudioEncoding)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString([]byte("mp3-bytes")),
		})
	}))
	defer srv.Close()

	client := NewGoogleClient(GoogleConfig{APIKey: "k", TTSURL: srv.URL}, zerolog.Nop())
	audio, err := client.Synthesize(context.Background(), "Hello", "en-US")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestGoogleClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req recognizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ar-XA", req.Config.LanguageCode)
		assert.Equal(t, "WEBM_OPUS", req.Config.Encoding)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("clip")), req.Audio.Content)

		_, _ = w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"what is "}]},{"alternatives":[{"transcript":"harira"}]}]}`))
	}))
	defer srv.Close()

	client := NewGoogleClient(GoogleConfig{APIKey: "k", STTURL: srv.URL}, zerolog.Nop())
	text, err := client.Transcribe(context.Background(), Clip{Data: []byte("clip"), Encoding: "WEBM_OPUS"}, "ar-XA")
	require.NoError(t, err)
	assert.Equal(t, "what is harira", text)
}

func TestGoogleClient_Errors(t *testing.T) {
	client := NewGoogleClient(GoogleConfig{}, zerolog.Nop())
	_, err := client.Synthesize(context.Background(), "hi", "en-US")
	assert.ErrorIs(t, err, ErrMissingKey)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer failing.Close()

	client = NewGoogleClient(GoogleConfig{APIKey: "k", TTSURL: failing.URL, STTURL: failing.URL}, zerolog.Nop())
	_, err = client.Synthesize(context.Background(), "hi", "en-US")
	assert.ErrorContains(t, err, "status 429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer empty.Close()

	client = NewGoogleClient(GoogleConfig{APIKey: "k", STTURL: empty.URL}, zerolog.Nop())
	_, err = client.Transcribe(context.Background(), Clip{Data: []byte("x")}, "en-US")
	assert.ErrorContains(t, err, "no speech")
}
