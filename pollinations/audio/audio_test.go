package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blossom-ai/blossom-go/pollinations"
)

var fakeMP3 = []byte("ID3\x04fake-mp3-payload")

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := pollinations.NewClient(
		pollinations.WithTextBase(server.URL),
		pollinations.WithLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewService(client)
}

// ---------------------------------------------------------------------------
// Speech
// ---------------------------------------------------------------------------

func TestSpeech_Success(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/good%20morning", r.URL.EscapedPath())
		q := r.URL.Query()
		assert.Equal(t, "openai-audio", q.Get("model"))
		assert.Equal(t, "nova", q.Get("voice"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(fakeMP3)
	})

	data, err := svc.Speech(context.Background(), &SpeechRequest{
		Text:  "good morning",
		Voice: "nova",
	})
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, data)
}

func TestSpeech_DefaultVoice(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alloy", r.URL.Query().Get("voice"))
		w.Write(fakeMP3)
	})

	_, err := svc.Speech(context.Background(), &SpeechRequest{Text: "hi"})
	require.NoError(t, err)
}

func TestSpeech_Validation(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	tests := []struct {
		name string
		req  *SpeechRequest
	}{
		{"empty text", &SpeechRequest{}},
		{"unknown voice", &SpeechRequest{Text: "hi", Voice: "chipmunk"}},
		{"speed too low", &SpeechRequest{Text: "hi", Speed: 0.1}},
		{"speed too high", &SpeechRequest{Text: "hi", Speed: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Speech(context.Background(), tt.req)
			pe, ok := pollinations.AsError(err)
			require.True(t, ok)
			assert.Equal(t, pollinations.ErrInvalidRequest, pe.Code)
			assert.NotEmpty(t, pe.Suggestion)
		})
	}
}

func TestSpeakToFile(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeMP3)
	})

	path := filepath.Join(t.TempDir(), "out.mp3")
	err := svc.SpeakToFile(context.Background(), &SpeechRequest{Text: "hi"}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, data)

	// 目录里不应残留临时文件
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSpeech_ContentFiltered(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"content policy violation: safety system"}}`)
	})

	_, err := svc.Speech(context.Background(), &SpeechRequest{Text: "hi"})
	pe, ok := pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrContentFiltered, pe.Code)
	assert.False(t, pe.Retryable)
}

// ---------------------------------------------------------------------------
// Transcribe
// ---------------------------------------------------------------------------

func TestTranscribe_Success(t *testing.T) {
	audioBytes := []byte("fake-wav-bytes")
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/openai", r.URL.Path)

		var req pollinations.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai-audio", req.Model)
		require.Len(t, req.Messages, 1)

		parts := req.Messages[0].Parts
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].Type)
		require.Equal(t, "input_audio", parts[1].Type)
		assert.Equal(t, "wav", parts[1].InputAudio.Format)
		decoded, err := base64.StdEncoding.DecodeString(parts[1].InputAudio.Data)
		require.NoError(t, err)
		assert.Equal(t, audioBytes, decoded)

		json.NewEncoder(w).Encode(pollinations.ChatResponse{
			Choices: []pollinations.ChatChoice{{
				Message: pollinations.ChoiceOutput{Content: "hello from the tape"},
			}},
		})
	})

	text, err := svc.Transcribe(context.Background(), &TranscriptionRequest{
		Audio:  audioBytes,
		Format: "wav",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the tape", text)
}

func TestTranscribe_Validation(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := svc.Transcribe(context.Background(), &TranscriptionRequest{Format: "wav"})
	pe, ok := pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrInvalidRequest, pe.Code)

	_, err = svc.Transcribe(context.Background(), &TranscriptionRequest{
		Audio:  []byte("x"),
		Format: "flac",
	})
	pe, ok = pollinations.AsError(err)
	require.True(t, ok)
	assert.Equal(t, pollinations.ErrInvalidRequest, pe.Code)
}

func TestTranscribeFile(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req pollinations.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mp3", req.Messages[0].Parts[1].InputAudio.Format)
		json.NewEncoder(w).Encode(pollinations.ChatResponse{
			Choices: []pollinations.ChatChoice{{
				Message: pollinations.ChoiceOutput{Content: "ok"},
			}},
		})
	})

	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3-bytes"), 0o644))

	text, err := svc.TranscribeFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

// ---------------------------------------------------------------------------
// Voices
// ---------------------------------------------------------------------------

func TestVoicesCatalog(t *testing.T) {
	voices := Voices()
	require.NotEmpty(t, voices)

	seen := map[string]bool{}
	for _, v := range voices {
		assert.NotEmpty(t, v.ID)
		assert.False(t, seen[v.ID], "duplicate voice %s", v.ID)
		seen[v.ID] = true
	}
	assert.True(t, KnownVoice("alloy"))
	assert.False(t, KnownVoice("chipmunk"))
}
