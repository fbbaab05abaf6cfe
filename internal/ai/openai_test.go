package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Complete(t *testing.T) {
	var got openAIChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"你好"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "sk-test", "m1", 2000, 0.7, time.Second)
	out, err := p.Complete(context.Background(), "hi", Temperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "你好", out)

	assert.Equal(t, "m1", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openAIMsg{Role: "user", Content: "hi"}, got.Messages[0])
}

func TestOpenAIProvider_DefaultTemperature(t *testing.T) {
	var got openAIChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "", 0, 0.7, 0)
	_, err := p.Complete(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, 90*time.Second, p.Client.Timeout)
}

func TestOpenAIProvider_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded\n"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "m", 0, 0.7, time.Second)
	_, err := p.Complete(context.Background(), "x", nil)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "upstream exploded", te.Body)
	assert.True(t, errors.Is(err, ErrCompletionFailed))
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "m", 0, 0.7, time.Second)
	_, err := p.Complete(context.Background(), "x", nil)

	var ee *EmptyResponseError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestOpenAIProvider_ErrorBodyIn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "m", 0, 0.7, time.Second)
	_, err := p.Complete(context.Background(), "x", nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "quota exceeded", te.Body)
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	p := NewOpenAIProvider("http://127.0.0.1:1", " ", "m", 0, 0.7, time.Second)
	_, err := p.Complete(context.Background(), "x", nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewOpenAIProvider(srv.URL, "k", "m", 0, 0.7, 50*time.Millisecond)
	_, err := p.Complete(context.Background(), "x", nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}

func TestTransportError_Message(t *testing.T) {
	assert.Equal(t, "openai: request failed: boom", (&TransportError{Provider: "openai", Err: errors.New("boom")}).Error())
	assert.Equal(t, "openai: status 502: bad gateway", (&TransportError{Provider: "openai", StatusCode: 502, Body: "bad gateway"}).Error())
	assert.Equal(t, "openai: status 200: decode", (&TransportError{Provider: "openai", StatusCode: 200, Err: errors.New("decode")}).Error())
	assert.Equal(t, "openai: status 503", (&TransportError{Provider: "openai", StatusCode: 503}).Error())
}
