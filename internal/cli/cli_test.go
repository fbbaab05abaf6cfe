package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqmaster/reqmaster/internal/chat"
	"github.com/reqmaster/reqmaster/internal/config"
)

func TestRegistryProviders(t *testing.T) {
	reg := newRegistry(config.Config{})
	assert.Equal(t, []string{"ollama", "openai"}, reg.Names())
}

func TestNewAnalyzer(t *testing.T) {
	a, err := newAnalyzer(context.Background(), config.Config{AIProvider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", a.Name())

	a, err = newAnalyzer(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "openai", a.Name())

	_, err = newAnalyzer(context.Background(), config.Config{AIProvider: "gemini"})
	assert.EqualError(t, err, "unknown ai provider: gemini")
}

func TestChatLocker_LocalWithoutRedis(t *testing.T) {
	l, closeFn := chatLocker(context.Background(), config.Config{})
	defer closeFn()
	assert.IsType(t, &chat.LocalLocker{}, l)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "worker", "migrate"} {
		assert.True(t, names[want], want)
	}
}
