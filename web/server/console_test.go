package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestWebLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-123", messageChan)

	logger.Printf("%s\n", "Test log message")

	msg := receive(t, messageChan)
	assert.Equal(t, "Test log message\n", msg.Message)
	assert.Equal(t, "info", msg.Level)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
}

func TestWebLogger_MultipleMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-456", messageChan)

	messages := []string{"Message 1", "Message 2", "Message 3"}
	for _, msg := range messages {
		logger.Printf("%s\n", msg)
	}

	for _, expected := range messages {
		assert.Equal(t, expected+"\n", receive(t, messageChan).Message)
	}
}

func TestWebLogger_ChannelFullDoesNotBlock(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("test-render-789", messageChan)

	logger.Printf("Message 1\n")
	logger.Printf("Message 2\n")
	logger.Printf("Message 3\n")

	assert.Equal(t, "Message 1\n", receive(t, messageChan).Message)
	assert.Empty(t, messageChan)
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("test-render-nil", nil)
	assert.NotPanics(t, func() { logger.Printf("Test message with nil channel\n") })
}

func TestWebLogger_FormattedMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-format", messageChan)

	logger.Printf("Loading %s with %d triangles...\n", "bunny.ply", 12345)
	assert.Equal(t, "Loading bunny.ply with 12345 triangles...\n", receive(t, messageChan).Message)
}

func TestConsoleMessage_JSON(t *testing.T) {
	data, err := json.Marshal(ConsoleMessage{Message: "hi", Timestamp: time.Unix(0, 0).UTC(), Level: "info"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi","timestamp":"1970-01-01T00:00:00Z","level":"info"}`, string(data))
}
