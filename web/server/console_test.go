package server

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestWebLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-123", messageChan, nil)

	logger.Info("Test log message")

	select {
	case msg := <-messageChan:
		if msg.Message != "Test log message" {
			t.Errorf("Expected message 'Test log message', got '%s'", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}
}

func TestWebLogger_MultipleMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-456", messageChan, nil)

	messages := []string{"Message 1", "Message 2", "Message 3"}
	for _, msg := range messages {
		logger.Info(msg)
	}

	for i, expected := range messages {
		select {
		case msg := <-messageChan:
			if msg.Message != expected {
				t.Errorf("Message %d: expected '%s', got '%s'", i, expected, msg.Message)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestWebLogger_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("test-render-789", messageChan, nil)

	// None of these may block even though the channel holds one message
	logger.Info("Message 1")
	logger.Info("Message 2")
	logger.Info("Message 3")

	if len(messageChan) != 1 {
		t.Errorf("Expected 1 buffered message, got %d", len(messageChan))
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("test-render-nil", nil, nil)

	// This should not panic
	logger.Info("Test message with nil channel")
}

func TestWebLogger_Attributes(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-format", messageChan, nil).With("scene", "cornell")

	logger.Info("pass completed", "pass", 3, "samplesPerPixel", 17)
	logger.Debug("dropped below info")

	select {
	case msg := <-messageChan:
		expected := "pass completed scene=cornell pass=3 samplesPerPixel=17"
		if msg.Message != expected {
			t.Errorf("Expected formatted message '%s', got '%s'", expected, msg.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for formatted message")
	}
	if len(messageChan) != 0 {
		t.Errorf("Expected debug records to stay out of the console, got %d extra", len(messageChan))
	}
}

func TestWebLogger_ForwardsToServerLog(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewWebLogger("render-42", nil, next)

	logger.Debug("tile finished", "tile", 7)

	out := buf.String()
	if !strings.Contains(out, "tile finished") || !strings.Contains(out, "render=render-42") || !strings.Contains(out, "tile=7") {
		t.Errorf("Expected forwarded record with render id, got %q", out)
	}
}
