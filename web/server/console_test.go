package server

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWebLogger_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-123", messageChan)

	logger.Printf("Scanlines remaining: %d\n", 42)

	select {
	case msg := <-messageChan:
		if msg.Message != "Scanlines remaining: 42\n" {
			t.Errorf("Expected progress message, got '%s'", msg.Message)
		}
		if msg.RenderID != "test-render-123" {
			t.Errorf("Expected render ID 'test-render-123', got '%s'", msg.RenderID)
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

func TestWebLogger_MultipleMessagesInOrder(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-456", messageChan)

	messages := []string{"Scanlines remaining: 2", "Scanlines remaining: 1", "Scanlines remaining: 0", "Done."}
	for _, msg := range messages {
		logger.Printf("%s\n", msg)
	}

	for i, expected := range messages {
		select {
		case msg := <-messageChan:
			if msg.Message != expected+"\n" {
				t.Errorf("Message %d: expected '%s', got '%s'", i, expected, msg.Message)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestWebLogger_ChannelFullDoesNotBlock(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("test-render-789", messageChan)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			logger.Printf("Message %d\n", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logger blocked on a full channel")
	}
	if len(messageChan) != 1 {
		t.Errorf("Expected the channel to hold 1 message, got %d", len(messageChan))
	}
}

func TestWebLogger_ServerLogOnlyWarnings(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	logger := NewWebLogger("test-render-log", nil)
	logger.Printf("Scanlines remaining: 5\n")
	if buf.Len() != 0 {
		t.Errorf("Progress should not reach the server log, got %q", buf.String())
	}

	logger.Printf("Warning: slow render\n")
	if !strings.Contains(buf.String(), "[test-render-log] Warning: slow render") {
		t.Errorf("Expected warning in server log, got %q", buf.String())
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("test-render-nil", nil)
	logger.Printf("Test message with nil channel\n")
}

func TestMessageLevel(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"Scanlines remaining: 3\n", "info"},
		{"Done.\n", "info"},
		{"Warning: skipping broken.json\n", "warning"},
		{"Error: render failed\n", "error"},
	}

	for _, tt := range tests {
		if got := messageLevel(tt.message); got != tt.expected {
			t.Errorf("messageLevel(%q) = %q, want %q", tt.message, got, tt.expected)
		}
	}
}
