package amqp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rabbitmq/amqp091-go"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed channel", amqp091.ErrClosed, true},
		{"wrapped closed", fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.expected {
				t.Errorf("IsConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestShareRequestMessageJSON(t *testing.T) {
	msg := NewShareRequestMessage("Udlæg for foreningen", "Hej", []FileMessage{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Fatalf("message missing id or timestamp: %+v", msg)
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(body), `"data":"/9g="`) {
		t.Errorf("file data should be base64 encoded, got %s", body)
	}

	decoded, err := ShareRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.Title != msg.Title || len(decoded.Files) != 1 || !bytes.Equal(decoded.Files[0].Data, msg.Files[0].Data) {
		t.Errorf("decoded message differs: %+v", decoded)
	}
}

func TestShareRequestMessageFromInvalidJSON(t *testing.T) {
	if _, err := ShareRequestMessageFromJSON([]byte("{")); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
