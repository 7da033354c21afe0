// Package share holds the platform collaborators for delivering an expense:
// the native share bridge and the local image downloader.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"udlaeg/internal/amqp"
	"udlaeg/internal/submission"
)

const DefaultMaxPayloadBytes = 25 << 20

var ErrUnavailable = errors.New("share bridge unavailable")

// Publisher is the broker side of the share bridge.
type Publisher interface {
	Available() bool
	PublishShareRequest(ctx context.Context, msg *amqp.ShareRequestMessage) error
}

// AMQPSharer hands share requests to the platform share bridge over AMQP.
type AMQPSharer struct {
	pub             Publisher
	maxPayloadBytes int
	attempts        uint
	retryDelay      time.Duration
}

func NewAMQPSharer(pub Publisher, maxPayloadBytes int) *AMQPSharer {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}
	return &AMQPSharer{
		pub:             pub,
		maxPayloadBytes: maxPayloadBytes,
		attempts:        3,
		retryDelay:      500 * time.Millisecond,
	}
}

// CanShare is true when the bridge is connected and the encoded request fits
// the broker's payload limit. An empty file list is still offered.
func (s *AMQPSharer) CanShare(data submission.ShareData) bool {
	if s.pub == nil || !s.pub.Available() {
		return false
	}
	body, err := message(data).ToJSON()
	if err != nil {
		return false
	}
	return len(body) <= s.maxPayloadBytes
}

// Share publishes the request, retrying dropped connections with backoff.
func (s *AMQPSharer) Share(ctx context.Context, data submission.ShareData) error {
	if s.pub == nil {
		return ErrUnavailable
	}
	msg := message(data)

	err := retry.Do(
		func() error {
			return s.pub.PublishShareRequest(ctx, msg)
		},
		retry.RetryIf(func(err error) bool {
			if amqp.IsConnectionError(err) {
				slog.WarnContext(ctx, "Share bridge connection problem, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("publish share request: %w", err)
	}
	return nil
}

func message(data submission.ShareData) *amqp.ShareRequestMessage {
	files := make([]amqp.FileMessage, 0, len(data.Files))
	for _, f := range data.Files {
		files = append(files, amqp.FileMessage{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
	}
	return amqp.NewShareRequestMessage(data.Title, data.Text, files)
}
