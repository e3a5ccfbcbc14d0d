package notifications

import (
	"context"

	"github.com/handcar/handcar-backend/pkg/logger"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a rendered notification ready for delivery.
type Message struct {
	EventID     string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers messages to an external channel (mail, SMS).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the structured log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":    msg.EventID,
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": names,
	})
	s.logg.Info(ctx, "notification dispatched")
	return nil
}
