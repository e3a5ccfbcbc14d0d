package notifications

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/metrics"
	"github.com/handcar/handcar-backend/pkg/outbox/payloads"
	"github.com/handcar/handcar-backend/pkg/outbox/registry"
)

// Handler turns published outbox events into customer and vendor messages.
type Handler struct {
	registry *registry.EventRegistry
	sender   Sender
	logg     *logger.Logger
	metrics  *metrics.Metrics
}

func NewHandler(reg *registry.EventRegistry, sender Sender, logg *logger.Logger, m *metrics.Metrics) (*Handler, error) {
	if reg == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handler{registry: reg, sender: sender, logg: logg, metrics: m}, nil
}

// Handle decodes body as an envelope of eventType and dispatches it. Events without a
// notification are acknowledged and ignored. Malformed input yields a
// registry.NonRetryableError; sender failures are returned as-is for redelivery.
func (h *Handler) Handle(ctx context.Context, eventType enums.OutboxEventType, body []byte) error {
	logCtx := h.logg.WithField(ctx, "event_type", eventType.String())
	if eventType != enums.EventOrderConfirmed && eventType != enums.EventVendorInteractionLogged {
		h.logg.Debug(logCtx, "event has no notification")
		h.metrics.IncNotification(eventType.String(), "ignored")
		return nil
	}

	resolved, err := h.registry.ResolveMessage(eventType, body)
	if err != nil {
		h.metrics.IncNotification(eventType.String(), "invalid")
		return err
	}

	var msg Message
	switch payload := resolved.Payload.(type) {
	case *payloads.OrderConfirmedEvent:
		msg, err = orderConfirmedMessage(payload)
	case *payloads.VendorInteractionLoggedEvent:
		msg, err = interactionMessage(payload)
	default:
		err = registry.NewNonRetryableError(fmt.Errorf("unexpected payload %T", resolved.Payload))
	}
	if err != nil {
		h.metrics.IncNotification(eventType.String(), "invalid")
		return err
	}
	msg.EventID = resolved.Envelope.EventID

	if err := h.sender.Send(logCtx, msg); err != nil {
		h.metrics.IncNotification(eventType.String(), "failed")
		return fmt.Errorf("send %s notification: %w", eventType, err)
	}
	h.metrics.IncNotification(eventType.String(), "sent")
	return nil
}

// IsPermanent reports whether err should be acknowledged rather than redelivered.
func IsPermanent(err error) bool {
	var nonRetryable registry.NonRetryableError
	return errors.As(err, &nonRetryable)
}

func orderConfirmedMessage(p *payloads.OrderConfirmedEvent) (Message, error) {
	invoice, err := base64.StdEncoding.DecodeString(p.InvoiceBase64)
	if err != nil {
		return Message{}, registry.NewNonRetryableError(fmt.Errorf("decode invoice: %w", err))
	}
	to := strings.TrimSpace(p.Contact)
	if to == "" {
		return Message{}, registry.NewNonRetryableError(errors.New("order contact missing"))
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your Handcar order %s is confirmed", p.OrderID),
		Body: fmt.Sprintf("Hello %s,\n\nyour order %s was confirmed on %s. The invoice is attached.\n",
			p.ContactName, p.OrderID, p.ConfirmedAt.UTC().Format("2006-01-02")),
		Attachments: []Attachment{{
			Filename:    p.InvoiceFilename,
			ContentType: InvoiceContentType,
			Content:     invoice,
		}},
	}, nil
}

func interactionMessage(p *payloads.VendorInteractionLoggedEvent) (Message, error) {
	if p.VendorEmail == nil || strings.TrimSpace(*p.VendorEmail) == "" {
		return Message{}, registry.NewNonRetryableError(fmt.Errorf("vendor %s has no email", p.VendorID))
	}
	channel := "a call"
	if p.Action == enums.InteractionActionWhatsApp {
		channel = "a WhatsApp message"
	}
	return Message{
		To:      strings.TrimSpace(*p.VendorEmail),
		Subject: "New customer request on Handcar",
		Body: fmt.Sprintf("Hello %s,\n\na customer requested %s. Open your Handcar dashboard to accept or decline request %s.\n",
			p.VendorName, channel, p.LogID),
	}, nil
}
