package enums

import "fmt"

// InteractionAction is how a customer reached out to a vendor.
type InteractionAction string

const (
	InteractionActionCall     InteractionAction = "CALL"
	InteractionActionWhatsApp InteractionAction = "WHATSAPP"
)

func (a InteractionAction) IsValid() bool {
	return a == InteractionActionCall || a == InteractionActionWhatsApp
}

func ParseInteractionAction(value string) (InteractionAction, error) {
	action := InteractionAction(value)
	if !action.IsValid() {
		return "", fmt.Errorf("invalid interaction action %q", value)
	}
	return action, nil
}

// InteractionStatus tracks the vendor's answer to a request.
type InteractionStatus string

const (
	InteractionStatusPending  InteractionStatus = "PENDING"
	InteractionStatusAccepted InteractionStatus = "ACCEPTED"
	InteractionStatusDeclined InteractionStatus = "DECLINED"
)

// IsDecision reports whether s is a terminal answer a vendor can give.
func (s InteractionStatus) IsDecision() bool {
	return s == InteractionStatusAccepted || s == InteractionStatusDeclined
}

func ParseInteractionDecision(value string) (InteractionStatus, error) {
	status := InteractionStatus(value)
	if !status.IsDecision() {
		return "", fmt.Errorf("invalid interaction decision %q", value)
	}
	return status, nil
}
