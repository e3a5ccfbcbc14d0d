package enums

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SubscriptionPlan names the plan a subscriber pays for. Plans are free text;
// the constants are the tiers the storefront offers and are matched case-insensitively.
type SubscriptionPlan string

const (
	SubscriptionPlanBasic   SubscriptionPlan = "basic"
	SubscriptionPlanPremium SubscriptionPlan = "premium"
	SubscriptionPlanLuxury  SubscriptionPlan = "luxury"
)

const (
	MaxSubscriptionPlanLen        = 100
	MaxSubscriptionDurationMonths = 120
)

var offeredSubscriptionPlans = []SubscriptionPlan{
	SubscriptionPlanBasic,
	SubscriptionPlanPremium,
	SubscriptionPlanLuxury,
}

func (p SubscriptionPlan) String() string {
	return string(p)
}

func (p SubscriptionPlan) IsValid() bool {
	n := utf8.RuneCountInString(string(p))
	return n > 0 && n <= MaxSubscriptionPlanLen && strings.TrimSpace(string(p)) == string(p)
}

// ParseSubscriptionPlan trims value and folds the offered tiers to their canonical
// spelling. Any other non-empty name up to MaxSubscriptionPlanLen runes is kept as given.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range offeredSubscriptionPlans {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	plan := SubscriptionPlan(trimmed)
	if !plan.IsValid() {
		return "", fmt.Errorf("invalid subscription plan %q", value)
	}
	return plan, nil
}

// IsValidSubscriptionDuration reports whether months is a usable term length.
func IsValidSubscriptionDuration(months int) bool {
	return months >= 1 && months <= MaxSubscriptionDurationMonths
}
