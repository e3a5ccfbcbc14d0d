package subscriptions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
)

const (
	DateLayout = "2006-01-02"
	// daysPerMonth is the billing month length used to derive end dates.
	daysPerMonth = 30
)

// terms is a validated plan, duration and period.
type terms struct {
	Plan           enums.SubscriptionPlan
	DurationMonths int
	StartDate      time.Time
	EndDate        time.Time
}

// parseTerms validates the raw plan, duration and start date and derives the end date.
func parseTerms(plan string, durationMonths int, startDate string) (terms, error) {
	parsedPlan, err := enums.ParseSubscriptionPlan(plan)
	if err != nil {
		return terms{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
			fmt.Sprintf("plan is required and must be at most %d characters", enums.MaxSubscriptionPlanLen))
	}
	if !enums.IsValidSubscriptionDuration(durationMonths) {
		return terms{}, pkgerrors.Newf(pkgerrors.CodeValidation, "durationMonths must be between 1 and %d",
			enums.MaxSubscriptionDurationMonths)
	}
	start, err := time.ParseInLocation(DateLayout, strings.TrimSpace(startDate), time.UTC)
	if err != nil {
		return terms{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "startDate must be YYYY-MM-DD")
	}
	return terms{
		Plan:           parsedPlan,
		DurationMonths: durationMonths,
		StartDate:      start,
		EndDate:        EndDate(start, durationMonths),
	}, nil
}

// EndDate is start plus durationMonths billing months of 30 days.
func EndDate(start time.Time, durationMonths int) time.Time {
	return start.AddDate(0, 0, durationMonths*daysPerMonth)
}

// dedupe drops nil and repeated ids, keeping first-seen order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toDTO(sub models.Subscriber, vendorIDs []uuid.UUID) SubscriberDTO {
	if vendorIDs == nil {
		vendorIDs = []uuid.UUID{}
	}
	return SubscriberDTO{
		ID:             sub.ID,
		CustomerID:     sub.CustomerID,
		Email:          sub.Email,
		Address:        sub.Address,
		Latitude:       sub.Latitude,
		Longitude:      sub.Longitude,
		ServiceType:    sub.ServiceType,
		Plan:           sub.Plan,
		DurationMonths: sub.DurationMonths,
		StartDate:      sub.StartDate.UTC().Format(DateLayout),
		EndDate:        sub.EndDate.UTC().Format(DateLayout),
		VendorIDs:      vendorIDs,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
}

func toVendorSummary(v models.Vendor) VendorSummary {
	return VendorSummary{
		ID:       v.ID,
		Name:     v.Name,
		Phone:    v.Phone,
		WhatsApp: v.WhatsApp,
		Email:    v.Email,
	}
}
