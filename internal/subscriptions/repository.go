package subscriptions

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
)

// Repository persists subscribers and their vendor assignment sets.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, sub *models.Subscriber) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) Save(ctx context.Context, sub *models.Subscriber) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Subscriber, error) {
	var sub models.Subscriber
	if err := r.db.WithContext(ctx).First(&sub, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Delete removes the subscriber and its assignments. It reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("subscriber_id = ?", id).Delete(&models.SubscriberVendor{}).Error; err != nil {
		return false, err
	}
	res := conn.Where("id = ?", id).Delete(&models.Subscriber{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReplaceVendors sets the assignment set to exactly the existing vendors among
// vendorIDs. Unknown ids are dropped. Must run inside the caller's transaction.
func (r *Repository) ReplaceVendors(ctx context.Context, subscriberID uuid.UUID, vendorIDs []uuid.UUID) ([]uuid.UUID, error) {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("subscriber_id = ?", subscriberID).Delete(&models.SubscriberVendor{}).Error; err != nil {
		return nil, err
	}
	vendorIDs = dedupe(vendorIDs)
	if len(vendorIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	var existing []uuid.UUID
	if err := conn.Model(&models.Vendor{}).Where("id IN ?", vendorIDs).Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}

	kept := make([]uuid.UUID, 0, len(existing))
	rows := make([]models.SubscriberVendor, 0, len(existing))
	for _, id := range vendorIDs {
		if _, ok := known[id]; !ok {
			continue
		}
		kept = append(kept, id)
		rows = append(rows, models.SubscriberVendor{SubscriberID: subscriberID, VendorID: id})
	}
	if len(rows) == 0 {
		return kept, nil
	}
	if err := conn.Create(&rows).Error; err != nil {
		return nil, err
	}
	return kept, nil
}

func (r *Repository) VendorIDs(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SubscriberVendor{}).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at ASC, vendor_id ASC").
		Pluck("vendor_id", &ids).Error
	return ids, err
}

// AssignedVendors loads the vendor rows assigned to the subscriber, by name.
func (r *Repository) AssignedVendors(ctx context.Context, subscriberID uuid.UUID) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Joins("JOIN subscriber_vendors sv ON sv.vendor_id = vendors.id").
		Where("sv.subscriber_id = ?", subscriberID).
		Order("vendors.name ASC, vendors.id ASC").
		Find(&rows).Error
	return rows, err
}

// ListForVendor returns subscribers assigned to vendorID, optionally filtered by a
// case-insensitive email substring.
func (r *Repository) ListForVendor(ctx context.Context, vendorID uuid.UUID, emailSearch string) ([]models.Subscriber, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN subscriber_vendors sv ON sv.subscriber_id = subscribers.id").
		Where("sv.vendor_id = ?", vendorID)
	if term := strings.ToLower(strings.TrimSpace(emailSearch)); term != "" {
		q = q.Where("LOWER(subscribers.email) LIKE ?", "%"+term+"%")
	}
	var rows []models.Subscriber
	err := q.Order("subscribers.created_at DESC, subscribers.id DESC").Find(&rows).Error
	return rows, err
}
